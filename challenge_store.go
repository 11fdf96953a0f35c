package glassauth

import (
	"context"
	"sync"
	"time"
)

// challenge is one pending two-factor login. Expiry is carried in the
// record itself so an expired entry is inert even before the sweeper
// or the redis TTL removes it.
type challenge struct {
	AccountID string
	ExpiresAt int64
}

func (c *challenge) expired(now time.Time) bool {
	return now.Unix() > c.ExpiresAt
}

// challengeStore holds pending challenges. Get never returns an
// expired record; Delete reports whether the record was still present,
// which is what makes challenges single-use.
type challengeStore interface {
	Save(ctx context.Context, id string, rec *challenge, ttl time.Duration) error
	Get(ctx context.Context, id string) (*challenge, error)
	Delete(ctx context.Context, id string) (bool, error)
	Sweep(ctx context.Context) int
}

type memoryChallengeStore struct {
	mu      sync.RWMutex
	records map[string]*challenge
}

func newMemoryChallengeStore() *memoryChallengeStore {
	return &memoryChallengeStore{records: make(map[string]*challenge)}
}

func (s *memoryChallengeStore) Save(_ context.Context, id string, rec *challenge, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.records[id] = &cp
	return nil
}

func (s *memoryChallengeStore) Get(_ context.Context, id string) (*challenge, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrChallengeNotFound
	}
	if rec.expired(time.Now()) {
		s.mu.Lock()
		delete(s.records, id)
		s.mu.Unlock()
		return nil, ErrChallengeNotFound
	}

	cp := *rec
	return &cp, nil
}

func (s *memoryChallengeStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.records[id]
	delete(s.records, id)
	return ok, nil
}

// Sweep drops expired records and returns how many were removed.
func (s *memoryChallengeStore) Sweep(_ context.Context) int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.records {
		if rec.expired(now) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}
