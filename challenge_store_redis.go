package glassauth

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const challengeRecordVersion1 = 1

var errChallengeBackend = errors.New("challenge backend unavailable")

// redisChallengeStore keeps challenges in redis with TTL keys, for
// deployments that already run redis and want challenges to survive a
// process restart. Records use a compact versioned binary encoding.
type redisChallengeStore struct {
	redis  *redis.Client
	prefix string
}

func newRedisChallengeStore(client *redis.Client, prefix string) *redisChallengeStore {
	if prefix == "" {
		prefix = "gac"
	}
	return &redisChallengeStore{redis: client, prefix: prefix}
}

func (s *redisChallengeStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *redisChallengeStore) Save(ctx context.Context, id string, rec *challenge, ttl time.Duration) error {
	encoded, err := encodeChallenge(rec)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(id), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errChallengeBackend, err)
	}
	return nil
}

func (s *redisChallengeStore) Get(ctx context.Context, id string) (*challenge, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("%w: %v", errChallengeBackend, err)
	}

	rec, err := decodeChallenge(data)
	if err != nil {
		return nil, err
	}
	if rec.expired(time.Now()) {
		_, _ = s.redis.Del(ctx, s.key(id)).Result()
		return nil, ErrChallengeNotFound
	}
	return rec, nil
}

func (s *redisChallengeStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", errChallengeBackend, err)
	}
	return n > 0, nil
}

// Sweep is a no-op: redis key TTLs already reclaim expired challenges.
func (s *redisChallengeStore) Sweep(context.Context) int {
	return 0
}

func encodeChallenge(rec *challenge) ([]byte, error) {
	if len(rec.AccountID) > 65535 {
		return nil, errors.New("challenge account id length exceeded")
	}

	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, rec.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(rec.AccountID))); err != nil {
		return nil, err
	}
	buf.WriteString(rec.AccountID)

	return buf.Bytes(), nil
}

func decodeChallenge(data []byte) (*challenge, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != challengeRecordVersion1 {
		return nil, errors.New("invalid challenge record version")
	}

	rec := &challenge{}
	if err := binary.Read(reader, binary.BigEndian, &rec.ExpiresAt); err != nil {
		return nil, err
	}

	var idLen uint16
	if err := binary.Read(reader, binary.BigEndian, &idLen); err != nil {
		return nil, err
	}
	id := make([]byte, idLen)
	if _, err := io.ReadFull(reader, id); err != nil {
		return nil, err
	}
	rec.AccountID = string(id)

	return rec, nil
}
