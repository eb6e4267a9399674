package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Verification codes live for 30 minutes and are single-use. Writing a new
// code for the same address overwrites the previous one, so at most one code
// is active per pending registration.
const VerificationCodeTTL = 30 * time.Minute

type CodeStore struct {
	client *redis.Client
}

func NewCodeStore(client *redis.Client) *CodeStore {
	return &CodeStore{client: client}
}

func codeKey(email string) string {
	return fmt.Sprintf("verify:%s", email)
}

func (s *CodeStore) Put(ctx context.Context, email, code string) error {
	if err := s.client.Set(ctx, codeKey(email), code, VerificationCodeTTL).Err(); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}
	return nil
}

// Consume returns the active code and deletes it atomically. An empty string
// means no code is active (never stored, expired, or already consumed).
func (s *CodeStore) Consume(ctx context.Context, email string) (string, error) {
	code, err := s.client.GetDel(ctx, codeKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("consume verification code: %w", err)
	}
	return code, nil
}
