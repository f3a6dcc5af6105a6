package quota

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Verifier checks that a provider key works, typically with a tiny live call.
type Verifier interface {
	Verify(ctx context.Context, key string) error
}

// CachedVerifier remembers keys that passed verification for ttl so a
// trusted key is probed once rather than on every request. Failures are not
// cached; a key fixed on the provider side starts working immediately.
type CachedVerifier struct {
	next Verifier
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	verified map[string]time.Time
}

func NewCachedVerifier(next Verifier, ttl time.Duration) *CachedVerifier {
	return &CachedVerifier{
		next:     next,
		ttl:      ttl,
		now:      time.Now,
		verified: make(map[string]time.Time),
	}
}

func (v *CachedVerifier) Verify(ctx context.Context, key string) error {
	fp := fingerprint(key)

	v.mu.Lock()
	expires, ok := v.verified[fp]
	if ok && v.now().Before(expires) {
		v.mu.Unlock()
		return nil
	}
	delete(v.verified, fp)
	v.mu.Unlock()

	if err := v.next.Verify(ctx, key); err != nil {
		return err
	}

	v.mu.Lock()
	v.verified[fp] = v.now().Add(v.ttl)
	v.mu.Unlock()
	return nil
}

func fingerprint(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}
