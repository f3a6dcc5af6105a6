// Package quota admits AI feedback requests against a free daily allowance
// or an unlimited bring-your-own-key path.
package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"podium/internal/logger"
	"podium/internal/models"

	"github.com/rs/zerolog"
)

const DailyLimit = 10

var (
	ErrQuotaExceeded      = errors.New("daily quota exceeded")
	ErrCredentialRequired = errors.New("api key required")
	ErrInvalidCredential  = errors.New("api key is invalid")
	ErrUserNotFound       = errors.New("user not found")
)

// Store is the slice of persistence the gate needs. IncrementUsage must be a
// single conditional update: it bumps the counter (restarting it at 1 on a
// new UTC day) only while the stored count for dayStart is below limit, and
// reports ok=false otherwise.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	IncrementUsage(ctx context.Context, userID int64, dayStart, now time.Time, limit int) (int, bool, error)
}

type Options struct {
	// DefaultKey is the server credential; empty means none is configured.
	DefaultKey string
	DailyLimit int
	Now        func() time.Time
	Logger     zerolog.Logger
}

type Gate struct {
	store      Store
	verifier   Verifier
	defaultKey string
	limit      int
	now        func() time.Time
	log        zerolog.Logger
}

func NewGate(store Store, verifier Verifier, opts Options) *Gate {
	limit := opts.DailyLimit
	if limit <= 0 {
		limit = DailyLimit
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Gate{
		store:      store,
		verifier:   verifier,
		defaultKey: strings.TrimSpace(opts.DefaultKey),
		limit:      limit,
		now:        now,
		log:        opts.Logger,
	}
}

type Decision struct {
	Unlimited  bool
	Usage      int
	Limit      int
	Credential Credential
}

func (d Decision) Remaining() int {
	if d.Unlimited {
		return -1
	}
	if d.Usage >= d.Limit {
		return 0
	}
	return d.Limit - d.Usage
}

type Status struct {
	CurrentUsage   int    `json:"current_usage" example:"3"`
	DailyLimit     int    `json:"daily_limit" example:"10"`
	Unlimited      bool   `json:"unlimited"`
	RequiresAPIKey bool   `json:"requires_api_key,omitempty"`
	Message        string `json:"message,omitempty"`
}

func (g *Gate) Limit() int {
	return g.limit
}

func (g *Gate) HasDefaultCredential() bool {
	return g.defaultKey != ""
}

// Admit decides whether one feedback request may run and which credential it
// should use. The counter is only written on the admitted quota path.
func (g *Gate) Admit(ctx context.Context, userID int64, requestKey string) (Decision, error) {
	user, err := g.store.GetUserByID(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return Decision{}, ErrUserNotFound
	}

	requestKey = strings.TrimSpace(requestKey)
	invalidSupplied := false
	if requestKey != "" {
		if g.trusts(ctx, user, requestKey) {
			cred, _ := ResolveCredential(requestKey, user.APIKey, g.defaultKey)
			return Decision{Unlimited: true, Credential: cred}, nil
		}
		invalidSupplied = true
	}

	if user.HasVerifiedAPIKey() {
		cred, _ := ResolveCredential("", user.APIKey, g.defaultKey)
		return Decision{Unlimited: true, Credential: cred}, nil
	}

	cred, ok := ResolveCredential("", "", g.defaultKey)
	if !ok {
		if invalidSupplied {
			return Decision{}, ErrInvalidCredential
		}
		return Decision{}, ErrCredentialRequired
	}

	now := g.now()
	if used := EffectiveUsage(user.UsageCount, user.LastUsageAt, now); used >= g.limit {
		return Decision{Usage: used, Limit: g.limit}, ErrQuotaExceeded
	}

	count, ok, err := g.store.IncrementUsage(ctx, userID, DayStart(now), now, g.limit)
	if err != nil {
		return Decision{}, fmt.Errorf("increment usage: %w", err)
	}
	if !ok {
		return Decision{Usage: g.limit, Limit: g.limit}, ErrQuotaExceeded
	}

	return Decision{Usage: count, Limit: g.limit, Credential: cred}, nil
}

// trusts reports whether a caller-supplied key can be used without quota.
// The user's own stored key was verified when it was saved.
func (g *Gate) trusts(ctx context.Context, user *models.User, key string) bool {
	if user.HasVerifiedAPIKey() && key == strings.TrimSpace(user.APIKey) {
		return true
	}
	if g.verifier == nil {
		return false
	}
	if err := g.verifier.Verify(ctx, key); err != nil {
		g.log.Warn().
			Err(err).
			Int64("user_id", user.ID).
			Str("api_key", logger.MaskSecret(key)).
			Msg("supplied api key failed verification, falling back to quota")
		return false
	}
	return true
}

func (g *Gate) Status(ctx context.Context, userID int64) (Status, error) {
	user, err := g.store.GetUserByID(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return Status{}, ErrUserNotFound
	}

	if user.HasVerifiedAPIKey() {
		return Status{Unlimited: true}, nil
	}

	if !g.HasDefaultCredential() {
		return Status{
			RequiresAPIKey: true,
			Message:        "Please add your own Gemini API key in Settings to use this feature.",
		}, nil
	}

	return Status{
		CurrentUsage: EffectiveUsage(user.UsageCount, user.LastUsageAt, g.now()),
		DailyLimit:   g.limit,
	}, nil
}
