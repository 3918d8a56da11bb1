// Package admin implements the business logic behind the admin API:
// credential listing, lifecycle operations, and balance queries against the
// upstream provider.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirotools/admin-console/internal/credentials"
	"github.com/kirotools/admin-console/internal/upstream"
)

// CredentialStatus is one credential as reported to admin clients.
type CredentialStatus struct {
	Index         int        `json:"index"`
	Priority      uint       `json:"priority"`
	Disabled      bool       `json:"disabled"`
	FailureCount  int        `json:"failureCount"`
	IsCurrent     bool       `json:"isCurrent"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	AuthMethod    string     `json:"authMethod,omitempty"`
	HasProfileARN bool       `json:"hasProfileArn"`
}

// CredentialsStatus is the full pool report.
type CredentialsStatus struct {
	Total        int                `json:"total"`
	Available    int                `json:"available"`
	CurrentIndex int                `json:"currentIndex"`
	Credentials  []CredentialStatus `json:"credentials"`
}

// Balance is the usage report for one credential.
type Balance struct {
	Index             int        `json:"index"`
	SubscriptionTitle string     `json:"subscriptionTitle,omitempty"`
	CurrentUsage      float64    `json:"currentUsage"`
	UsageLimit        float64    `json:"usageLimit"`
	Remaining         float64    `json:"remaining"`
	UsagePercentage   float64    `json:"usagePercentage"`
	NextResetAt       *time.Time `json:"nextResetAt,omitempty"`
}

// Service wires the credential pool and the usage fetcher into admin
// operations.
type Service struct {
	pool  *credentials.Pool
	usage upstream.Fetcher
}

// NewService constructs a Service with the provided dependencies.
func NewService(pool *credentials.Pool, usage upstream.Fetcher) *Service {
	return &Service{pool: pool, usage: usage}
}

// Credentials reports the state of every pool entry.
func (s *Service) Credentials() CredentialsStatus {
	snap := s.pool.Snapshot()

	statuses := make([]CredentialStatus, 0, len(snap.Entries))
	for _, entry := range snap.Entries {
		status := CredentialStatus{
			Index:         entry.Index,
			Priority:      entry.Priority,
			Disabled:      entry.Disabled,
			FailureCount:  entry.FailureCount,
			IsCurrent:     entry.Index == snap.CurrentIndex,
			AuthMethod:    entry.AuthMethod,
			HasProfileARN: entry.HasProfileARN,
		}
		if !entry.ExpiresAt.IsZero() {
			expiresAt := entry.ExpiresAt
			status.ExpiresAt = &expiresAt
		}
		statuses = append(statuses, status)
	}

	return CredentialsStatus{
		Total:        snap.Total,
		Available:    snap.Available,
		CurrentIndex: snap.CurrentIndex,
		Credentials:  statuses,
	}
}

// SetDisabled flips the disabled state of one credential. Disabling the
// current credential triggers a switch to the next enabled one; the switch
// failing is not an error, the pool just stays where it is.
func (s *Service) SetDisabled(index int, disabled bool) error {
	snap := s.pool.Snapshot()

	if err := s.pool.SetDisabled(index, disabled); err != nil {
		return s.classify(err, index, snap.Total)
	}

	if disabled && index == snap.CurrentIndex {
		_, _ = s.pool.SwitchToNext()
	}
	return nil
}

// SetPriority updates the switching priority of one credential.
func (s *Service) SetPriority(index int, priority uint) error {
	total := s.pool.Snapshot().Total
	if err := s.pool.SetPriority(index, priority); err != nil {
		return s.classify(err, index, total)
	}
	return nil
}

// ResetAndEnable clears the failure count and re-enables one credential.
func (s *Service) ResetAndEnable(index int) error {
	total := s.pool.Snapshot().Total
	if err := s.pool.ResetAndEnable(index); err != nil {
		return s.classify(err, index, total)
	}
	return nil
}

// Balance queries the provider for the credential's usage and derives the
// remaining quota and usage percentage.
func (s *Service) Balance(ctx context.Context, index int) (Balance, error) {
	snap := s.pool.Snapshot()
	if index < 0 || index >= snap.Total {
		return Balance{}, s.classify(credentials.ErrIndexOutOfRange, index, snap.Total)
	}

	limits, err := s.usage.UsageLimits(ctx, index)
	if err != nil {
		return Balance{}, s.classifyBalance(err, index, snap.Total)
	}

	remaining := limits.UsageLimit - limits.CurrentUsage
	if remaining < 0 {
		remaining = 0
	}
	usagePercentage := 0.0
	if limits.UsageLimit > 0 {
		usagePercentage = limits.CurrentUsage / limits.UsageLimit * 100
		if usagePercentage > 100 {
			usagePercentage = 100
		}
	}

	return Balance{
		Index:             index,
		SubscriptionTitle: limits.SubscriptionTitle,
		CurrentUsage:      limits.CurrentUsage,
		UsageLimit:        limits.UsageLimit,
		Remaining:         remaining,
		UsagePercentage:   usagePercentage,
		NextResetAt:       limits.NextResetAt,
	}, nil
}

// classify maps pool errors from simple operations onto the admin error
// taxonomy.
func (s *Service) classify(err error, index, total int) error {
	if errors.Is(err, credentials.ErrIndexOutOfRange) {
		return fmt.Errorf("%w: index %d, pool size %d", ErrNotFound, index, total)
	}
	return err
}

// classifyBalance additionally maps provider failures onto ErrUpstream.
// Anything else (local validation, decode faults) stays an internal error.
func (s *Service) classifyBalance(err error, index, total int) error {
	if errors.Is(err, credentials.ErrIndexOutOfRange) {
		return fmt.Errorf("%w: index %d, pool size %d", ErrNotFound, index, total)
	}
	if errors.Is(err, upstream.ErrUnauthorized) ||
		errors.Is(err, upstream.ErrRateLimited) ||
		errors.Is(err, upstream.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return err
}
