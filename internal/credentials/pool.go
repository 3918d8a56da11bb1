package credentials

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrIndexOutOfRange indicates the requested credential index does not exist.
	ErrIndexOutOfRange = errors.New("credential index out of range")
	// ErrNoCredentials indicates the pool was constructed without any entries.
	ErrNoCredentials = errors.New("credential pool must contain at least one entry")
	// ErrNoneAvailable indicates every other credential is disabled.
	ErrNoneAvailable = errors.New("no enabled credential available to switch to")
)

// Credential describes a single pool entry as supplied by the operator.
type Credential struct {
	Priority   uint      `yaml:"priority"`
	Disabled   bool      `yaml:"disabled"`
	AuthMethod string    `yaml:"auth_method"`
	ProfileARN string    `yaml:"profile_arn"`
	ExpiresAt  time.Time `yaml:"expires_at"`
}

// Entry is a point-in-time view of one pool member.
type Entry struct {
	Index         int
	Priority      uint
	Disabled      bool
	FailureCount  int
	ExpiresAt     time.Time
	AuthMethod    string
	HasProfileARN bool
}

// Snapshot is a consistent view of the whole pool.
type Snapshot struct {
	Total        int
	Available    int
	CurrentIndex int
	Entries      []Entry
}

type poolEntry struct {
	credential   Credential
	failureCount int
	disabled     bool
}

// Pool keeps credentials in-memory and guards access with a RWMutex.
type Pool struct {
	mu      sync.RWMutex
	entries []poolEntry
	current int
}

// NewPool initialises a pool from the provided credentials. The entry with
// the lowest priority value becomes current.
func NewPool(creds []Credential) (*Pool, error) {
	if len(creds) == 0 {
		return nil, ErrNoCredentials
	}

	entries := make([]poolEntry, len(creds))
	for i, c := range creds {
		entries[i] = poolEntry{credential: c, disabled: c.Disabled}
	}

	p := &Pool{entries: entries}
	p.current = p.bestEnabledLocked(-1)
	if p.current < 0 {
		p.current = 0
	}
	return p, nil
}

// DefaultCredentials returns the seed used when no credentials file is
// configured: a single enabled entry.
func DefaultCredentials() []Credential {
	return []Credential{{Priority: 0, AuthMethod: "social"}}
}

type seedFile struct {
	Credentials []Credential `yaml:"credentials"`
}

// LoadFile reads pool seed credentials from a YAML file.
func LoadFile(path string) ([]Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	if len(seed.Credentials) == 0 {
		return nil, ErrNoCredentials
	}
	return seed.Credentials, nil
}

// Snapshot returns a consistent copy of the pool state.
func (p *Pool) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := Snapshot{
		Total:        len(p.entries),
		CurrentIndex: p.current,
		Entries:      make([]Entry, len(p.entries)),
	}
	for i, e := range p.entries {
		if !e.disabled {
			snap.Available++
		}
		snap.Entries[i] = Entry{
			Index:         i,
			Priority:      e.credential.Priority,
			Disabled:      e.disabled,
			FailureCount:  e.failureCount,
			ExpiresAt:     e.credential.ExpiresAt,
			AuthMethod:    e.credential.AuthMethod,
			HasProfileARN: e.credential.ProfileARN != "",
		}
	}
	return snap
}

// CurrentIndex returns the index of the credential currently in use.
func (p *Pool) CurrentIndex() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// SetDisabled flips the disabled flag on one entry.
func (p *Pool) SetDisabled(index int, disabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.entries) {
		return ErrIndexOutOfRange
	}
	p.entries[index].disabled = disabled
	return nil
}

// SetPriority updates the priority of one entry. Lower values are preferred
// when switching.
func (p *Pool) SetPriority(index int, priority uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.entries) {
		return ErrIndexOutOfRange
	}
	p.entries[index].credential.Priority = priority
	return nil
}

// ResetAndEnable clears the failure count and re-enables one entry.
func (p *Pool) ResetAndEnable(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.entries) {
		return ErrIndexOutOfRange
	}
	p.entries[index].failureCount = 0
	p.entries[index].disabled = false
	return nil
}

// RecordFailure increments the failure count of one entry.
func (p *Pool) RecordFailure(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index < 0 || index >= len(p.entries) {
		return ErrIndexOutOfRange
	}
	p.entries[index].failureCount++
	return nil
}

// SwitchToNext moves the current marker to the best enabled entry other than
// the current one and returns its index.
func (p *Pool) SwitchToNext() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.bestEnabledLocked(p.current)
	if next < 0 {
		return p.current, ErrNoneAvailable
	}
	p.current = next
	return next, nil
}

// bestEnabledLocked returns the enabled entry with the lowest priority value,
// ties broken by index, skipping the excluded index. Returns -1 when none
// qualify. Callers must hold the lock.
func (p *Pool) bestEnabledLocked(exclude int) int {
	best := -1
	for i, e := range p.entries {
		if i == exclude || e.disabled {
			continue
		}
		if best < 0 || e.credential.Priority < p.entries[best].credential.Priority {
			best = i
		}
	}
	return best
}
