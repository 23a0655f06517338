// Package otp implements the one-time-passcode store backing the second
// login phase. The store is process-local by contract: a crash loses all
// in-flight logins and simply forces re-login. It hides behind the Store
// interface so a shared keyed store with TTL can replace it for
// multi-instance deployments.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

// ErrExpiredOrInvalid is returned for every verification failure: unknown
// email, wrong code, or expired entry. Callers cannot distinguish the cases.
var ErrExpiredOrInvalid = errors.New("invalid or expired OTP")

// Store issues and verifies single-use codes keyed by email.
type Store interface {
	// Issue generates a 6-digit code for email, overwriting any prior entry.
	Issue(email string) (string, error)
	// Verify consumes the entry on success; any failure is ErrExpiredOrInvalid.
	Verify(email, code string) error
	// Evict removes expired entries. Correctness never depends on it;
	// lookups check expiry at read time.
	Evict()
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is the in-memory Store. At most one live entry exists per
// email: a new login request overwrites the previous entry, invalidating its
// code (last-write-wins for concurrent logins on the same email).
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store whose codes live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Issue(email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.entries[normalize(email)] = entry{code: code, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return code, nil
}

func (s *MemoryStore) Verify(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalize(email)
	e, ok := s.entries[key]
	if !ok || e.code != code || s.now().After(e.expiresAt) {
		return ErrExpiredOrInvalid
	}
	// Single-use: a consumed code is not replayable.
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Evict() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// StartEvictor runs Evict every interval until stop is closed. Long-running
// processes use it to bound memory held by abandoned logins.
func (s *MemoryStore) StartEvictor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.Evict()
			case <-stop:
				return
			}
		}
	}()
}

// generateCode draws a uniform-random 6-digit decimal code (100000-999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
