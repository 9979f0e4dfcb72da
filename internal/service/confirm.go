package service

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// confirmTokenLength is the number of characters of the random identifier's
// canonical form the token keeps. The first eight characters of a UUID are
// hex digits, so tokens are always upper-case [0-9A-F].
const confirmTokenLength = 8

// newConfirmToken generates a single-use confirmation token.
func newConfirmToken() string {
	return strings.ToUpper(uuid.NewString()[:confirmTokenLength])
}

// pendingDelete is a bulk delete waiting for its confirmation.
type pendingDelete struct {
	category  string
	expiresAt time.Time
}

// confirmRegistry holds pending bulk deletes keyed by token. Tokens are
// single-use: take removes the entry whether or not the caller's typed
// confirmation later matches.
type confirmRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string]pendingDelete
}

func newConfirmRegistry(ttl time.Duration, now func() time.Time) *confirmRegistry {
	return &confirmRegistry{
		ttl:     ttl,
		now:     now,
		pending: make(map[string]pendingDelete),
	}
}

// put registers a pending delete under the token and returns its expiry.
// Already-expired entries are pruned on the way in.
func (r *confirmRegistry) put(token, category string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for t, p := range r.pending {
		if now.After(p.expiresAt) {
			delete(r.pending, t)
		}
	}

	expiresAt := now.Add(r.ttl)
	r.pending[token] = pendingDelete{category: category, expiresAt: expiresAt}
	return expiresAt
}

// take consumes the pending delete for the token. Returns false for unknown
// or expired tokens.
func (r *confirmRegistry) take(token string) (pendingDelete, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[token]
	if !ok {
		return pendingDelete{}, false
	}
	delete(r.pending, token)
	if r.now().After(p.expiresAt) {
		return pendingDelete{}, false
	}
	return p, true
}
