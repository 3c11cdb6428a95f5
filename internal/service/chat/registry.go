package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry keeps the live conversations, one per widget session.
type Registry struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	sender        Sender
	opts          Options
}

// NewRegistry creates an empty registry whose conversations deliver through sender.
func NewRegistry(sender Sender, opts Options) *Registry {
	return &Registry{
		conversations: make(map[string]*Conversation),
		sender:        sender,
		opts:          opts.withDefaults(),
	}
}

// Create provisions a fresh conversation seeded with the welcome message.
func (r *Registry) Create(_ context.Context) *Conversation {
	conv := NewConversation(uuid.NewString(), r.sender, r.opts)

	r.mu.Lock()
	r.conversations[conv.ID()] = conv
	r.mu.Unlock()

	r.opts.Logger.Info().Str("session", conv.ID()).Msg("conversation created")
	return conv
}

// Get retrieves a conversation by session identifier.
func (r *Registry) Get(_ context.Context, sessionID string) (*Conversation, error) {
	r.mu.RLock()
	conv, ok := r.conversations[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	conv.Touch()
	return conv, nil
}

// Remove drops a conversation. Removing an unknown id is a no-op.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	_, ok := r.conversations[sessionID]
	delete(r.conversations, sessionID)
	r.mu.Unlock()

	if ok {
		r.opts.Logger.Debug().Str("session", sessionID).Msg("conversation removed")
	}
}

// Sweep removes every conversation that has been idle since cutoff and
// returns how many were removed.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, conv := range r.conversations {
		if conv.Idle(cutoff) {
			delete(r.conversations, id)
			removed++
		}
	}
	return removed
}

// Expire sweeps conversations idle for longer than ttl every interval until
// ctx is done. A non-positive ttl disables expiry.
func (r *Registry) Expire(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now.Add(-ttl)); n > 0 {
				r.opts.Logger.Info().Int("removed", n).Int("live", r.Len()).Msg("expired idle conversations")
			}
		}
	}
}

// Len returns the number of live conversations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations)
}
