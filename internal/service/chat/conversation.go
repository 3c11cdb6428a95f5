package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/supreme-chatbot/internal/model/chat"
	"github.com/zhouzirui/supreme-chatbot/internal/model/persona"
	"github.com/zhouzirui/supreme-chatbot/internal/service/backend"
)

// DeliveryFailedText is the only failure message users ever see.
const DeliveryFailedText = "Sorry, something went wrong. Please try again later."

// DefaultUserID is the placeholder identity sent with every turn until
// real authentication exists.
const DefaultUserID = "user123"

var errDispatchAborted = errors.New("dispatch aborted before the backend answered")

// Sender delivers one user message to the chat backend and returns the reply.
type Sender interface {
	Send(ctx context.Context, userID, message string) (string, error)
}

// Options configures new conversations.
type Options struct {
	UserID   string
	Welcome  string
	Exercise string
	Logger   zerolog.Logger
}

func (o Options) withDefaults() Options {
	p := persona.Supreme()
	if strings.TrimSpace(o.UserID) == "" {
		o.UserID = DefaultUserID
	}
	if o.Welcome == "" {
		o.Welcome = p.OpeningLine
	}
	if o.Exercise == "" {
		o.Exercise = p.ExerciseLine
	}
	return o
}

// Turn is a user message accepted by Begin and awaiting delivery.
type Turn struct {
	Text string
	seq  uint64
}

// Conversation owns the state of one chat session: transcript, draft, busy
// flag and last error. All methods are safe for concurrent use; the backend
// call runs without holding the lock.
type Conversation struct {
	id     string
	userID string
	sender Sender
	log    zerolog.Logger

	exercise string

	mu          sync.Mutex
	transcript  *Transcript
	draft       string
	busy        bool
	lastError   string
	lastFailure error
	seq         uint64
	version     uint64
	lastActive  time.Time

	subMu  sync.Mutex
	subs   map[int]func(chat.Snapshot)
	nextID int

	// pubMu serializes delivery to subscribers; published is the newest
	// version handed out so far.
	pubMu     sync.Mutex
	published uint64
}

// NewConversation creates a conversation whose transcript holds only the welcome message.
func NewConversation(id string, sender Sender, opts Options) *Conversation {
	opts = opts.withDefaults()
	return &Conversation{
		id:         id,
		userID:     opts.UserID,
		sender:     sender,
		log:        opts.Logger.With().Str("session", id).Logger(),
		exercise:   opts.Exercise,
		transcript: NewTranscript(chat.BotMessage(opts.Welcome)),
		lastActive: time.Now(),
		subs:       make(map[int]func(chat.Snapshot)),
	}
}

// ID returns the session identifier.
func (c *Conversation) ID() string {
	return c.id
}

// UserID returns the identity sent to the backend.
func (c *Conversation) UserID() string {
	return c.userID
}

// SetDraft replaces the draft verbatim.
func (c *Conversation) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.changedLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
}

// Draft returns the current draft.
func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Busy reports whether a dispatch is in flight.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// LastError returns the user-facing error, empty when none is pending.
func (c *Conversation) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// LastFailure returns the classified cause behind LastError.
func (c *Conversation) LastFailure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFailure
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Messages()
}

// Snapshot returns a consistent copy of the whole state.
func (c *Conversation) Snapshot() chat.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Begin performs the synchronous half of a submit: the draft is validated,
// appended as a user message and cleared, busy is set and the last error
// cleared. The returned Turn must be passed to Deliver.
func (c *Conversation) Begin() (Turn, Outcome) {
	c.mu.Lock()
	if strings.TrimSpace(c.draft) == "" {
		c.mu.Unlock()
		return Turn{}, OutcomeSkipped
	}
	if c.busy {
		c.mu.Unlock()
		return Turn{}, OutcomeBusy
	}

	text := c.draft
	c.transcript.Append(chat.UserMessage(text))
	c.draft = ""
	c.busy = true
	c.lastError = ""
	c.lastFailure = nil
	c.seq++
	turn := Turn{Text: text, seq: c.seq}
	c.changedLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Debug().Int("length", len(text)).Msg("user turn accepted")
	c.publish(snap)
	return turn, OutcomePending
}

// Deliver sends a pending turn to the backend and records the result. The
// busy flag is released on every exit path, including a panicking Sender.
// A failed turn is never rolled back.
func (c *Conversation) Deliver(ctx context.Context, turn Turn) (outcome Outcome) {
	c.mu.Lock()
	inFlight := c.busy && turn.seq != 0 && turn.seq == c.seq
	c.mu.Unlock()
	if !inFlight {
		return OutcomeSkipped
	}

	reply, err := "", errDispatchAborted
	defer func() {
		outcome = c.finish(reply, err)
	}()

	reply, err = c.sender.Send(ctx, c.userID, turn.Text)
	return OutcomePending
}

// Submit runs Begin and, when a turn was accepted, Deliver.
func (c *Conversation) Submit(ctx context.Context) Outcome {
	turn, outcome := c.Begin()
	if outcome != OutcomePending {
		return outcome
	}
	return c.Deliver(ctx, turn)
}

// TriggerExercise appends the grounding exercise message. It ignores the
// busy flag and never touches the network.
func (c *Conversation) TriggerExercise() {
	c.mu.Lock()
	c.transcript.Append(chat.BotMessage(c.exercise))
	c.changedLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
}

// Subscribe registers fn to receive a snapshot after every state change.
// Snapshots arrive in version order; one superseded before delivery is
// skipped. fn must not modify the conversation. The returned function
// removes the subscription.
func (c *Conversation) Subscribe(fn func(chat.Snapshot)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Conversation) finish(reply string, err error) Outcome {
	c.mu.Lock()
	outcome := OutcomeDelivered
	if err != nil {
		outcome = OutcomeFailed
		c.lastError = DeliveryFailedText
		c.lastFailure = err
	} else {
		c.transcript.Append(chat.BotMessage(reply))
	}
	c.busy = false
	c.changedLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).Str("kind", string(backend.Classify(err))).Msg("message delivery failed")
	} else {
		c.log.Debug().Int("length", len(reply)).Msg("bot reply appended")
	}
	c.publish(snap)
	return outcome
}

// Touch records activity that does not change state, such as a page poll.
func (c *Conversation) Touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

// Idle reports whether the conversation has seen no activity since cutoff,
// has nothing in flight and nobody listening.
func (c *Conversation) Idle(cutoff time.Time) bool {
	c.mu.Lock()
	quiet := !c.busy && c.lastActive.Before(cutoff)
	c.mu.Unlock()
	if !quiet {
		return false
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()
	return len(c.subs) == 0
}

func (c *Conversation) changedLocked() {
	c.version++
	c.lastActive = time.Now()
}

func (c *Conversation) snapshotLocked() chat.Snapshot {
	return chat.Snapshot{
		SessionID: c.id,
		Version:   c.version,
		Messages:  c.transcript.Messages(),
		Draft:     c.draft,
		Busy:      c.busy,
		LastError: c.lastError,
	}
}

func (c *Conversation) publish(snap chat.Snapshot) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if snap.Version <= c.published {
		return
	}
	c.published = snap.Version

	c.subMu.Lock()
	subs := make([]func(chat.Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
