package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/supreme-chatbot/internal/model/chat"
	"github.com/zhouzirui/supreme-chatbot/internal/model/persona"
	"github.com/zhouzirui/supreme-chatbot/internal/service/backend"
)

type call struct {
	userID  string
	message string
}

// stubSender answers with reply/err and records every call. When gate is
// set, Send blocks until it is closed so tests can observe the busy state.
type stubSender struct {
	reply   string
	err     error
	gate    chan struct{}
	entered chan struct{}
	calls   []call
	onSend  func()
}

func (s *stubSender) Send(_ context.Context, userID, message string) (string, error) {
	s.calls = append(s.calls, call{userID: userID, message: message})
	if s.onSend != nil {
		s.onSend()
	}
	if s.entered != nil {
		close(s.entered)
	}
	if s.gate != nil {
		<-s.gate
	}
	return s.reply, s.err
}

func newTestConversation(sender Sender) *Conversation {
	return NewConversation("session-1", sender, Options{Logger: zerolog.Nop()})
}

func welcome() chat.Message {
	return chat.BotMessage(persona.Supreme().OpeningLine)
}

func TestNewConversationStartsWithWelcome(t *testing.T) {
	conv := newTestConversation(&stubSender{})

	snap := conv.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, welcome(), snap.Messages[0])
	assert.True(t, snap.Messages[0].IsBot)
	assert.Equal(t, "", snap.Draft)
	assert.False(t, snap.Busy)
	assert.Empty(t, snap.LastError)
	assert.Equal(t, DefaultUserID, conv.UserID())
}

func TestSetDraftKeepsTextVerbatim(t *testing.T) {
	conv := newTestConversation(&stubSender{})

	conv.SetDraft("  hello  ")
	assert.Equal(t, "  hello  ", conv.Draft())
}

func TestSubmitEmptyDraftIsNoop(t *testing.T) {
	for _, draft := range []string{"", "   ", "\t\n"} {
		sender := &stubSender{reply: "unused"}
		conv := newTestConversation(sender)
		conv.SetDraft(draft)

		outcome := conv.Submit(context.Background())

		assert.Equal(t, OutcomeSkipped, outcome)
		assert.Len(t, conv.Messages(), 1)
		assert.False(t, conv.Busy())
		assert.Empty(t, conv.LastError())
		assert.Empty(t, sender.calls)
	}
}

func TestSubmitSuccessfulRoundTrip(t *testing.T) {
	sender := &stubSender{reply: "hi there"}
	conv := newTestConversation(sender)
	conv.SetDraft("hello")

	outcome := conv.Submit(context.Background())

	assert.Equal(t, OutcomeDelivered, outcome)
	assert.Equal(t, []chat.Message{
		welcome(),
		{Text: "hello", IsBot: false},
		{Text: "hi there", IsBot: true},
	}, conv.Messages())
	assert.Equal(t, "", conv.Draft())
	assert.False(t, conv.Busy())
	assert.Empty(t, conv.LastError())
	require.Len(t, sender.calls, 1)
	assert.Equal(t, call{userID: DefaultUserID, message: "hello"}, sender.calls[0])
}

func TestSubmitSendsUntrimmedDraft(t *testing.T) {
	sender := &stubSender{reply: "ok"}
	conv := newTestConversation(sender)
	conv.SetDraft(" hello ")

	conv.Submit(context.Background())

	require.Len(t, sender.calls, 1)
	assert.Equal(t, " hello ", sender.calls[0].message)
	assert.Equal(t, " hello ", conv.Messages()[1].Text)
}

func TestSubmitFailureKeepsUserMessage(t *testing.T) {
	failures := map[string]error{
		"server":    &backend.ServerError{Status: http.StatusInternalServerError},
		"network":   &backend.NetworkError{Err: errors.New("connection refused")},
		"malformed": &backend.MalformedResponseError{Reason: "missing field"},
	}

	for name, failure := range failures {
		t.Run(name, func(t *testing.T) {
			conv := newTestConversation(&stubSender{err: failure})
			conv.SetDraft("hello")

			outcome := conv.Submit(context.Background())

			assert.Equal(t, OutcomeFailed, outcome)
			assert.Equal(t, []chat.Message{welcome(), chat.UserMessage("hello")}, conv.Messages())
			assert.Equal(t, DeliveryFailedText, conv.LastError())
			assert.ErrorIs(t, conv.LastFailure(), failure)
			assert.False(t, conv.Busy())
			assert.Equal(t, "", conv.Draft())
		})
	}
}

func TestNextAttemptClearsLastError(t *testing.T) {
	sender := &stubSender{err: &backend.ServerError{Status: 500}}
	conv := newTestConversation(sender)
	conv.SetDraft("first")
	conv.Submit(context.Background())
	require.Equal(t, DeliveryFailedText, conv.LastError())

	sender.err = nil
	sender.reply = "better now"
	conv.SetDraft("second")
	_, outcome := conv.Begin()

	require.Equal(t, OutcomePending, outcome)
	assert.Empty(t, conv.LastError())
	assert.Nil(t, conv.LastFailure())
}

func TestBusyOnlyWhileRequestInFlight(t *testing.T) {
	sender := &stubSender{
		reply:   "hi",
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
	}
	conv := newTestConversation(sender)
	conv.SetDraft("hello")
	assert.False(t, conv.Busy())

	done := make(chan Outcome, 1)
	go func() { done <- conv.Submit(context.Background()) }()

	<-sender.entered
	assert.True(t, conv.Busy())
	assert.False(t, conv.Snapshot().CanSend())

	close(sender.gate)
	assert.Equal(t, OutcomeDelivered, <-done)
	assert.False(t, conv.Busy())
	assert.True(t, conv.Snapshot().CanSend())
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	sender := &stubSender{}
	conv := newTestConversation(sender)
	conv.SetDraft("first")

	turn, outcome := conv.Begin()
	require.Equal(t, OutcomePending, outcome)

	conv.SetDraft("second")
	_, outcome = conv.Begin()
	assert.Equal(t, OutcomeBusy, outcome)
	assert.Equal(t, "second", conv.Draft())
	assert.Len(t, conv.Messages(), 2)

	sender.reply = "reply"
	assert.Equal(t, OutcomeDelivered, conv.Deliver(context.Background(), turn))
	assert.Equal(t, OutcomeSkipped, conv.Deliver(context.Background(), turn))
	assert.Len(t, sender.calls, 1)
}

func TestDeliverReleasesBusyWhenSenderPanics(t *testing.T) {
	sender := &stubSender{onSend: func() { panic("boom") }}
	conv := newTestConversation(sender)
	conv.SetDraft("hello")
	turn, _ := conv.Begin()

	assert.Panics(t, func() { conv.Deliver(context.Background(), turn) })
	assert.False(t, conv.Busy())
	assert.Equal(t, DeliveryFailedText, conv.LastError())
	assert.Len(t, conv.Messages(), 2)
}

func TestTriggerExerciseAppendsEveryTime(t *testing.T) {
	conv := newTestConversation(&stubSender{})
	conv.SetDraft("typing")
	_, outcome := conv.Begin()
	require.Equal(t, OutcomePending, outcome)
	before := len(conv.Messages())

	for i := 0; i < 3; i++ {
		conv.TriggerExercise()
	}

	messages := conv.Messages()
	require.Len(t, messages, before+3)
	for _, msg := range messages[before:] {
		assert.Equal(t, chat.BotMessage(persona.Supreme().ExerciseLine), msg)
	}
	assert.True(t, conv.Busy())
}

func TestTranscriptIsAppendOnly(t *testing.T) {
	sender := &stubSender{reply: "reply"}
	conv := newTestConversation(sender)
	previous := conv.Messages()

	steps := []func(){
		func() { conv.SetDraft("one"); conv.Submit(context.Background()) },
		func() { conv.TriggerExercise() },
		func() { conv.SetDraft("   "); conv.Submit(context.Background()) },
		func() {
			sender.err = errors.New("down")
			conv.SetDraft("two")
			conv.Submit(context.Background())
		},
		func() { conv.TriggerExercise() },
	}

	for _, step := range steps {
		step()
		current := conv.Messages()
		require.GreaterOrEqual(t, len(current), len(previous))
		assert.Equal(t, previous, current[:len(previous)])
		previous = current
	}
}

func TestTranscriptGrowsWithoutBound(t *testing.T) {
	conv := newTestConversation(&stubSender{reply: "ok"})

	for i := 0; i < 500; i++ {
		conv.TriggerExercise()
	}

	assert.Len(t, conv.Messages(), 501)
}

func TestSubscribePublishesSnapshots(t *testing.T) {
	conv := newTestConversation(&stubSender{reply: "hi there"})

	var seen []chat.Snapshot
	cancel := conv.Subscribe(func(s chat.Snapshot) { seen = append(seen, s) })

	conv.SetDraft("hello")
	conv.Submit(context.Background())
	cancel()
	conv.TriggerExercise()

	require.Len(t, seen, 3)
	assert.Equal(t, "hello", seen[0].Draft)
	assert.True(t, seen[1].Busy)
	assert.Len(t, seen[1].Messages, 2)
	assert.False(t, seen[2].Busy)
	assert.Len(t, seen[2].Messages, 3)
}

func TestSnapshotVersionGrowsOnEveryChange(t *testing.T) {
	conv := newTestConversation(&stubSender{reply: "ok"})

	v0 := conv.Snapshot().Version
	conv.SetDraft("hello")
	v1 := conv.Snapshot().Version
	turn, _ := conv.Begin()
	v2 := conv.Snapshot().Version
	conv.Deliver(context.Background(), turn)
	v3 := conv.Snapshot().Version
	conv.TriggerExercise()
	v4 := conv.Snapshot().Version

	assert.Less(t, v0, v1)
	assert.Less(t, v1, v2)
	assert.Less(t, v2, v3)
	assert.Less(t, v3, v4)
}

// A slow subscriber must still end on the latest state when a reply and an
// exercise land at the same time.
func TestConcurrentChangesPublishInVersionOrder(t *testing.T) {
	for run := 0; run < 200; run++ {
		gate := make(chan struct{})
		conv := newTestConversation(&stubSender{reply: "ok", gate: gate})

		conv.SetDraft("hello")
		turn, outcome := conv.Begin()
		require.Equal(t, OutcomePending, outcome)

		var (
			mu   sync.Mutex
			last chat.Snapshot
		)
		cancel := conv.Subscribe(func(s chat.Snapshot) {
			if s.Busy {
				time.Sleep(time.Millisecond)
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, last.NewerThan(s), "snapshot %d delivered after %d", s.Version, last.Version)
			last = s
		})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			conv.Deliver(context.Background(), turn)
		}()
		go func() {
			defer wg.Done()
			conv.TriggerExercise()
		}()
		close(gate)
		wg.Wait()
		cancel()

		final := conv.Snapshot()
		mu.Lock()
		assert.Equal(t, final.Version, last.Version)
		assert.Equal(t, final.Busy, last.Busy)
		assert.False(t, last.Busy)
		mu.Unlock()
	}
}

func TestIdleRequiresQuietUnsubscribedAndNotBusy(t *testing.T) {
	gate := make(chan struct{})
	conv := newTestConversation(&stubSender{reply: "ok", gate: gate})
	future := time.Now().Add(time.Hour)

	assert.True(t, conv.Idle(future))
	assert.False(t, conv.Idle(time.Now().Add(-time.Hour)))

	cancel := conv.Subscribe(func(chat.Snapshot) {})
	assert.False(t, conv.Idle(future))
	cancel()

	conv.SetDraft("hello")
	turn, _ := conv.Begin()
	assert.False(t, conv.Idle(future))

	close(gate)
	conv.Deliver(context.Background(), turn)
	assert.True(t, conv.Idle(future))
}
