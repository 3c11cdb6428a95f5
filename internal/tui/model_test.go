package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/supreme-chatbot/internal/model/chat"
	"github.com/zhouzirui/supreme-chatbot/internal/model/persona"
	chatService "github.com/zhouzirui/supreme-chatbot/internal/service/chat"
)

type fakeSender struct {
	reply string
	err   error
	calls int
}

func (f *fakeSender) Send(_ context.Context, _ string, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newTestModel(sender chatService.Sender) Model {
	conv := chatService.NewConversation("tui-test", sender, chatService.Options{Logger: zerolog.Nop()})
	return New(context.Background(), conv, persona.Supreme())
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func press(t *testing.T, m Model, key tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	return next.(Model), cmd
}

// runDeliveries executes cmd and feeds every deliveredMsg it produces back into m.
func runDeliveries(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}

	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = runDeliveries(t, m, c)
		}
	case deliveredMsg:
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestInitialViewShowsWelcome(t *testing.T) {
	m := newTestModel(&fakeSender{})

	snap := m.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.True(t, snap.Messages[0].IsBot)

	view := m.View()
	assert.Contains(t, view, "Supreme Chatbot")
	assert.Contains(t, view, "988")
}

func TestTypingUpdatesDraft(t *testing.T) {
	m := newTestModel(&fakeSender{})

	m = typeText(t, m, "hello")

	assert.Equal(t, "hello", m.conv.Draft())
}

func TestEnterSendsAndAppendsReply(t *testing.T) {
	sender := &fakeSender{reply: "I'm here for you."}
	m := newTestModel(sender)

	m = typeText(t, m, "I feel sad")
	m, cmd := press(t, m, tea.KeyEnter)

	assert.True(t, m.Snapshot().Busy)
	assert.Contains(t, m.View(), "Typing...")
	assert.Empty(t, m.input.Value())

	m = runDeliveries(t, m, cmd)

	snap := m.Snapshot()
	assert.False(t, snap.Busy)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, []chat.Message{
		chat.BotMessage(persona.Supreme().OpeningLine),
		chat.UserMessage("I feel sad"),
		chat.BotMessage("I'm here for you."),
	}, snap.Messages)
}

func TestEnterIgnoredWhileBusy(t *testing.T) {
	sender := &fakeSender{reply: "ok"}
	m := newTestModel(sender)

	m = typeText(t, m, "first")
	m, cmd := press(t, m, tea.KeyEnter)
	require.True(t, m.Snapshot().Busy)

	m = typeText(t, m, "second")
	m, second := press(t, m, tea.KeyEnter)
	assert.Nil(t, second)
	assert.Len(t, m.Snapshot().Messages, 2)

	m = runDeliveries(t, m, cmd)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "second", m.conv.Draft())
}

func TestEnterWithBlankDraftDoesNothing(t *testing.T) {
	sender := &fakeSender{reply: "ok"}
	m := newTestModel(sender)

	m = typeText(t, m, "   ")
	m, cmd := press(t, m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.False(t, m.Snapshot().Busy)
	assert.Len(t, m.Snapshot().Messages, 1)
	assert.Zero(t, sender.calls)
}

func TestFailureShowsError(t *testing.T) {
	m := newTestModel(&fakeSender{err: errors.New("connection refused")})

	m = typeText(t, m, "hello")
	m, cmd := press(t, m, tea.KeyEnter)
	m = runDeliveries(t, m, cmd)

	snap := m.Snapshot()
	assert.Equal(t, chatService.DeliveryFailedText, snap.LastError)
	assert.Len(t, snap.Messages, 2)
	assert.Contains(t, m.View(), chatService.DeliveryFailedText)
}

func TestCtrlGTriggersExercise(t *testing.T) {
	m := newTestModel(&fakeSender{})

	m, _ = press(t, m, tea.KeyCtrlG)

	snap := m.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, chat.BotMessage(persona.Supreme().ExerciseLine), snap.Messages[1])
}

func TestEscQuits(t *testing.T) {
	m := newTestModel(&fakeSender{})

	_, cmd := press(t, m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(&fakeSender{})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	assert.Equal(t, 120, m.viewport.Width)
	assert.Equal(t, 40-chromeHeight, m.viewport.Height)
}
