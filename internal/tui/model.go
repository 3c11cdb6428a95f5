package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/supreme-chatbot/internal/model/chat"
	"github.com/zhouzirui/supreme-chatbot/internal/model/persona"
	chatService "github.com/zhouzirui/supreme-chatbot/internal/service/chat"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// header box, status line, error line, input and help
	chromeHeight = 9
)

// deliveredMsg is sent when a background Deliver returns.
type deliveredMsg struct {
	outcome chatService.Outcome
}

// Model renders one conversation in the terminal.
type Model struct {
	ctx     context.Context
	conv    *chatService.Conversation
	persona persona.Persona

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	snapshot chat.Snapshot
	width    int
	height   int
}

// New creates a terminal widget bound to conv. ctx is handed to every delivery.
func New(ctx context.Context, conv *chatService.Conversation, p persona.Persona) Model {
	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.Prompt = "> "
	input.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:      ctx,
		conv:     conv,
		persona:  p,
		input:    input,
		viewport: viewport.New(defaultWidth, defaultHeight-chromeHeight),
		spinner:  sp,
		width:    defaultWidth,
		height:   defaultHeight,
	}
	m.refresh()
	return m
}

// Snapshot returns the state last rendered.
func (m Model) Snapshot() chat.Snapshot {
	return m.snapshot
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case deliveredMsg:
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.snapshot.Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyCtrlG:
			m.conv.TriggerExercise()
			m.refresh()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.conv.Draft() {
		m.conv.SetDraft(m.input.Value())
	}
	return m, cmd
}

// submit starts a delivery unless one is already in flight.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.snapshot.Busy {
		return m, nil
	}

	turn, outcome := m.conv.Begin()
	if outcome != chatService.OutcomePending {
		return m, nil
	}
	m.input.SetValue("")
	m.refresh()

	ctx, conv := m.ctx, m.conv
	deliver := func() tea.Msg {
		return deliveredMsg{outcome: conv.Deliver(ctx, turn)}
	}
	return m, tea.Batch(m.spinner.Tick, deliver)
}

func (m *Model) refresh() {
	m.snapshot = m.conv.Snapshot()
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	width := max(m.viewport.Width-2, 10)
	bot := botStyle.Width(width)
	user := userStyle.Width(width)

	lines := make([]string, 0, len(m.snapshot.Messages))
	for _, msg := range m.snapshot.Messages {
		if msg.IsBot {
			lines = append(lines, bot.Render(msg.Text))
		} else {
			lines = append(lines, user.Render(msg.Text))
		}
	}
	return strings.Join(lines, "\n\n")
}

func (m Model) View() string {
	header := headerStyle.Width(max(m.width-2, 10)).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.persona.Name),
		taglineStyle.Render(m.persona.Tagline),
		hotlineStyle.Render(m.persona.HotlineLabel),
	))

	status := ""
	if m.snapshot.Busy {
		status = m.spinner.View() + typingStyle.Render(" Typing...")
	}

	errLine := ""
	if m.snapshot.LastError != "" {
		errLine = errorStyle.Render(m.snapshot.LastError)
	}

	help := helpStyle.Render("enter send • ctrl+g try a calming exercise • pgup/pgdn scroll • esc quit")
	if m.snapshot.Busy {
		help = helpStyle.Render("waiting for reply • ctrl+g try a calming exercise • esc quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		status,
		errLine,
		m.input.View(),
		help,
	)
}
