package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Asker sends one question to the query service.
type Asker interface {
	Ask(ctx context.Context, query string) (string, error)
}

type replyMsg struct {
	answer string
	err    error
}

// Model is the Bubble Tea model for the chat screen. The transcript lives
// only in memory.
type Model struct {
	client   Asker
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	messages []Message
	notice   string
	pending  bool
	ready    bool
}

func NewModel(client Asker, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return Model{
		client:   client,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
}

// Messages returns the transcript.
func (m Model) Messages() []Message { return m.messages }

// Notice is the inline error of the last turn, if any.
func (m Model) Notice() string { return m.notice }

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := boxStyle.GetFrameSize()
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-fh*2-4)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case replyMsg:
		m.pending = false
		if msg.err != nil {
			m.notice = Describe(msg.err)
		} else {
			m.messages = append(m.messages, Message{Role: RoleAssistant, Content: msg.answer})
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit shows the user message right away and asks the service in the
// background. Input is ignored while a turn is in flight.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.input.Reset()
	m.messages = append(m.messages, Message{Role: RoleUser, Content: text})
	m.notice = ""
	m.pending = true
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, m.ask(text))
}

func (m Model) ask(text string) tea.Cmd {
	client, timeout := m.client, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		answer, err := client.Ask(ctx, text)
		return replyMsg{answer: answer, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Chat with your PDFs")
	status := helpStyle.Render("enter send • ctrl+c quit")
	if m.pending {
		status = m.spinner.View() + " Thinking..."
	}
	return header + "\n" +
		boxStyle.Render(m.viewport.View()) + "\n" +
		boxStyle.Render(m.input.View()) + "\n" +
		status
}

func (m Model) renderTranscript() string {
	if len(m.messages) == 0 && m.notice == "" {
		return helpStyle.Render("No messages yet.")
	}
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case RoleUser:
			b.WriteString(userStyle.Render("You: "))
		default:
			b.WriteString(assistantStyle.Render("Assistant: "))
		}
		b.WriteString(msg.Content)
	}
	if m.notice != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(errorStyle.Render(m.notice))
	}
	return b.String()
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
