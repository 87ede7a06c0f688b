package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatbot/internal/conversation"
	"chatbot/internal/domain"
	"chatbot/internal/tokens"
)

const (
	errorText    = "Sorry, I encountered an error. Please try again."
	sidebarWidth = 32
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	Ask(ctx context.Context, conv *conversation.Conversation, prompt string) (string, error)
}

// Options configures the static parts of the UI.
type Options struct {
	Model       string
	About       string
	TypingDelay time.Duration
	Counter     tokens.Counter
	// RequestTimeout bounds a single completion call; 0 means no bound.
	RequestTimeout time.Duration
}

type replyMsg struct {
	reply string
	err   error
}

type typeTickMsg struct{}

// Model is the Bubble Tea model for the chat application.
// It owns the conversation: only Update and the in-flight ask command touch it,
// never at the same time. View renders the history snapshot.
type Model struct {
	chat     ChatPort
	conv     *conversation.Conversation
	opts     Options
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	history []domain.Message
	pending string
	waiting bool
	frames  []string
	frame   int
	failed  bool
	status  string
	tokens  int
	ready   bool
}

// New creates a new chat model around conv.
func New(chat ChatPort, conv *conversation.Conversation, opts Options) Model {
	if opts.Counter == nil {
		opts.Counter = tokens.WordCounter{}
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What would you like to know about our company?"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := Model{
		chat:     chat,
		conv:     conv,
		opts:     opts,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Ready. Ctrl+R clears the chat, Ctrl+C quits.",
	}
	m.syncHistory()
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, reply and animation events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header, status, input box, input line
		m.viewport.Width = max(20, msg.Width-sidebarWidth-4)
		m.viewport.Height = max(3, msg.Height-reserved-ch)
		m.input.Width = max(10, msg.Width-sidebarWidth-8)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlR:
			if m.waiting {
				m.status = "Please wait for the current reply."
				return m, nil
			}
			m.conv.Reset()
			m.frames, m.failed = nil, false
			m.syncHistory()
			m.status = "Chat history cleared."
			m.refresh()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			if m.typing() {
				m.frame = len(m.frames) - 1
				m.refresh()
				return m, nil
			}
			prompt := strings.TrimSpace(m.input.Value())
			if prompt == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.pending = prompt
			m.waiting = true
			m.failed = false
			m.status = "Thinking..."
			m.refresh()
			return m, tea.Batch(m.ask(prompt), m.spinner.Tick)
		}

	case replyMsg:
		m.waiting = false
		m.pending = ""
		if msg.err != nil {
			m.failed = true
			m.status = "Error: " + msg.err.Error()
			m.refresh()
			return m, nil
		}
		m.syncHistory()
		m.status = fmt.Sprintf("Replied with %s.", m.opts.Model)
		if m.opts.TypingDelay > 0 {
			m.frames = Frames(msg.reply)
			m.frame = 0
			m.refresh()
			return m, m.tick()
		}
		m.refresh()
		return m, nil

	case typeTickMsg:
		if !m.typing() {
			return m, nil
		}
		m.frame++
		m.refresh()
		if m.typing() {
			return m, m.tick()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(prompt string) tea.Cmd {
	chat, conv, timeout := m.chat, m.conv, m.opts.RequestTimeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		reply, err := chat.Ask(ctx, conv, prompt)
		return replyMsg{reply: reply, err: err}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.TypingDelay, func(time.Time) tea.Msg { return typeTickMsg{} })
}

// typing reports whether a reply is still being revealed.
func (m Model) typing() bool {
	return len(m.frames) > 0 && m.frame < len(m.frames)-1
}

func (m *Model) syncHistory() {
	m.history = m.conv.Visible()
	m.tokens = tokens.CountMessages(m.opts.Counter, m.conv.Messages())
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

// View renders the chat, the input box and the settings sidebar.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Company Chatbot 🤖") + "\n" + captionStyle.Render("Ask me anything about our company!")
	status := statusStyle.Render(m.status)
	if m.waiting {
		status = m.spinner.View() + " " + status
	}
	main := lipgloss.JoinVertical(lipgloss.Left,
		header,
		chatBoxStyle.Render(m.viewport.View()),
		inputBoxStyle.Render(m.input.View()),
		status,
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, main, m.renderSidebar())
}

func (m Model) renderMessages() string {
	width := max(10, m.viewport.Width-2)
	var blocks []string
	for i, msg := range m.history {
		content := msg.Content
		if msg.Role == domain.RoleAssistant && i == len(m.history)-1 && m.typing() {
			content = m.frames[m.frame] + Cursor
		}
		blocks = append(blocks, renderMessage(msg.Role, content, width))
	}
	if m.pending != "" {
		blocks = append(blocks, renderMessage(domain.RoleUser, m.pending, width))
	}
	if m.failed {
		blocks = append(blocks, errorStyle.Width(width).Render(errorText))
	}
	if len(blocks) == 0 {
		return captionStyle.Render("No messages yet.")
	}
	return strings.Join(blocks, "\n\n")
}

func renderMessage(role domain.Role, content string, width int) string {
	label := userLabelStyle.Render("You")
	if role == domain.RoleAssistant {
		label = assistantLabelStyle.Render("Assistant")
	}
	return label + "\n" + lipgloss.NewStyle().Width(width).Render(content)
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Current model: %s\n", m.opts.Model))
	b.WriteString(fmt.Sprintf("Context tokens: ~%d\n", m.tokens))
	b.WriteString("Clear chat: Ctrl+R\n\n")
	b.WriteString(titleStyle.Render("About"))
	b.WriteString("\n")
	about := "This chatbot uses a hosted language model to provide information about our company."
	if m.opts.About != "" {
		about += "\n\n" + m.opts.About
	}
	b.WriteString(about)
	return sidebarStyle.Width(sidebarWidth).Render(b.String())
}

var (
	titleStyle          = lipgloss.NewStyle().Bold(true)
	captionStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	userLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	chatBoxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sidebarStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MarginLeft(1)
)
