package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chatbot/internal/conversation"
	"chatbot/internal/domain"
)

// fakeChat mirrors the chat service contract: append two messages on success, nothing on failure.
type fakeChat struct {
	reply string
	err   error
	calls int
}

func (f *fakeChat) Ask(_ context.Context, conv *conversation.Conversation, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	_ = conv.Append(domain.RoleUser, prompt)
	_ = conv.Append(domain.RoleAssistant, f.reply)
	return f.reply, nil
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

// submit types prompt, presses Enter and runs the resulting ask command.
func submit(t *testing.T, m Model, prompt string) (Model, tea.Msg) {
	t.Helper()
	m.input.SetValue(prompt)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("expected a command after Enter")
	}
	if !m.waiting || m.pending != prompt {
		t.Fatalf("model not waiting for %q", prompt)
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatal("expected batch command")
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if reply, ok := c().(replyMsg); ok {
			return m, reply
		}
	}
	t.Fatal("no reply message produced")
	return m, nil
}

func TestModel_SuccessfulTurnWithTyping(t *testing.T) {
	chat := &fakeChat{reply: "We sell widgets worldwide."}
	conv := conversation.New("sys")
	m := sized(New(chat, conv, Options{Model: "test-model", TypingDelay: time.Millisecond}))

	m, reply := submit(t, m, "What do you sell?")
	next, cmd := m.Update(reply)
	m = next.(Model)
	if cmd == nil {
		t.Fatal("expected typing tick")
	}
	if conv.Len() != 3 {
		t.Fatalf("conversation len=%d, want 3", conv.Len())
	}
	if !m.typing() {
		t.Fatal("reply should be revealed progressively")
	}
	if !strings.Contains(m.renderMessages(), Cursor) {
		t.Error("typing cursor missing")
	}
	for i := 0; i < 10 && m.typing(); i++ {
		next, _ = m.Update(typeTickMsg{})
		m = next.(Model)
	}
	if m.typing() {
		t.Fatal("reveal should finish")
	}
	out := m.renderMessages()
	if strings.Contains(out, Cursor) || !strings.Contains(out, "worldwide.") {
		t.Errorf("final render wrong: %q", out)
	}
}

func TestModel_FailureLeavesHistory(t *testing.T) {
	chat := &fakeChat{err: errors.New("status 500")}
	conv := conversation.New("sys")
	m := sized(New(chat, conv, Options{Model: "test-model"}))

	m, reply := submit(t, m, "Hello?")
	next, _ := m.Update(reply)
	m = next.(Model)
	if conv.Len() != 1 {
		t.Errorf("conversation len=%d, want 1", conv.Len())
	}
	if m.waiting || m.pending != "" {
		t.Error("model should stop waiting")
	}
	if !strings.Contains(m.renderMessages(), errorText) {
		t.Error("error message should be shown")
	}
	if strings.Contains(m.renderMessages(), "Hello?") {
		t.Error("failed prompt should not stay in the message list")
	}
}

func TestModel_NoTypingDelayShowsReplyAtOnce(t *testing.T) {
	chat := &fakeChat{reply: "Open nine to five."}
	conv := conversation.New("sys")
	m := sized(New(chat, conv, Options{}))
	m, reply := submit(t, m, "Hours?")
	next, cmd := m.Update(reply)
	m = next.(Model)
	if cmd != nil || m.typing() {
		t.Error("no animation expected")
	}
	if !strings.Contains(m.renderMessages(), "Open nine to five.") {
		t.Error("reply missing")
	}
}

func TestModel_ResetClearsHistory(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	conv := conversation.New("sys")
	m := sized(New(chat, conv, Options{}))
	m, reply := submit(t, m, "hi")
	next, _ := m.Update(reply)
	m = next.(Model)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = next.(Model)
	if conv.Len() != 1 || len(m.history) != 0 {
		t.Errorf("reset failed: conv=%d history=%d", conv.Len(), len(m.history))
	}
}

func TestModel_ResetBlockedWhileWaiting(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	conv := conversation.New("sys")
	m := sized(New(chat, conv, Options{}))
	m.input.SetValue("hi")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = next.(Model)
	if !m.waiting || m.pending != "hi" {
		t.Error("reset must not interrupt an in-flight request")
	}
}

func TestModel_EmptyPromptIgnored(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	m := sized(New(chat, conversation.New("sys"), Options{}))
	m.input.SetValue("   ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || next.(Model).waiting {
		t.Error("blank prompt should be ignored")
	}
}

func TestModel_ViewShowsSettings(t *testing.T) {
	m := sized(New(&fakeChat{}, conversation.New("HIDDEN-INSTRUCTIONS"), Options{Model: "gpt-x", About: "We build anvils."}))
	view := m.View()
	for _, want := range []string{"Company Chatbot", "Current model: gpt-x", "We build anvils."} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "HIDDEN-INSTRUCTIONS") {
		t.Error("system prompt must not be displayed")
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m := sized(New(&fakeChat{}, conversation.New("sys"), Options{}))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}
