package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/script-bridge/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// maxEntries bounds the transcript shown on screen.
const maxEntries = 50

// syncBuffer collects console output written while a line is evaluated.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) drain() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}

type entry struct {
	err    error
	input  string
	output string
	result string
}

type replModel struct {
	ctx     context.Context
	cancel  context.CancelFunc
	rt      *runtime.Runtime
	console *syncBuffer
	input   textinput.Model
	entries []entry
	history []string
	histIdx int
	busy    bool
}

type evalMsg struct {
	entry entry
}

func newReplModel(ctx context.Context, rt *runtime.Runtime, console *syncBuffer) *replModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("> ")
	ti.Placeholder = "app.createDocument('untitled')"
	ti.Width = 80
	ti.Focus()
	return &replModel{
		ctx:     ctx,
		rt:      rt,
		console: console,
		input:   ti,
	}
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *replModel) eval(line string) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	return func() tea.Msg {
		defer cancel()
		e := entry{input: line}
		v, err := m.rt.RunString(ctx, line)
		e.output = m.console.drain()
		if err != nil {
			e.err = err
		} else {
			e.result = m.rt.Format(v)
		}
		return evalMsg{entry: e}
	}
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.busy && m.cancel != nil {
				// interrupt the running line first
				m.cancel()
				return m, nil
			}
			return m, tea.Quit

		case "ctrl+d":
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.busy {
				return m, nil
			}
			m.history = append(m.history, line)
			m.histIdx = len(m.history)
			m.input.SetValue("")
			m.busy = true
			return m, m.eval(line)

		case "up":
			if m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil

		case "esc":
			m.input.SetValue("")
			return m, nil
		}

	case evalMsg:
		m.busy = false
		m.cancel = nil
		m.entries = append(m.entries, msg.entry)
		if n := len(m.entries); n > maxEntries {
			m.entries = m.entries[n-maxEntries:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *replModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Script Bridge"))
	b.WriteString(" globals: app, console")
	if m.rt.Wasm() != nil {
		b.WriteString(", wasm")
	}
	b.WriteString("\n\n")

	for _, e := range m.entries {
		b.WriteString(promptStyle.Render("> "))
		b.WriteString(e.input)
		b.WriteString("\n")
		if e.output != "" {
			b.WriteString(outputStyle.Render(strings.TrimRight(e.output, "\n")))
			b.WriteString("\n")
		}
		if e.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", e.err)))
		} else {
			b.WriteString(resultStyle.Render(e.result))
		}
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString(helpStyle.Render("running... ctrl+c interrupt"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter run • ↑/↓ history • esc clear • ctrl+d quit"))
	return b.String()
}

func runInteractive(ctx context.Context, rt *runtime.Runtime, console *syncBuffer) error {
	p := tea.NewProgram(newReplModel(ctx, rt, console), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
