package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"seeker-ai/internal/domain"
)

// Asker answers one question end to end. Satisfied by usecase.Pipeline.
type Asker interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

// ModelDeps are dependencies injected into the chat model.
type ModelDeps struct {
	Asker       Asker
	Logger      *slog.Logger
	PlannerName string
	WriterName  string
}

// answerMsg delivers a finished answer to the update loop.
type answerMsg struct {
	gen      uint64
	answer   *domain.Answer
	duration time.Duration
}

// errMsg delivers a pipeline failure to the update loop.
type errMsg struct {
	gen uint64
	err error
}

// Model is the root Bubble Tea model for the interactive chat session.
type Model struct {
	deps ModelDeps

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	history  []string // rendered question/answer blocks
	waiting  bool
	width    int
	height   int
	ready    bool
	quitting bool

	// Request lifecycle: gen increments on every submit, stale results
	// carrying an older gen are discarded.
	gen      uint64
	cancelFn context.CancelFunc

	renderer *glamour.TermRenderer
}

// New creates the chat model.
func New(deps ModelDeps) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	input := textinput.New()
	input.Placeholder = "Ask a question..."
	input.PromptStyle = promptStyle
	input.Prompt = "> "
	input.Focus()

	return Model{deps: deps, spinner: s, input: input}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.cancelFn != nil {
				m.cancelFn()
			}
			m.quitting = true
			return m, tea.Quit
		case "esc":
			if m.waiting {
				m.cancelFn()
				m.waiting = false
				m.appendBlock(statusStyle.Render("Request cancelled."))
			}
			return m, nil
		case "enter":
			return m.handleSubmit()
		}

	case answerMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.waiting = false
		m.appendBlock(m.renderAnswer(msg.answer) +
			"\n" + statusStyle.Render(fmt.Sprintf("%d sources, %s",
			len(msg.answer.Sources), msg.duration.Round(time.Millisecond))))
		return m, nil

	case errMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.waiting = false
		// Cancellation arrives wrapped in stage context; the user already
		// saw "Request cancelled." from the esc handler.
		if !errors.Is(msg.err, context.Canceled) {
			m.appendBlock(errorStyle.Render("Error: " + msg.err.Error()))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.waiting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return "  Initializing..."
	}

	header := titleStyle.Render("seeker") + " " +
		statusStyle.Render(m.deps.PlannerName+" / "+m.deps.WriterName)

	footer := m.input.View()
	if m.waiting {
		footer = m.spinner.View() + " " + statusStyle.Render("Researching... (esc to cancel)")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		footer,
		statusStyle.Render("enter send · esc cancel · ctrl+c quit"),
	)
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	if question == "" || m.waiting {
		return *m, nil
	}

	m.gen++
	m.waiting = true
	m.input.Reset()
	m.appendBlock(questionStyle.Render("You: " + question))

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFn = cancel

	return *m, tea.Batch(m.spinner.Tick, m.askCmd(ctx, m.gen, question))
}

// askCmd runs the pipeline off the update loop and reports back by message.
func (m Model) askCmd(ctx context.Context, gen uint64, question string) tea.Cmd {
	asker := m.deps.Asker
	return func() tea.Msg {
		started := time.Now()
		answer, err := asker.Ask(ctx, question)
		if err != nil {
			return errMsg{gen: gen, err: err}
		}
		return answerMsg{gen: gen, answer: answer, duration: time.Since(started)}
	}
}

func (m *Model) layout() {
	headerH, footerH := 1, 2
	m.viewport = viewport.New(m.width, m.height-headerH-footerH-1)
	m.input.Width = m.width - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.ready = true
	m.refresh()
}

func (m *Model) appendBlock(block string) {
	m.history = append(m.history, block)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.history, "\n"))
	m.viewport.GotoBottom()
}

// renderAnswer pretty-prints the Markdown; on renderer failure the raw
// Markdown is still readable.
func (m Model) renderAnswer(answer *domain.Answer) string {
	if m.renderer == nil {
		return answer.Markdown
	}
	out, err := m.renderer.Render(answer.Markdown)
	if err != nil {
		if m.deps.Logger != nil {
			m.deps.Logger.Warn("markdown render failed", "error", err)
		}
		return answer.Markdown
	}
	return strings.TrimSpace(out)
}

// Run starts the interactive session and blocks until the user quits.
func Run(deps ModelDeps) error {
	p := tea.NewProgram(New(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
