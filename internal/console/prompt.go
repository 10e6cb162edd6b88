package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/mattn/go-isatty"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/session"
)

// StopCommand typed as an answer ends the session.
const StopCommand = ":q"

// Prompter reads answers from the learner. On a terminal it shows an
// inline text input; otherwise it reads one line per answer.
type Prompter struct {
	in          io.Reader
	out         io.Writer
	interactive bool

	once  sync.Once
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

// NewPrompter creates a Prompter. The interactive input is used only when
// both in and out are terminals.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:          in,
		out:         out,
		interactive: isTerminal(in) && isTerminal(out),
	}
}

func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Interactive reports whether the terminal input is in use.
func (p *Prompter) Interactive() bool { return p.interactive }

// ReadAnswer implements session.AnswerSource. Esc, Ctrl+C, end of input and
// the stop command return session.ErrStop.
func (p *Prompter) ReadAnswer(ctx context.Context, q bank.QuestionRecord) (string, error) {
	placeholder := "type your answer"
	if q.Type == bank.TypeMultipleChoice {
		placeholder = "pick " + strings.Join(q.ChoiceKeys(), "/")
	}
	return p.ask(ctx, "› ", placeholder)
}

// WaitForEnter shows label and blocks until the learner presses Enter.
func (p *Prompter) WaitForEnter(ctx context.Context, label string) error {
	_, err := p.ask(ctx, label, "")
	return err
}

func (p *Prompter) ask(ctx context.Context, label, placeholder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	if p.interactive {
		text, err = p.askInteractive(ctx, label, placeholder)
	} else {
		text, err = p.askLine(ctx, label)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == StopCommand {
		return "", session.ErrStop
	}
	return text, nil
}

func (p *Prompter) askLine(ctx context.Context, label string) (string, error) {
	p.once.Do(func() {
		p.lines = make(chan lineResult)
		go p.scan()
	})

	fmt.Fprint(p.out, label)
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case r, ok := <-p.lines:
		if !ok || errors.Is(r.err, io.EOF) {
			fmt.Fprintln(p.out)
			return "", session.ErrStop
		}
		if r.err != nil {
			return "", fmt.Errorf("read answer: %w", r.err)
		}
		return r.text, nil
	}
}

// scan feeds lines from the input until it ends. It runs for the lifetime
// of the Prompter, since a blocked read cannot be interrupted.
func (p *Prompter) scan() {
	defer close(p.lines)
	sc := bufio.NewScanner(p.in)
	for sc.Scan() {
		p.lines <- lineResult{text: sc.Text()}
	}
	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	p.lines <- lineResult{err: err}
}

func (p *Prompter) askInteractive(ctx context.Context, label, placeholder string) (string, error) {
	prog := tea.NewProgram(newAnswerModel(label, placeholder),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, tea.ErrInterrupted) {
			return "", session.ErrStop
		}
		return "", fmt.Errorf("read answer: %w", err)
	}

	m, ok := final.(answerModel)
	if !ok || m.stopped {
		return "", session.ErrStop
	}
	return m.input.Value(), nil
}

// answerModel is a single-line inline input.
type answerModel struct {
	label     string
	input     textinput.Model
	submitted bool
	stopped   bool
}

func newAnswerModel(label, placeholder string) answerModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 500
	ti.Focus()
	return answerModel{label: label, input: ti}
}

func (m answerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m answerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "ctrl+c", "esc":
			m.stopped = true
			return m, tea.Quit
		case "enter":
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m answerModel) View() tea.View {
	if m.submitted || m.stopped {
		return tea.NewView(selectedStyle.Render(m.label) + bodyStyle.Render(m.input.Value()) + "\n")
	}
	return tea.NewView(selectedStyle.Render(m.label) + m.input.View())
}
