package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studyloop/internal/profile"
	"github.com/abhisek/studyloop/internal/session"
)

// ModeItem is one entry of the mode menu.
type ModeItem struct {
	Mode        profile.Mode
	Label       string
	Description string
	Disabled    bool
}

// DefaultModes lists the session modes in menu order.
func DefaultModes() []ModeItem {
	return []ModeItem{
		{Mode: profile.ModeStudy, Label: "Study", Description: "new questions on your weakest topics"},
		{Mode: profile.ModeReview, Label: "Review", Description: "answer missed questions out loud"},
	}
}

// PickMode asks the learner to choose a session mode. Disabled items are
// shown but cannot be chosen.
func (p *Prompter) PickMode(ctx context.Context, items []ModeItem) (profile.Mode, error) {
	if !hasEnabled(items) {
		return "", errors.New("no session mode available")
	}
	if p.interactive {
		return p.pickInteractive(ctx, items)
	}

	for i, it := range items {
		line := fmt.Sprintf("  %d) %s: %s", i+1, it.Label, it.Description)
		if it.Disabled {
			line += " (unavailable)"
		}
		fmt.Fprintln(p.out, line)
	}
	for {
		text, err := p.ask(ctx, "Choose a mode: ", "")
		if err != nil {
			return "", err
		}
		if mode, ok := matchMode(items, text); ok {
			return mode, nil
		}
		fmt.Fprintf(p.out, "Please enter 1-%d or a mode name (%s to quit).\n", len(items), StopCommand)
	}
}

func hasEnabled(items []ModeItem) bool {
	for _, it := range items {
		if !it.Disabled {
			return true
		}
	}
	return false
}

// matchMode accepts a 1-based index, a mode name or a label prefix.
func matchMode(items []ModeItem, text string) (profile.Mode, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return "", false
	}
	for i, it := range items {
		if it.Disabled {
			continue
		}
		if text == fmt.Sprint(i+1) || text == string(it.Mode) || strings.HasPrefix(strings.ToLower(it.Label), text) {
			return it.Mode, true
		}
	}
	return "", false
}

func (p *Prompter) pickInteractive(ctx context.Context, items []ModeItem) (profile.Mode, error) {
	prog := tea.NewProgram(newModeMenu(items),
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
		return "", fmt.Errorf("pick mode: %w", err)
	}
	m, ok := final.(modeMenu)
	if !ok || !m.chosen {
		return "", session.ErrStop
	}
	return m.items[m.selected].Mode, nil
}

// modeMenu is a vertical menu of session modes.
type modeMenu struct {
	items    []ModeItem
	selected int
	chosen   bool
	quit     bool
}

func newModeMenu(items []ModeItem) modeMenu {
	selected := 0
	for i, it := range items {
		if !it.Disabled {
			selected = i
			break
		}
	}
	return modeMenu{items: items, selected: selected}
}

func (m modeMenu) Init() tea.Cmd {
	return nil
}

func (m modeMenu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "ctrl+c", "esc", "q":
		m.quit = true
		return m, tea.Quit
	case "up", "k":
		for i := m.selected - 1; i >= 0; i-- {
			if !m.items[i].Disabled {
				m.selected = i
				break
			}
		}
	case "down", "j":
		for i := m.selected + 1; i < len(m.items); i++ {
			if !m.items[i].Disabled {
				m.selected = i
				break
			}
		}
	case "enter":
		if !m.items[m.selected].Disabled {
			m.chosen = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m modeMenu) View() tea.View {
	return tea.NewView(m.render())
}

func (m modeMenu) render() string {
	if m.chosen {
		return hintStyle.Render("Mode: ") + selectedStyle.Render(m.items[m.selected].Label) + "\n"
	}
	if m.quit {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("What would you like to do?"))
	b.WriteString("\n\n")
	for i, it := range m.items {
		line := it.Label + "  " + hintStyle.Render(it.Description)
		switch {
		case it.Disabled:
			b.WriteString(hintStyle.Render("    " + it.Label + "  (unavailable)"))
		case i == m.selected:
			b.WriteString(selectedStyle.Render("  ▸ ") + selectedStyle.Render(it.Label) + "  " + hintStyle.Render(it.Description))
		default:
			b.WriteString(unselectedStyle.Render("    " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("↑↓ navigate · Enter select · Esc quit"))
	b.WriteString("\n")
	return b.String()
}
