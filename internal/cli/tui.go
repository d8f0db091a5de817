package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
)

// Play styles
var (
	playTextStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Foreground(colorWhite).
			Padding(0, 1).
			Width(60)
	playSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	playNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	playDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	playErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// PlayModel - Interactive dialogue playback
// =============================================================================

// PlayModel is the bubbletea model for the play command. It drives a walker
// that has already begun.
type PlayModel struct {
	Title  string
	Walker *dialogue.Walker
	Cursor int
	Err    error
}

// NewPlayModel creates a play model for a started walker.
func NewPlayModel(title string, w *dialogue.Walker) PlayModel {
	return PlayModel{Title: title, Walker: w}
}

func (m PlayModel) Init() tea.Cmd {
	return nil
}

func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	options := m.Walker.Current().Options()
	switch s := key.String(); s {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "r":
		_, m.Err = m.Walker.Begin()
		m.Cursor = 0
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(options)-1 {
			m.Cursor++
		}
	case "enter", " ":
		if m.Walker.Ended() {
			return m, tea.Quit
		}
		return m.choose(m.Cursor), nil
	default:
		if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			return m.choose(int(s[0] - '1')), nil
		}
	}
	return m, nil
}

// choose selects option i. Invalid choices leave the dialogue where it is
// and surface the error in the view.
func (m PlayModel) choose(i int) PlayModel {
	_, m.Err = m.Walker.SelectOption(i)
	if m.Err == nil {
		m.Cursor = 0
	}
	return m
}

func (m PlayModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n\n")

	st := m.Walker.Current()
	if st.Ended {
		b.WriteString(playDimStyle.Render("The End."))
		b.WriteString("\n\n")
		b.WriteString(playDimStyle.Render(fmt.Sprintf("%d nodes visited", len(m.Walker.History()))))
		b.WriteString("\n")
		b.WriteString(playDimStyle.Render("r restart  ⏎/q quit"))
		b.WriteString("\n")
		return b.String()
	}

	text := st.Text()
	if text == "" {
		text = playDimStyle.Render("…")
	}
	b.WriteString(playTextStyle.Render(text))
	b.WriteString("\n\n")

	for i, opt := range st.Options() {
		line := fmt.Sprintf("%d. %s", i+1, opt)
		if i == m.Cursor {
			b.WriteString(playSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(playNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(playErrorStyle.Render(m.Err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(playDimStyle.Render("↑/↓ navigate  ⏎ choose  1-9 quick pick  r restart  q quit"))
	b.WriteString("\n")
	return b.String()
}
