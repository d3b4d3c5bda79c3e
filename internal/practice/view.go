package practice

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sentcraft/internal/ui/layout"
	"github.com/abhisek/sentcraft/internal/ui/theme"
)

const blank = "____"

func (m Model) View() tea.View {
	v := tea.NewView(m.content())
	v.AltScreen = true
	return v
}

// content frames the body once the terminal size is known. Before the first
// WindowSizeMsg it renders unframed.
func (m Model) content() string {
	if m.width == 0 || m.height == 0 {
		return m.render()
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}
	header := layout.RenderHeader(m.title(), m.status(), m.width)
	footer := layout.RenderFooter(m.help.View(m.keys), m.width)
	return layout.RenderFrame(header, m.body(), footer, m.width, m.height)
}

func (m Model) render() string {
	if m.done {
		return m.body()
	}
	return theme.Header.Render(theme.Title.Render(m.title())+"  "+theme.Subtitle.Render(m.status())) +
		"\n\n" + m.body() + "\n\n" + m.help.View(m.keys)
}

func (m Model) title() string {
	if m.done {
		return "Finished"
	}
	return fmt.Sprintf("Item %d/%d", m.idx+1, len(m.items))
}

func (m Model) status() string {
	return fmt.Sprintf("%d correct", m.summary.Correct)
}

func (m Model) body() string {
	if m.done {
		return m.renderSummary()
	}

	var b strings.Builder
	r := m.current()
	if r.Prompt != "" {
		b.WriteString(theme.Body.Render(r.Prompt))
		b.WriteString("\n\n")
	}
	b.WriteString(theme.Card.Render(m.renderSentence()))
	b.WriteString("\n\n")
	b.WriteString(m.renderTiles())
	if m.result != nil {
		b.WriteString("\n\n")
		b.WriteString(m.renderFeedback())
	}
	return b.String()
}

// renderSentence lays out the placed chunks and open slots with the given
// chunk at its fixed index.
func (m Model) renderSentence() string {
	r := m.current()
	parts := make([]string, 0, len(r.AnswerOrder)+1)
	for i := range r.AnswerOrder {
		if i < len(m.picked) {
			parts = append(parts, theme.Placed.Render(m.tiles[m.picked[i]].text))
		} else {
			parts = append(parts, theme.Blank.Render(blank))
		}
	}
	if r.Given != nil {
		at := min(max(r.GivenIndex, 0), len(parts))
		parts = append(parts[:at], append([]string{theme.Given.Render(*r.Given)}, parts[at:]...)...)
	}
	return strings.Join(parts, " ") + r.ResponseSuffix
}

func (m Model) renderTiles() string {
	cells := make([]string, len(m.tiles))
	for i, t := range m.tiles {
		style := theme.Tile
		switch {
		case t.used:
			style = theme.TileUsed
		case i == m.cursor && m.result == nil:
			style = theme.TileFocused
		}
		cells[i] = style.Render(t.text)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m Model) renderFeedback() string {
	res := m.result
	if res.IsCorrect {
		return theme.Correct.Render("✓ Correct")
	}
	lines := []string{
		theme.Incorrect.Render("✗ Not quite"),
		theme.Body.Render("Answer: " + res.Expected),
	}
	if res.UsedDistractor {
		if d := m.current().Distractor; d != nil {
			lines = append(lines, theme.Warning.Render(fmt.Sprintf("%q does not belong in this sentence.", *d)))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSummary() string {
	if len(m.items) == 0 {
		return theme.Hint.Render("No items to practice.")
	}
	return theme.Title.Render("Finished") + "\n\n" +
		theme.Body.Render(fmt.Sprintf("%d of %d correct", m.summary.Correct, m.summary.Answered)) + "\n\n" +
		theme.Hint.Render("Press any key to exit.")
}
