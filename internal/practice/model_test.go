package practice

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sentcraft/internal/item"
)

func notesItem() item.RuntimeItem {
	return item.RuntimeItem{
		ID:             "p1",
		Prompt:         "Ask your classmate about the notes.",
		Answer:         "Did you get the notes?",
		AnswerOrder:    []string{"you get", "the notes"},
		Bank:           []string{"the notes", "you get"},
		Given:          item.StringPtr("did"),
		GivenIndex:     0,
		ResponseSuffix: "?",
		Distractor:     item.StringPtr("got"),
	}
}

func cafeItem() item.RuntimeItem {
	return item.RuntimeItem{
		ID:             "p2",
		Answer:         "The cafe opens at nine.",
		AnswerOrder:    []string{"the cafe", "opens", "at nine"},
		Bank:           []string{"opens", "at nine", "the cafe"},
		ResponseSuffix: ".",
	}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// place moves the cursor onto the tile with text and presses enter.
func place(t *testing.T, m Model, text string) Model {
	t.Helper()
	for range len(m.tiles) {
		if m.tiles[m.cursor].text == text && !m.tiles[m.cursor].used {
			m, _ = send(t, m, specialKey(tea.KeyEnter))
			return m
		}
		m, _ = send(t, m, specialKey(tea.KeyRight))
	}
	t.Fatalf("tile %q not reachable", text)
	return m
}

func tileTexts(m Model) []string {
	out := make([]string, len(m.tiles))
	for i, tl := range m.tiles {
		out[i] = tl.text
	}
	return out
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNew_DealsBankAndDistractor(t *testing.T) {
	m := New([]item.RuntimeItem{notesItem()}, WithSeed(1))

	assert.ElementsMatch(t, []string{"the notes", "you get", "got"}, tileTexts(m))
	assert.False(t, m.Done())
	assert.Nil(t, m.result)
}

func TestNew_SeedFixesShuffle(t *testing.T) {
	a := New([]item.RuntimeItem{cafeItem()}, WithSeed(42))
	b := New([]item.RuntimeItem{cafeItem()}, WithSeed(42))
	assert.Equal(t, tileTexts(a), tileTexts(b))
}

func TestCorrectAnswerScores(t *testing.T) {
	m := New([]item.RuntimeItem{notesItem(), cafeItem()}, WithSeed(7))

	m = place(t, m, "you get")
	require.Nil(t, m.result, "should wait for every slot")
	m = place(t, m, "the notes")

	require.NotNil(t, m.result)
	assert.True(t, m.result.IsCorrect)
	assert.Equal(t, 1, m.Summary().Answered)
	assert.Equal(t, 1, m.Summary().Correct)
	assert.Contains(t, m.render(), "Correct")

	m, _ = send(t, m, specialKey(tea.KeyEnter))
	assert.Equal(t, 1, m.idx)
	assert.Nil(t, m.result)
	assert.ElementsMatch(t, []string{"opens", "at nine", "the cafe"}, tileTexts(m))
}

func TestDistractorIsWrong(t *testing.T) {
	m := New([]item.RuntimeItem{notesItem()}, WithSeed(3))

	m = place(t, m, "got")
	m = place(t, m, "the notes")

	require.NotNil(t, m.result)
	assert.False(t, m.result.IsCorrect)
	assert.True(t, m.result.UsedDistractor)
	assert.Equal(t, 0, m.Summary().Correct)
	assert.Contains(t, m.render(), "does not belong")
}

func TestWrongOrderShowsAnswer(t *testing.T) {
	m := New([]item.RuntimeItem{cafeItem()}, WithSeed(5))

	m = place(t, m, "opens")
	m = place(t, m, "the cafe")
	m = place(t, m, "at nine")

	require.NotNil(t, m.result)
	assert.False(t, m.result.IsCorrect)
	assert.Equal(t, 0, m.result.FirstMismatch)
	assert.Contains(t, m.render(), "the cafe opens at nine")
}

func TestUndoAndReset(t *testing.T) {
	m := New([]item.RuntimeItem{cafeItem()}, WithSeed(9))

	m = place(t, m, "the cafe")
	m = place(t, m, "opens")
	require.Len(t, m.picked, 2)

	m, _ = send(t, m, specialKey(tea.KeyBackspace))
	require.Len(t, m.picked, 1)
	assert.Equal(t, "opens", m.tiles[m.cursor].text)
	assert.False(t, m.tiles[m.cursor].used)

	m, _ = send(t, m, keyPress('r'))
	assert.Empty(t, m.picked)
	for _, tl := range m.tiles {
		assert.False(t, tl.used)
	}

	// Undo with nothing placed is a no-op.
	m, _ = send(t, m, specialKey(tea.KeyBackspace))
	assert.Empty(t, m.picked)
}

func TestRenderSentenceKeepsGivenInPlace(t *testing.T) {
	m := New([]item.RuntimeItem{notesItem()}, WithSeed(11))

	s := m.renderSentence()
	assert.Equal(t, 2, strings.Count(s, blank))
	assert.Contains(t, s, "did")

	m = place(t, m, "you get")
	s = m.renderSentence()
	assert.Equal(t, 1, strings.Count(s, blank))
	assert.Contains(t, s, "you get")
}

func TestFinishAndQuit(t *testing.T) {
	m := New([]item.RuntimeItem{cafeItem()}, WithSeed(2))

	m = place(t, m, "the cafe")
	m = place(t, m, "opens")
	m = place(t, m, "at nine")
	m, cmd := send(t, m, specialKey(tea.KeyEnter))
	assert.Nil(t, cmd)
	require.True(t, m.Done())
	assert.Contains(t, m.render(), "1 of 1 correct")

	_, cmd = send(t, m, keyPress('x'))
	assert.True(t, isQuit(cmd))
}

func TestQuitKey(t *testing.T) {
	m := New([]item.RuntimeItem{cafeItem()}, WithSeed(2))
	_, cmd := send(t, m, keyPress('q'))
	assert.True(t, isQuit(cmd))
}

func TestNoItems(t *testing.T) {
	m := New(nil)
	assert.True(t, m.Done())
	assert.Contains(t, m.render(), "No items")
}

func TestViewTooSmall(t *testing.T) {
	m := New([]item.RuntimeItem{cafeItem()}, WithSeed(2))
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 20, Height: 5})
	assert.Contains(t, m.content(), "too small")
}
