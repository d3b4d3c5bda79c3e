// Package practice is a terminal renderer for runtime items. The learner
// places the displayed chunks into the open slots of the sentence and each
// attempt is scored with response.EvaluateOrder.
package practice

import (
	"context"
	"math/rand/v2"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/response"
)

// Summary is the outcome of a practice run.
type Summary struct {
	Answered int
	Correct  int
	Results  []response.Result
}

type tile struct {
	text       string
	used       bool
	distractor bool
}

// Model is the Bubble Tea model for one pass over a list of items.
type Model struct {
	items []item.RuntimeItem
	idx   int

	tiles  []tile
	cursor int
	picked []int // tile indices in placement order

	result  *response.Result
	summary Summary
	done    bool

	rng    *rand.Rand
	keys   keyMap
	help   help.Model
	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithSeed fixes the chunk shuffle.
func WithSeed(seed uint64) Option {
	return func(m *Model) {
		m.rng = rand.New(rand.NewPCG(seed, seed^0x5bd1e995))
	}
}

// New returns a model positioned on the first item.
func New(items []item.RuntimeItem, opts ...Option) Model {
	m := Model{
		items: items,
		keys:  defaultKeys(),
		help:  help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.rng == nil {
		seed := uint64(time.Now().UnixNano())
		m.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if len(items) == 0 {
		m.done = true
	} else {
		m.load()
	}
	m.keys.answering(!m.done && m.result == nil)
	return m
}

// load deals the current item's bank plus its distractor in random order.
func (m *Model) load() {
	r := m.items[m.idx]
	m.tiles = m.tiles[:0]
	for _, c := range r.Bank {
		m.tiles = append(m.tiles, tile{text: c})
	}
	if r.Distractor != nil && *r.Distractor != "" {
		m.tiles = append(m.tiles, tile{text: *r.Distractor, distractor: true})
	}
	m.rng.Shuffle(len(m.tiles), func(i, j int) {
		m.tiles[i], m.tiles[j] = m.tiles[j], m.tiles[i]
	})
	m.picked = nil
	m.cursor = 0
	m.result = nil
}

// Summary returns the scores so far.
func (m Model) Summary() Summary { return m.summary }

// Done reports whether every item has been answered.
func (m Model) Done() bool { return m.done }

func (m Model) current() item.RuntimeItem { return m.items[m.idx] }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.done {
			return m, tea.Quit
		}
		switch {
		case key.Matches(msg, m.keys.Left):
			m.move(-1)
		case key.Matches(msg, m.keys.Right):
			m.move(1)
		case key.Matches(msg, m.keys.Pick):
			m.pick()
		case key.Matches(msg, m.keys.Undo):
			m.undo()
		case key.Matches(msg, m.keys.Reset):
			for len(m.picked) > 0 {
				m.undo()
			}
		case key.Matches(msg, m.keys.Next):
			m.next()
		}
		m.keys.answering(!m.done && m.result == nil)
	}
	return m, nil
}

// move steps the cursor to the nearest unused tile in direction dir.
func (m *Model) move(dir int) {
	n := len(m.tiles)
	for step := 1; step < n; step++ {
		i := ((m.cursor+dir*step)%n + n) % n
		if !m.tiles[i].used {
			m.cursor = i
			return
		}
	}
}

func (m *Model) pick() {
	if len(m.tiles) == 0 || m.tiles[m.cursor].used {
		return
	}
	m.tiles[m.cursor].used = true
	m.picked = append(m.picked, m.cursor)
	if len(m.picked) == len(m.current().AnswerOrder) {
		m.submit()
		return
	}
	m.move(1)
}

func (m *Model) undo() {
	if len(m.picked) == 0 {
		return
	}
	last := m.picked[len(m.picked)-1]
	m.picked = m.picked[:len(m.picked)-1]
	m.tiles[last].used = false
	m.cursor = last
}

func (m *Model) submit() {
	chunks := make([]string, len(m.picked))
	for i, t := range m.picked {
		chunks[i] = m.tiles[t].text
	}
	res := response.EvaluateOrder(m.current(), chunks)
	m.result = &res
	m.summary.Answered++
	if res.IsCorrect {
		m.summary.Correct++
	}
	m.summary.Results = append(m.summary.Results, res)
}

func (m *Model) next() {
	if m.result == nil {
		return
	}
	if m.idx+1 >= len(m.items) {
		m.done = true
		m.result = nil
		return
	}
	m.idx++
	m.load()
}

// Run plays items in the terminal until they are all answered or the
// learner quits.
func Run(ctx context.Context, items []item.RuntimeItem, opts ...Option) (Summary, error) {
	p := tea.NewProgram(New(items, opts...), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return Summary{}, err
	}
	if m, ok := final.(Model); ok {
		return m.Summary(), nil
	}
	return Summary{}, nil
}
