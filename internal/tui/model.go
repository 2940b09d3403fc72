// Package tui is a read-only terminal inspector for the live modifier
// graph: a node list with evaluation status, and a piano-roll view of the
// selected node's pattern. It subscribes to the graph store and redraws
// itself on every debounced change notification.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vk/patterngridgo/internal/evaluator"
	"github.com/vk/patterngridgo/internal/graph"
	"github.com/vk/patterngridgo/internal/graphstore"
	"github.com/vk/patterngridgo/internal/pattern"
)

// Model is the bubbletea model for the inspector. It never mutates the
// graph; every edit arrives through store notifications.
type Model struct {
	store     *graphstore.Store
	evaluator *evaluator.Evaluator

	changes  chan struct{}
	snapshot *graph.Graph
	ids      []string
	patterns map[string]*pattern.Pattern
	cursor   int
	width    int
	quitting bool
}

// changedMsg signals that the store committed at least one mutation since
// the last refresh.
type changedMsg struct{}

// NewModel builds an inspector over the given store and evaluator and
// subscribes it to store change notifications.
func NewModel(store *graphstore.Store, ev *evaluator.Evaluator) Model {
	changes := make(chan struct{}, 1)
	store.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default: // a refresh is already pending
		}
	})

	m := Model{
		store:     store,
		evaluator: ev,
		changes:   changes,
	}
	m.refresh()
	return m
}

// listenForChanges arms a command that waits for the next store
// notification.
func listenForChanges(changes chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return changedMsg{}
	}
}

// refresh re-snapshots the graph and re-evaluates every node.
func (m *Model) refresh() {
	ctx := context.Background()
	m.snapshot = m.store.Snapshot(ctx)
	m.ids = m.snapshot.NodeIDs()
	m.patterns = m.evaluator.AllPatterns(ctx, m.snapshot)
	if m.cursor >= len(m.ids) {
		m.cursor = len(m.ids) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// selected returns the node under the cursor and its evaluation result.
func (m Model) selected() (*graph.Node, *pattern.Pattern) {
	if m.cursor < 0 || m.cursor >= len(m.ids) {
		return nil, nil
	}
	id := m.ids[m.cursor]
	node, ok := m.snapshot.Node(id)
	if !ok {
		return nil, nil
	}
	return node, m.patterns[id]
}

func (m Model) Init() tea.Cmd {
	return listenForChanges(m.changes)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "j", "down":
			if m.cursor < len(m.ids)-1 {
				m.cursor++
			}

		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}

		case "g", "home":
			m.cursor = 0

		case "G", "end":
			if len(m.ids) > 0 {
				m.cursor = len(m.ids) - 1
			}

		case "r":
			m.refresh()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case changedMsg:
		m.refresh()
		return m, listenForChanges(m.changes)
	}

	return m, nil
}
