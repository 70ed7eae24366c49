// Package tui is the terminal front end of the todo client. It renders the
// todostore state and turns key presses into store actions.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"go_todo/internal/todo"
	"go_todo/internal/todostore"
)

// stateMsg carries a store snapshot into the bubbletea event loop.
type stateMsg todostore.State

type Model struct {
	ctx   context.Context
	store *todostore.Store
	state todostore.State

	cursor  int
	adding  bool
	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

func NewModel(ctx context.Context, store *todostore.Store) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 200

	return Model{
		ctx:     ctx,
		store:   store,
		state:   store.State(),
		input:   ti,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    defaultKeys(),
	}
}

// Run selects userID on the store and blocks until the user quits.
func Run(ctx context.Context, store *todostore.Store, userID string) error {
	store.SetUser(userID)

	p := tea.NewProgram(NewModel(ctx, store), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := store.Subscribe(func(st todostore.State) {
		p.Send(stateMsg(st))
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = todostore.State(msg)
		m.clampCursor()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			return m, nil
		}
		m.adding = false
		m.input.SetValue("")
		m.input.Blur()
		return m, m.addCmd(title)
	case "esc":
		m.adding = false
		m.input.SetValue("")
		m.input.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.state.Todos)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Add):
		m.adding = true
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Reload):
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.Dismiss):
		return m, m.action(m.store.ClearError)
	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selected(); ok && !m.state.IsToggling(t.ID) {
			return m, m.action(func() { m.store.Toggle(m.ctx, t) })
		}
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok && !m.state.IsDeleting(t.ID) {
			return m, m.action(func() { m.store.Remove(m.ctx, t.ID) })
		}
	}
	return m, nil
}

func (m Model) loadCmd() tea.Cmd {
	return m.action(func() { m.store.Load(m.ctx) })
}

func (m Model) addCmd(title string) tea.Cmd {
	return m.action(func() { m.store.Add(m.ctx, title) })
}

// action runs fn off the event loop; the resulting state arrives through
// the store subscription.
func (m Model) action(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.state.Todos) {
		m.cursor = len(m.state.Todos) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (t todo.Todo, ok bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Todos) {
		return t, false
	}
	return m.state.Todos[m.cursor], true
}

func (m Model) View() string {
	var b strings.Builder

	summary := m.state.Summary()
	fmt.Fprintf(&b, "%s %s   %s %d/%d\n\n",
		titleStyle.Render("Todos"),
		accentStyle.Render(m.state.UserID),
		successStyle.Render("✔"), summary.Completed, summary.Total,
	)

	if m.state.Error != "" {
		b.WriteString(errorStyle.Render("✖ "+m.state.Error) + "\n\n")
	}

	switch {
	case m.state.Loading && len(m.state.Todos) == 0:
		b.WriteString(m.spinner.View() + " Loading...\n")
	case len(m.state.Todos) == 0:
		b.WriteString(mutedStyle.Render("No todos yet. Press a to add one.") + "\n")
	default:
		for i, t := range m.state.Todos {
			b.WriteString(m.renderItem(i, t) + "\n")
		}
	}

	if m.state.IsAllComplete() {
		b.WriteString("\n" + successStyle.Render("All done!") + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.adding:
		b.WriteString(m.input.View() + "\n")
	case m.state.Adding:
		b.WriteString(m.spinner.View() + " Adding...\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderItem(i int, t todo.Todo) string {
	box := mutedStyle.Render(boxUnchecked)
	title := t.Title
	if t.Completed {
		box = successStyle.Render(boxChecked)
		title = doneStyle.Render(title)
	}

	prefix := "  "
	if i == m.cursor {
		prefix = selectedStyle.Render("> ")
	}

	line := prefix + box + " " + title
	switch {
	case m.state.IsDeleting(t.ID):
		line += " " + pendingStyle.Render("deleting...")
	case m.state.IsToggling(t.ID):
		line += " " + pendingStyle.Render("saving...")
	}
	return line
}
