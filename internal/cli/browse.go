package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/planningtree/internal/cli/formatter"
	"github.com/alexanderramin/planningtree/internal/domain"
	"github.com/alexanderramin/planningtree/internal/service"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newBrowseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [PLAN]",
		Short: "Browse and edit plans interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return errors.New("browse needs an interactive terminal")
			}
			ctx := cmd.Context()
			planID := ""
			if len(args) == 1 {
				p, err := resolvePlan(ctx, app, args[0])
				if err != nil {
					return err
				}
				planID = p.ID
			}

			prog := tea.NewProgram(newBrowseModel(ctx, app.Store, planID),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err := prog.Run()
			return err
		},
	}
}

type browseMode int

const (
	modeNavigate browseMode = iota
	modeAddPlan
	modeAddChild
	modeRename
	modeConfirmDelete
)

type browseKeys struct {
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Expand    key.Binding
	Collapse  key.Binding
	Add       key.Binding
	Rename    key.Binding
	Highlight key.Binding
	Delete    key.Binding
	Back      key.Binding
	Quit      key.Binding
}

func newBrowseKeys() browseKeys {
	return browseKeys{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/fold")),
		Expand:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "expand")),
		Collapse:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "collapse")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Rename:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		Highlight: key.NewBinding(key.WithKeys(" ", "*"), key.WithHelp("space", "highlight")),
		Delete:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Add, k.Rename, k.Highlight, k.Delete, k.Back, k.Quit}
}

func (k browseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Expand, k.Collapse},
		{k.Add, k.Rename, k.Highlight, k.Delete},
		{k.Back, k.Quit},
	}
}

// browseRow is a plan in the plan list, or a visible node in the tree view.
type browseRow struct {
	plan      domain.Plan
	nodeCount int
	node      domain.PlanNode
	depth     int
}

// browseMutatedMsg reports the outcome of a store mutation.
type browseMutatedMsg struct {
	selectID string
	status   string
	err      error
}

type browseModel struct {
	ctx   context.Context
	store service.PlanStore
	keys  browseKeys
	help  help.Model
	input textinput.Model

	planID    string // empty while the plan list is shown
	rows      []browseRow
	cursor    int
	collapsed map[string]bool
	mode      browseMode

	status string
	err    error
	width  int
	height int
}

func newBrowseModel(ctx context.Context, store service.PlanStore, planID string) browseModel {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Prompt = "› "

	m := browseModel{
		ctx:       ctx,
		store:     store,
		keys:      newBrowseKeys(),
		help:      help.New(),
		input:     ti,
		planID:    planID,
		collapsed: make(map[string]bool),
	}
	m.refresh()
	return m
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case browseMutatedMsg:
		m.err = msg.err
		m.status = ""
		if msg.err == nil {
			m.status = msg.status
		}
		m.refresh()
		if msg.selectID != "" {
			m.selectID(msg.selectID)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAddPlan, modeAddChild, modeRename:
			return m.updateInput(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateNavigate(msg)
	}
	return m, nil
}

func (m browseModel) updateNavigate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Back):
		if m.planID == "" {
			return m, tea.Quit
		}
		prev := m.planID
		m.planID = ""
		m.status = ""
		m.refresh()
		m.selectID(prev)

	case key.Matches(msg, m.keys.Open):
		row, ok := m.current()
		if !ok {
			break
		}
		if m.planID == "" {
			m.planID = row.plan.ID
			m.cursor = 0
			m.status = ""
			m.refresh()
			break
		}
		if row.node.ChildCount > 0 {
			m.collapsed[row.node.ID] = !m.collapsed[row.node.ID]
			m.refresh()
			m.selectID(row.node.ID)
		}

	case key.Matches(msg, m.keys.Expand):
		if row, ok := m.current(); ok && m.planID != "" && m.collapsed[row.node.ID] {
			delete(m.collapsed, row.node.ID)
			m.refresh()
			m.selectID(row.node.ID)
		}

	case key.Matches(msg, m.keys.Collapse):
		row, ok := m.current()
		if !ok || m.planID == "" {
			break
		}
		if row.node.ChildCount > 0 && !m.collapsed[row.node.ID] {
			m.collapsed[row.node.ID] = true
			m.refresh()
			m.selectID(row.node.ID)
		} else if row.node.ParentID != nil {
			m.selectID(*row.node.ParentID)
		}

	case key.Matches(msg, m.keys.Add):
		if m.planID == "" {
			return m.startInput(modeAddPlan, "New plan name", "")
		}
		if _, ok := m.current(); ok {
			return m.startInput(modeAddChild, "New child title", "")
		}

	case key.Matches(msg, m.keys.Rename):
		if row, ok := m.current(); ok && m.planID != "" {
			return m.startInput(modeRename, "New title", row.node.Title)
		}

	case key.Matches(msg, m.keys.Highlight):
		if row, ok := m.current(); ok && m.planID != "" {
			id := row.node.ID
			return m, m.mutate(func() (string, string, error) {
				n, err := m.store.ToggleHighlight(m.ctx, id)
				if err != nil {
					return "", "", err
				}
				if n.IsHighlighted {
					return n.ID, "Highlighted " + n.Title, nil
				}
				return n.ID, "Unhighlighted " + n.Title, nil
			})
		}

	case key.Matches(msg, m.keys.Delete):
		row, ok := m.current()
		if !ok {
			break
		}
		if m.planID != "" && row.node.IsRoot() {
			m.err = errors.New("the root node goes with its plan; go back and delete the plan")
			break
		}
		m.mode = modeConfirmDelete
	}
	return m, nil
}

func (m browseModel) startInput(mode browseMode, placeholder, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.status = ""
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m browseModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.mode = modeNavigate
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		mode := m.mode
		value := m.input.Value()
		m.mode = modeNavigate
		m.input.Blur()
		return m, m.submit(mode, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m browseModel) submit(mode browseMode, value string) tea.Cmd {
	row, _ := m.current()
	switch mode {
	case modeAddPlan:
		return m.mutate(func() (string, string, error) {
			p, err := m.store.CreatePlan(m.ctx, value)
			if err != nil {
				return "", "", err
			}
			return p.ID, "Created plan " + p.Name, nil
		})
	case modeAddChild:
		parentID := row.node.ID
		delete(m.collapsed, parentID)
		return m.mutate(func() (string, string, error) {
			n, err := m.store.AddChildNode(m.ctx, parentID, value)
			if err != nil {
				return "", "", err
			}
			return n.ID, "Added " + n.Title, nil
		})
	case modeRename:
		id := row.node.ID
		return m.mutate(func() (string, string, error) {
			n, err := m.store.RenameNode(m.ctx, id, value)
			if err != nil {
				return "", "", err
			}
			return n.ID, "Renamed to " + n.Title, nil
		})
	}
	return nil
}

func (m browseModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNavigate
	if msg.String() != "y" {
		m.status = "Kept."
		return m, nil
	}
	row, ok := m.current()
	if !ok {
		return m, nil
	}
	if m.planID == "" {
		p := row.plan
		return m, m.mutate(func() (string, string, error) {
			if err := m.store.DeletePlan(m.ctx, p.ID); err != nil {
				return "", "", err
			}
			return "", "Deleted plan " + p.Name, nil
		})
	}
	n := row.node
	return m, m.mutate(func() (string, string, error) {
		removed, err := m.store.DeleteNode(m.ctx, n.ID)
		if err != nil {
			return "", "", err
		}
		return *n.ParentID, fmt.Sprintf("Deleted %s (%s)", n.Title, formatter.Plural(removed, "node")), nil
	})
}

// mutate runs fn as a command. fn returns the id to select afterwards and
// a status line.
func (m browseModel) mutate(fn func() (string, string, error)) tea.Cmd {
	return func() tea.Msg {
		id, status, err := fn()
		return browseMutatedMsg{selectID: id, status: status, err: err}
	}
}

// refresh rebuilds the visible rows from the store, falling back to the
// plan list when the open plan no longer exists.
func (m *browseModel) refresh() {
	m.rows = m.rows[:0]
	if m.planID != "" {
		p, err := m.store.GetPlan(m.ctx, m.planID)
		if err != nil {
			m.planID = ""
		} else {
			skipBelow := -1
			_ = m.store.Walk(m.ctx, p.RootNodeID, func(n domain.PlanNode, depth int) bool {
				if skipBelow >= 0 && depth > skipBelow {
					return true
				}
				skipBelow = -1
				m.rows = append(m.rows, browseRow{node: n, depth: depth})
				if m.collapsed[n.ID] && n.ChildCount > 0 {
					skipBelow = depth
				}
				return true
			})
		}
	}
	if m.planID == "" {
		for _, p := range m.store.ListPlans(m.ctx) {
			row := browseRow{plan: p}
			_ = m.store.Walk(m.ctx, p.RootNodeID, func(domain.PlanNode, int) bool {
				row.nodeCount++
				return true
			})
			m.rows = append(m.rows, row)
		}
	}
	m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
}

func (m *browseModel) selectID(id string) {
	idx := slices.IndexFunc(m.rows, func(r browseRow) bool {
		return r.node.ID == id || (r.node.ID == "" && r.plan.ID == id)
	})
	if idx >= 0 {
		m.cursor = idx
	}
}

func (m browseModel) current() (browseRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return browseRow{}, false
	}
	return m.rows[m.cursor], true
}

var (
	browseTitle  = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	browseCursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	browseError  = lipgloss.NewStyle().Foreground(formatter.ColorRed)
)

func (m browseModel) View() string {
	var b strings.Builder
	b.WriteString(browseTitle.Render(m.header()))
	b.WriteString("\n\n")

	lines := m.bodyLines()
	if len(lines) == 0 {
		if m.planID == "" {
			b.WriteString(formatter.Dim("No plans yet. Press a to create one."))
		}
		b.WriteString("\n")
	}
	start, end := m.window(len(lines))
	for i := start; i < end; i++ {
		marker := "  "
		if i == m.cursor {
			marker = browseCursor.Render("> ")
		}
		b.WriteString(marker + lines[i] + "\n")
	}
	b.WriteString("\n")

	switch m.mode {
	case modeAddPlan, modeAddChild, modeRename:
		b.WriteString(m.input.View() + "\n")
	case modeConfirmDelete:
		if row, ok := m.current(); ok {
			name := row.plan.Name
			if m.planID != "" {
				name = row.node.Title
			}
			b.WriteString(browseError.Render(fmt.Sprintf("Delete %q and everything under it? (y/N)", name)) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString(browseError.Render("Error: "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(formatter.Success(m.status) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m browseModel) header() string {
	if m.planID == "" {
		return "PLANS"
	}
	p, err := m.store.GetPlan(m.ctx, m.planID)
	if err != nil {
		return "PLANS"
	}
	crumbs := []string{p.Name}
	if row, ok := m.current(); ok && !row.node.IsRoot() {
		ancestors, err := m.store.Ancestors(m.ctx, row.node.ID)
		if err == nil {
			// ancestors run nearest first and end at the root, which the
			// plan name already stands for
			for i := len(ancestors) - 2; i >= 0; i-- {
				crumbs = append(crumbs, ancestors[i].Title)
			}
			crumbs = append(crumbs, row.node.Title)
		}
	}
	return strings.Join(crumbs, " › ")
}

func (m browseModel) bodyLines() []string {
	if m.planID == "" {
		lines := make([]string, len(m.rows))
		for i, r := range m.rows {
			lines[i] = formatter.Bold(r.plan.Name) + "  " + formatter.Dim(formatter.Plural(r.nodeCount, "node"))
		}
		return lines
	}

	entries := make([]formatter.TreeEntry, len(m.rows))
	for i, r := range m.rows {
		entries[i] = formatter.TreeEntry{Node: r.node, Depth: r.depth}
	}
	items := formatter.TreeItems(entries, false)
	for i := range items {
		items[i].Detail = ""
		if n := m.rows[i].node; m.collapsed[n.ID] && n.ChildCount > 0 {
			items[i].Detail = fmt.Sprintf("+%d", n.ChildCount)
		}
	}
	return strings.Split(strings.TrimSuffix(formatter.RenderTree(items), "\n"), "\n")
}

// window returns the slice of lines that fits the terminal while keeping
// the cursor visible.
func (m browseModel) window(total int) (int, int) {
	avail := m.height - 8
	if m.height == 0 || avail <= 0 || total <= avail {
		return 0, total
	}
	start := max(0, m.cursor-avail+1)
	return start, min(total, start+avail)
}
