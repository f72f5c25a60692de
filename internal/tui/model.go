package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/paginator"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/stats"
)

// Layout of the menu.
const (
	AccountsPerGroup = 4
	GroupsPerPage    = 5
)

const refreshInterval = 250 * time.Millisecond

// StatsSource supplies global counters; *scheduler.Scheduler satisfies it.
type StatsSource interface {
	Stats() stats.Snapshot
}

type viewMode int

const (
	viewMenu viewMode = iota
	viewGroup
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	board    *Board
	source   StatsSource
	accounts []account.Account

	pager    paginator.Model
	mode     viewMode
	group    int // absolute group index shown in viewGroup
	snapshot stats.Snapshot

	width    int
	height   int
	quitting bool
}

// NewModel creates the dashboard model for accounts.
func NewModel(board *Board, source StatsSource, accounts []account.Account) Model {
	p := paginator.New()
	p.Type = paginator.Arabic
	p.PerPage = GroupsPerPage
	p.SetTotalPages(groupCount(len(accounts)))

	return Model{
		board:    board,
		source:   source,
		accounts: accounts,
		pager:    p,
		snapshot: source.Stats(),
		width:    80,
		height:   24,
	}
}

func groupCount(accounts int) int {
	return (accounts + AccountsPerGroup - 1) / AccountsPerGroup
}

// groupAccounts returns the accounts of group g.
func (m Model) groupAccounts(g int) []account.Account {
	start := g * AccountsPerGroup
	if start >= len(m.accounts) {
		return nil
	}
	end := min(start+AccountsPerGroup, len(m.accounts))
	return m.accounts[start:end]
}

// Quitting reports whether the operator asked to quit.
func (m Model) Quitting() bool { return m.quitting }

// Init starts the refresh tick.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeypress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.snapshot = m.source.Stats()
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "q" || key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.mode == viewGroup {
		switch key {
		case "b", "esc", "backspace":
			m.mode = viewMenu
		}
		return m, nil
	}

	switch key {
	case "left", "h":
		m.pager.PrevPage()
	case "right", "l":
		m.pager.NextPage()
	case "1", "2", "3", "4", "5":
		g := m.pager.Page*GroupsPerPage + int(key[0]-'1')
		if g < groupCount(len(m.accounts)) {
			m.mode = viewGroup
			m.group = g
		}
	}
	return m, nil
}
