package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/event"
	"github.com/red-hand/midenclaim/internal/stats"
)

type fixedStats stats.Snapshot

func (f fixedStats) Stats() stats.Snapshot { return stats.Snapshot(f) }

func accounts(n int) []account.Account {
	wallets := make([]string, n)
	for i := range wallets {
		wallets[i] = fmt.Sprintf("mtst1qwalletaddress%04dxyz", i+1)
	}
	return account.Assign(wallets, []account.Proxy{{Server: "http://user:pw@10.0.0.1:8080"}})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		if !ok {
			t.Fatalf("Update returned %T", next)
		}
	}
	return m
}

func newTestModel(n int) Model {
	src := fixedStats{Total: n, Proxies: 1, Active: 2, MaxConcurrent: 4, QueueDepth: 3, Success: 7, Errors: 2}
	return NewModel(NewBoard(), src, accounts(n))
}

func TestModel_MenuShowsStats(t *testing.T) {
	view := newTestModel(6).View()
	for _, want := range []string{"Wallets", "Active Browser", "2/4", "Success", "Errors", "Accounts 1-4", "Accounts 5-6"} {
		if !strings.Contains(view, want) {
			t.Errorf("menu view missing %q", want)
		}
	}
}

func TestModel_Pagination(t *testing.T) {
	// 45 accounts -> 12 groups -> 3 pages.
	m := newTestModel(45)
	if m.pager.TotalPages != 3 {
		t.Fatalf("TotalPages = %d, want 3", m.pager.TotalPages)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.pager.Page != 1 {
		t.Errorf("page after right = %d, want 1", m.pager.Page)
	}
	if !strings.Contains(m.View(), "Accounts 21-24") {
		t.Error("second page should list group 6 (accounts 21-24)")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyRight})
	if m.pager.Page != 2 {
		t.Errorf("page clamps at last page, got %d", m.pager.Page)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft})
	if m.pager.Page != 0 {
		t.Errorf("page clamps at first page, got %d", m.pager.Page)
	}
}

func TestModel_OpenGroupAndBack(t *testing.T) {
	m := newTestModel(45)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight}, runes("2"))

	if m.mode != viewGroup || m.group != 6 {
		t.Fatalf("mode=%v group=%d, want group view of group 6", m.mode, m.group)
	}
	view := m.View()
	if !strings.Contains(view, "Group 7") || !strings.Contains(view, "#25") || !strings.Contains(view, "#28") {
		t.Errorf("group view missing accounts 25-28:\n%s", view)
	}

	for _, back := range []tea.KeyMsg{runes("b"), {Type: tea.KeyEsc}, {Type: tea.KeyBackspace}} {
		m.mode = viewGroup
		m = press(t, m, back)
		if m.mode != viewMenu {
			t.Errorf("%q did not return to the menu", back.String())
		}
	}
}

func TestModel_GroupKeyOutOfRange(t *testing.T) {
	m := newTestModel(6) // 2 groups
	m = press(t, m, runes("3"))
	if m.mode != viewMenu {
		t.Error("selecting a missing group should stay on the menu")
	}
}

func TestModel_GroupViewShowsWorkerState(t *testing.T) {
	m := newTestModel(4)
	bus := event.NewBus()
	m.board.Attach(bus)
	bus.Publish(event.NewWorkerStateEvent(2, "Sleeping", "Sleeping", "7m 12s", 0))
	bus.Publish(event.NewWorkerLogEvent(2, "[12:00:00] Cycle completed.", "Cycle completed."))

	m = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 40}, runes("1"))
	view := m.View()
	for _, want := range []string{"Sleeping", "7m 12s", "Cycle completed.", "10.0.0.1:8080", "mtst1qwa...002xyz"} {
		if !strings.Contains(view, want) {
			t.Errorf("group view missing %q", want)
		}
	}
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		m := newTestModel(4)
		next, cmd := m.Update(key)
		if !next.(Model).Quitting() {
			t.Errorf("%q should quit", key.String())
		}
		if cmd == nil {
			t.Fatalf("%q returned no command", key.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%q should return tea.Quit", key.String())
		}
	}
}

func TestModel_TickRefreshesStats(t *testing.T) {
	src := &mutableStats{}
	m := NewModel(NewBoard(), src, accounts(1))
	src.s.Success = 5

	next, cmd := m.Update(tickMsg{})
	if next.(Model).snapshot.Success != 5 {
		t.Error("tick should refresh the stats snapshot")
	}
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
}

type mutableStats struct{ s stats.Snapshot }

func (m *mutableStats) Stats() stats.Snapshot { return m.s }

func TestModel_NoAccounts(t *testing.T) {
	m := newTestModel(0)
	if !strings.Contains(m.View(), "No accounts loaded.") {
		t.Error("empty menu should say so")
	}
	m = press(t, m, runes("1"))
	if m.mode != viewMenu {
		t.Error("no group to open")
	}
}
