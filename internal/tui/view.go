package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/tui/styles"
)

const (
	banner = `  __  __ _     _              ___                   _
 |  \/  (_)__| |___ _ _     | __|_ _ _  _ __ ___| |_
 | |\/| | / _' / -_) ' \    | _/ _' | || / _/ -_)  _|
 |_|  |_|_\__,_\___|_||_|   |_|\__,_|\_,_\__\___|\__|`

	subtitle = "Auto-claim scheduler"

	logLinesPerPanel = 6
	twoColumnWidth   = 100
)

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return "Shutting down, closing browsers...\n"
	}
	if m.mode == viewGroup {
		return m.groupView()
	}
	return m.menuView()
}

func (m Model) menuView() string {
	var b strings.Builder

	b.WriteString(styles.Banner.Render(banner))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(subtitle))
	b.WriteString("\n\n")
	b.WriteString(m.statsBox())
	b.WriteString("\n\n")

	total := groupCount(len(m.accounts))
	if total == 0 {
		b.WriteString(styles.Muted.Render("No accounts loaded."))
		b.WriteString("\n")
	}
	start, end := m.pager.GetSliceBounds(total)
	for g := start; g < end; g++ {
		b.WriteString(m.groupLine(g, g-start+1))
		b.WriteString("\n")
	}
	if m.pager.TotalPages > 1 {
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render("Page " + m.pager.View()))
		b.WriteString("\n")
	}

	b.WriteString(m.help([][2]string{
		{"1-5", "open group"},
		{"←/→", "page"},
		{"q", "quit"},
	}))
	return b.String()
}

func (m Model) statsBox() string {
	s := m.snapshot
	field := func(label string, value string) string {
		return styles.StatLabel.Render(label+": ") + styles.StatValue.Render(value)
	}
	row := strings.Join([]string{
		field("Wallets", fmt.Sprint(s.Total)),
		field("Proxies", fmt.Sprint(s.Proxies)),
		field("Active Browser", fmt.Sprintf("%d/%d", s.Active, s.MaxConcurrent)),
		field("Success", styles.Secondary.Render(fmt.Sprint(s.Success))),
		field("Queue", fmt.Sprint(s.QueueDepth)),
		field("Errors", styles.Error.Render(fmt.Sprint(s.Errors))),
	}, "   ")
	return styles.StatsBox.Render(row)
}

// groupLine summarises group g, selectable with key n.
func (m Model) groupLine(g, n int) string {
	accts := m.groupAccounts(g)
	counts := make(map[string]int)
	var order []string
	for _, a := range accts {
		label := m.board.Worker(a.ID).Label
		if counts[label] == 0 {
			order = append(order, label)
		}
		counts[label]++
	}
	parts := make([]string, 0, len(order))
	for _, label := range order {
		parts = append(parts, styles.StateStyle(label).Render(fmt.Sprintf("%s %d", label, counts[label])))
	}

	first, last := accts[0].ID, accts[len(accts)-1].ID
	line := fmt.Sprintf("%s Accounts %d-%d  %s",
		styles.GroupKey.Render(fmt.Sprintf("[%d]", n)), first, last, strings.Join(parts, "  "))
	return styles.GroupItem.Render(line)
}

func (m Model) groupView() string {
	accts := m.groupAccounts(m.group)
	var b strings.Builder

	title := fmt.Sprintf("Group %d", m.group+1)
	if len(accts) > 0 {
		title += fmt.Sprintf("  (accounts %d-%d)", accts[0].ID, accts[len(accts)-1].ID)
	}
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(m.statsBox())
	b.WriteString("\n")

	width := max(m.width, 40)
	columns := 1
	if width >= twoColumnWidth {
		columns = 2
	}
	panelWidth := width/columns - 2

	panels := make([]string, 0, len(accts))
	for _, a := range accts {
		panels = append(panels, m.accountPanel(a, panelWidth))
	}
	for i := 0; i < len(panels); i += columns {
		row := panels[i:min(i+columns, len(panels))]
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
		b.WriteString("\n")
	}

	b.WriteString(m.help([][2]string{
		{"b/esc", "back"},
		{"q", "quit"},
	}))
	return b.String()
}

func (m Model) accountPanel(a account.Account, width int) string {
	w := m.board.Worker(a.ID)
	inner := max(width-4, 10)

	lines := []string{
		styles.Title.Render(fmt.Sprintf("#%d %s", a.ID, a.ShortWallet())),
		styles.StatLabel.Render("State: ") + styles.StateStyle(w.Label).Render(w.Label),
		styles.StatLabel.Render("Next:  ") + styles.Text.Render(w.NextRun),
		styles.StatLabel.Render("Proxy: ") + styles.Text.Render(ansi.Truncate(a.Route.String(), inner-7, "…")),
		"",
	}
	logs := w.Logs
	if len(logs) > logLinesPerPanel {
		logs = logs[len(logs)-logLinesPerPanel:]
	}
	for _, l := range logs {
		lines = append(lines, ansi.Truncate(styles.LogLine(l), inner, "…"))
	}
	for range logLinesPerPanel - len(logs) {
		lines = append(lines, "")
	}
	return styles.AccountPanel.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func (m Model) help(keys [][2]string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, styles.HelpKey.Render(k[0])+" "+k[1])
	}
	return styles.HelpBar.Render(strings.Join(parts, "  •  "))
}
