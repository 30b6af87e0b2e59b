// Package dayui provides the Bubble Tea day view.
package dayui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/stride/internal/engine"
	"github.com/verte-zerg/stride/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	pickStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Model implements the Bubble Tea day view.
type Model struct {
	engine *engine.Engine
	day    time.Time

	hours  []model.AttributedHour
	shoes  []model.Shoe
	active *model.Session

	tbl    table.Model
	errMsg string
	notice string

	pickMode bool

	width  int
	height int
}

// NewModel constructs a day view for the given day. The auto-management
// sweep runs once before the first load.
func NewModel(e *engine.Engine, day time.Time) *Model {
	m := &Model{engine: e, day: model.Day(day)}
	m.tbl = buildHourTable(nil, 0, 1)
	ctx := context.Background()
	if result, err := e.RunAutoManagementSweep(ctx); err != nil {
		m.errMsg = err.Error()
	} else if result.AutoStartedShoeID != 0 {
		m.notice = "auto-started default shoe"
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		if m.pickMode {
			return m.updatePick(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.day = m.day.AddDate(0, 0, -1)
			m.refresh()
			return m, nil
		case "right", "l":
			m.day = m.day.AddDate(0, 0, 1)
			m.refresh()
			return m, nil
		case "r":
			m.refresh()
			return m, nil
		case "a":
			if len(m.shoes) == 0 {
				m.errMsg = "no shoes configured; run: stride shoe add <name>"
				return m, nil
			}
			m.pickMode = true
			return m, nil
		case "x":
			m.clearSelected()
			return m, nil
		case "t":
			m.toggleSelectedOwner()
			return m, nil
		default:
			var cmd tea.Cmd
			m.tbl, cmd = m.tbl.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) updatePick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if msg.Type == tea.KeyEsc || key == "q" {
		m.pickMode = false
		return m, nil
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		idx := int(key[0] - '1')
		if idx < len(m.shoes) {
			m.attributeSelected(m.shoes[idx])
			m.pickMode = false
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.pickMode {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderPicker())
	}
	sections := []string{m.renderHeader(), m.tbl.View(), m.renderFooter()}
	return strings.Join(sections, "\n")
}

func (m *Model) renderHeader() string {
	title := headerStyle.Render(m.day.Format("Mon 2006-01-02"))
	worn := mutedStyle.Render("nothing worn")
	if m.active != nil {
		name := m.shoeName(m.active.ShoeID)
		worn = activeStyle.Render(fmt.Sprintf("wearing %s since %s", name, m.active.StartedAt.Format("15:04")))
	}
	line := title + "  " + worn
	if m.notice != "" {
		line += "  " + mutedStyle.Render(m.notice)
	}
	return truncateLine(line, m.width)
}

func (m *Model) renderFooter() string {
	help := footerStyle.Render("←/→ day  a attribute  x clear  t toggle  r reload  q quit")
	if m.errMsg != "" {
		return errorStyle.Render(truncateLine(m.errMsg, m.width)) + "\n" + help
	}
	return help
}

func (m *Model) renderPicker() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Attribute hour to:"))
	b.WriteString("\n\n")
	for i, shoe := range m.shoes {
		if i >= 9 {
			break
		}
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, shoe.Name))
	}
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("esc cancel"))
	return pickStyle.Render(b.String())
}

func (m *Model) refresh() {
	ctx := context.Background()
	m.errMsg = ""

	hours, err := m.engine.ReconciledHours(ctx, m.day)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.hours = hours

	shoes, err := m.engine.Shoes(ctx, false)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.shoes = shoes

	active, err := m.engine.ActiveSession(ctx)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.active = active

	m.rebuildTable()
}

func (m *Model) selectedHour() (model.AttributedHour, bool) {
	idx := m.tbl.Cursor()
	if idx < 0 || idx >= len(m.hours) {
		return model.AttributedHour{}, false
	}
	return m.hours[idx], true
}

func (m *Model) attributeSelected(shoe model.Shoe) {
	hour, ok := m.selectedHour()
	if !ok {
		return
	}
	if err := m.engine.AttributeHour(context.Background(), hour.HourStart(), shoe.ID); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.refresh()
}

func (m *Model) clearSelected() {
	hour, ok := m.selectedHour()
	if !ok {
		return
	}
	if err := m.engine.RemoveAttribution(context.Background(), hour.HourStart()); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.refresh()
}

// toggleSelectedOwner toggles the session of the shoe owning the
// selected hour, or of the single configured shoe when the hour is
// unowned.
func (m *Model) toggleSelectedOwner() {
	hour, ok := m.selectedHour()
	var target *model.Shoe
	if ok && hour.Owned() {
		for i := range m.shoes {
			if m.shoes[i].ID == *hour.ShoeID {
				target = &m.shoes[i]
				break
			}
		}
	}
	if target == nil && len(m.shoes) == 1 {
		target = &m.shoes[0]
	}
	if target == nil {
		m.errMsg = "select an owned hour to toggle its shoe"
		return
	}
	if err := m.engine.ToggleSession(context.Background(), target.ID); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.refresh()
}

func (m *Model) shoeName(id int64) string {
	for _, shoe := range m.shoes {
		if shoe.ID == id {
			return shoe.Name
		}
	}
	return fmt.Sprintf("shoe %d", id)
}

func (m *Model) rebuildTable() {
	cursor := m.tbl.Cursor()
	m.tbl = buildHourTable(m.hours, m.tableWidth(), m.tableHeight())
	if cursor >= 0 && cursor < len(m.hours) {
		m.tbl.SetCursor(cursor)
	}
}

func (m *Model) updateLayout() {
	m.tbl.SetWidth(m.tableWidth())
	m.tbl.SetHeight(m.tableHeight())
}

func (m *Model) tableWidth() int {
	if m.width <= 0 {
		return 60
	}
	return m.width
}

func (m *Model) tableHeight() int {
	// Header and footer take three lines total.
	h := m.height - 3
	if h < 3 {
		h = 3
	}
	return h
}

func buildHourTable(hours []model.AttributedHour, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Hour", Width: 6},
		{Title: "Shoe", Width: 18},
		{Title: "Steps", Width: 8},
		{Title: "km", Width: 6},
	}
	rows := make([]table.Row, 0, len(hours))
	for _, hour := range hours {
		owner := "-"
		if hour.Owned() {
			owner = runewidth.Truncate(hour.ShoeName, 18, "…")
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%02d:00", hour.Hour),
			owner,
			fmt.Sprintf("%d", hour.Steps),
			fmt.Sprintf("%.2f", hour.DistanceKm),
		})
	}
	tbl := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
	)
	if width > 0 {
		tbl.SetWidth(width)
	}
	if height > 0 {
		tbl.SetHeight(height)
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("#8C8C8C")).Bold(false)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#4A4A4A")).Bold(false)
	tbl.SetStyles(styles)
	return tbl
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "")
}
