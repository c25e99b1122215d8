// Package tui provides a Bubble Tea TUI for browsing pkrec reports.
package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/trackinspect/pkrec/internal/report"
	"github.com/trackinspect/pkrec/internal/session"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	pkStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("178"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	bandStyles = map[string]lipgloss.Style{
		"alert":        lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		"intervention": lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		"immediate":    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}

	complianceStyles = map[session.ComplianceLevel]lipgloss.Style{
		session.Compliant: lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
		session.Monitor:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		session.Critical:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabExceedances
	tabSamples
	tabChart
	tabAnalysis
	tabCount
)

var tabNames = [tabCount]string{
	"Summary", "Exceedances", "Samples", "Chart", "Analysis",
}

var severity = map[string]int{"alert": 1, "intervention": 2, "immediate": 3}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	report     *report.Report
	source     string
	activeTab  tabID
	viewports  [tabCount]viewport.Model
	width      int
	height     int
	ready      bool
	bySeverity bool
	// Exceedances tab: cursor position and expanded set
	cursor   int
	expanded map[int]bool
}

// New creates a TUI model for r. source names where it came from, a file
// path or a history id.
func New(r *report.Report, source string) Model {
	return Model{
		report:   r,
		source:   filepath.Base(source),
		expanded: make(map[int]bool),
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3", "4", "5":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "s":
			if m.activeTab == tabExceedances {
				m.bySeverity = !m.bySeverity
				m.cursor = 0
				m.expanded = make(map[int]bool)
				m.rebuild(tabExceedances)
				m.viewports[tabExceedances].GotoTop()
			}
		case "up", "k":
			if m.activeTab == tabExceedances && m.cursor > 0 {
				m.cursor--
				m.rebuild(tabExceedances)
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabExceedances && m.cursor < len(m.report.Summary.Exceedances)-1 {
				m.cursor++
				m.rebuild(tabExceedances)
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabExceedances && len(m.report.Summary.Exceedances) > 0 {
				if m.expanded[m.cursor] {
					delete(m.expanded, m.cursor)
				} else {
					m.expanded[m.cursor] = true
				}
				m.rebuild(tabExceedances)
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  pkrec  " + m.report.ID + "  " + dimSource(m.source))

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-5 jump  q quit"
	if m.activeTab == tabExceedances {
		order := "by PK"
		if m.bySeverity {
			order = "by severity"
		}
		hint += "  s sort (" + order + ")  enter details"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

func dimSource(s string) string {
	if s == "" || s == "." {
		return ""
	}
	return "(" + s + ")"
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuild(t tabID) {
	m.viewports[t].SetContent(m.renderTab(t))
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabExceedances:
		return m.renderExceedances()
	case tabSamples:
		return m.renderSamples()
	case tabChart:
		return m.renderChart()
	case tabAnalysis:
		return m.renderAnalysis()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return dimStyle.Render("-")
	}
	return s
}

func (m *Model) renderSummary() string {
	r := m.report
	var sb strings.Builder
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-16s", label)) + "  " + value + "\n")
	}

	sb.WriteString(heading("Run"))
	row("Date:", r.Date)
	row("Track:", r.Track)
	row("Direction:", string(r.Direction))
	row("Start PK:", fmt.Sprintf("%.3f", r.StartPosition))
	row("PK range:", r.PKRange())
	row("Operator:", orDash(r.Metadata.Operator))
	row("Line:", orDash(r.Metadata.Line))
	row("Train:", orDash(r.Metadata.Train))
	row("Engine:", orDash(r.Metadata.EngineNumber))
	row("Device position:", orDash(r.Metadata.TrainPosition))
	row("Note:", r.Note())

	sb.WriteString(heading("Thresholds (lateral, m/s²)"))
	row("LA / LI / LAI:", fmt.Sprintf("%.1f / %.1f / %.1f",
		r.Thresholds.Alert, r.Thresholds.Intervention, r.Thresholds.Immediate))

	sb.WriteString(heading("Whole session"))
	row("Duration:", fmt.Sprintf("%.0f s", r.Session.Duration))
	row("Max vertical:", fmt.Sprintf("%.3f", r.Session.MaxVertical))
	row("Max transversal:", fmt.Sprintf("%.3f", r.Session.MaxTransversal))
	row("Avg magnitude:", fmt.Sprintf("%.3f", r.Session.AvgMagnitude))
	row("LA / LI / LAI:", fmt.Sprintf("%d / %d / %d",
		r.Session.CountAlert, r.Session.CountIntervention, r.Session.CountImmediate))

	s := r.Summary
	sb.WriteString(heading("In range"))
	row("Samples:", fmt.Sprintf("%d", s.Samples))
	if s.Samples > 0 {
		row("Lateral:", fmt.Sprintf("mean %.3f  sd %.3f  max %.3f", s.MeanLateral, s.StdLateral, s.MaxLateral))
		row("Vertical:", fmt.Sprintf("mean %.3f  sd %.3f  max %.3f", s.MeanVertical, s.StdVertical, s.MaxVertical))
	}
	row("LA / LI / LAI:", fmt.Sprintf("%d / %d / %d", s.CountAlert, s.CountIntervention, s.CountImmediate))
	return sb.String()
}

// exceedances returns the list in display order.
func (m *Model) exceedances() []report.Exceedance {
	ex := append([]report.Exceedance(nil), m.report.Summary.Exceedances...)
	if m.bySeverity {
		sort.SliceStable(ex, func(i, j int) bool {
			if severity[ex[i].Band] != severity[ex[j].Band] {
				return severity[ex[i].Band] > severity[ex[j].Band]
			}
			return math.Abs(ex[i].Lateral) > math.Abs(ex[j].Lateral)
		})
	} else {
		sort.SliceStable(ex, func(i, j int) bool { return ex[i].Position < ex[j].Position })
	}
	return ex
}

func (m *Model) renderExceedances() string {
	ex := m.exceedances()
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Exceedances (%d)", len(ex))))
	if len(ex) == 0 {
		sb.WriteString(dimStyle.Render("  (no threshold exceeded)") + "\n")
		return sb.String()
	}
	for i, e := range ex {
		toggle := dimStyle.Render("  ▶ ")
		if m.expanded[i] {
			toggle = dimStyle.Render("  ▼ ")
		}
		badge := bandStyles[e.Band].Render(fmt.Sprintf("%-12s", strings.ToUpper(e.Band)))
		row := fmt.Sprintf("%s%s  %s  %+.3f m/s²", toggle, pkStyle.Render(fmt.Sprintf("PK %.5f", e.Position)), badge, e.Lateral)
		if i == m.cursor {
			row = selectedRowStyle.Width(m.width - 2).Render(row)
		}
		sb.WriteString(row + "\n")
		if m.expanded[i] {
			sb.WriteString(m.renderExceedanceDetail(e))
		}
	}
	return sb.String()
}

func (m *Model) renderExceedanceDetail(e report.Exceedance) string {
	var sb strings.Builder
	for _, s := range m.report.Samples {
		if s.Timestamp != e.Timestamp {
			continue
		}
		sb.WriteString(dimStyle.Render(fmt.Sprintf(
			"      t=%d ms  x=%.3f  y=%.3f  z=%.3f  |a|=%.3f",
			s.Timestamp, s.X, s.Y, s.Z, s.Magnitude)) + "\n")
		break
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m *Model) renderSamples() string {
	samples := m.report.Samples
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Samples (%d)", len(samples))))
	if len(samples) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %-14s %-11s %8s %8s %8s %8s", "t (ms)", "PK", "x", "y", "z", "|a|")) + "\n")
	for _, s := range samples {
		pk := dimStyle.Render(fmt.Sprintf("%-11s", "-"))
		if s.Position != nil {
			pk = pkStyle.Render(fmt.Sprintf("%-11.5f", *s.Position))
		}
		sb.WriteString(fmt.Sprintf("  %-14d %s %8.3f %8.3f %8.3f %8.3f\n", s.Timestamp, pk, s.X, s.Y, s.Z, s.Magnitude))
	}
	return sb.String()
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline buckets |values| into width columns, each showing its peak.
func sparkline(values []float64, width int, ceiling float64) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if width > len(values) {
		width = len(values)
	}
	if ceiling <= 0 {
		ceiling = 1
	}
	out := make([]rune, width)
	for col := 0; col < width; col++ {
		lo := col * len(values) / width
		hi := (col + 1) * len(values) / width
		peak := 0.0
		for _, v := range values[lo:hi] {
			peak = math.Max(peak, math.Abs(v))
		}
		lvl := int(peak / ceiling * float64(len(sparkLevels)-1))
		if lvl >= len(sparkLevels) {
			lvl = len(sparkLevels) - 1
		}
		out[col] = sparkLevels[lvl]
	}
	return string(out)
}

func (m *Model) renderChart() string {
	r := m.report
	var sb strings.Builder
	width := m.width - 6
	if width < 10 {
		width = 10
	}

	lateral := make([]float64, len(r.Samples))
	vertical := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		lateral[i] = s.Y
		vertical[i] = s.Z
	}

	sb.WriteString(heading("Lateral |Y| (scaled to LAI)"))
	if len(lateral) == 0 {
		sb.WriteString(dimStyle.Render("  (no samples)") + "\n")
	} else {
		sb.WriteString("  " + bandStyles["alert"].Render(sparkline(lateral, width, r.Thresholds.Immediate)) + "\n")
	}
	sb.WriteString(heading("Vertical |Z| (scaled to max)"))
	if len(vertical) == 0 {
		sb.WriteString(dimStyle.Render("  (no samples)") + "\n")
	} else {
		sb.WriteString("  " + sparkline(vertical, width, r.Summary.MaxVertical) + "\n")
	}
	sb.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  PK %s", r.PKRange())) + "\n")
	return sb.String()
}

func (m *Model) renderAnalysis() string {
	var sb strings.Builder
	sb.WriteString(heading("Analysis"))
	a := m.report.Analysis
	if a == nil {
		sb.WriteString(dimStyle.Render("  (not analysed, run 'pkrec analyze <id>')") + "\n")
		return sb.String()
	}
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-16s", label)) + "  " + value + "\n")
	}
	row("Activity:", a.ActivityType)
	row("Intensity:", fmt.Sprintf("%.0f/100", a.IntensityScore))
	style, ok := complianceStyles[a.ComplianceLevel]
	if !ok {
		style = dimStyle
	}
	row("Compliance:", style.Render(strings.ToUpper(string(a.ComplianceLevel))))

	if len(a.Observations) > 0 {
		sb.WriteString(heading("Observations"))
		for _, o := range a.Observations {
			sb.WriteString(bullet(o))
		}
	}
	if a.Recommendations != "" {
		sb.WriteString(heading("Recommendations"))
		sb.WriteString("  " + a.Recommendations + "\n")
	}
	return sb.String()
}

// Run starts the TUI for r.
func Run(r *report.Report, source string) error {
	p := tea.NewProgram(New(r, source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
