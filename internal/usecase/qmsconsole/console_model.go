package qmsconsole

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/usecase/capa"
)

const (
	maxShownAlerts = 6
	maxLogLines    = 6
)

// Source is the read side of the CAPA service the console renders.
type Source interface {
	ListCARs(ctx context.Context, filter capa.ListCARsFilter) ([]qms.CAR, error)
	GetCAR(ctx context.Context, id string) (capa.CARDetail, error)
	Dashboard(ctx context.Context) (capa.DashboardReport, error)
	Check(ctx context.Context) ([]capa.Drift, error)
}

type Options struct {
	StatusFilter    string
	RefreshInterval time.Duration
}

// statusCycle is the order the f key walks through; "" shows every CAR.
var statusCycle = []string{
	"",
	string(qms.CARStatusOpen),
	string(qms.CARStatusInProgress),
	string(qms.CARStatusPendingVerification),
	string(qms.CARStatusOverdue),
	string(qms.CARStatusClosed),
}

type consoleModel struct {
	ctx             context.Context
	source          Source
	statusFilter    string
	refreshInterval time.Duration

	cars          []qms.CAR
	selectedIndex int
	detail        capa.CARDetail
	hasDetail     bool
	dashboard     capa.DashboardReport
	hasDashboard  bool
	status        string
	logLines      []string
}

type carsLoadedMsg struct {
	items []qms.CAR
	err   error
}

type dashboardLoadedMsg struct {
	report capa.DashboardReport
	err    error
}

type detailLoadedMsg struct {
	carID  string
	detail capa.CARDetail
	err    error
}

type checkDoneMsg struct {
	drift []capa.Drift
	err   error
}

// ReloadMsg asks the console to refresh everything. The caller sends it
// when the change feed reports a write.
type ReloadMsg struct {
	Report capa.DashboardReport
}

type tickMsg struct{}

func NewModel(ctx context.Context, source Source, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &consoleModel{
		ctx:             ctx,
		source:          source,
		statusFilter:    normalizeStatusFilter(options.StatusFilter),
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return tea.Batch(m.loadDashboardCmd(), m.loadCARsCmd(), m.tickCmd())
}

func (m *consoleModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadDashboardCmd(), m.loadCARsCmd(), m.tickCmd())
	case ReloadMsg:
		m.dashboard = msg.Report
		m.hasDashboard = true
		m.status = "records changed, reloaded"
		return m, m.loadCARsCmd()
	case dashboardLoadedMsg:
		if msg.err != nil {
			m.status = "dashboard load failed: " + msg.err.Error()
			return m, nil
		}
		m.dashboard = msg.report
		m.hasDashboard = true
		return m, nil
	case carsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.cars = msg.items
		if len(m.cars) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "no CARs"
			return m, nil
		}
		m.selectedIndex = clamp(m.selectedIndex, 0, len(m.cars)-1)
		m.status = fmt.Sprintf("refreshed, %d CARs", len(m.cars))
		return m, m.loadDetailCmd()
	case detailLoadedMsg:
		selected, ok := m.selectedCAR()
		if !ok || selected.ID != msg.carID {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "detail load failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.hasDetail = true
		return m, nil
	case checkDoneMsg:
		m.appendLog(msg)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, tea.Batch(m.loadDashboardCmd(), m.loadCARsCmd())
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadDetailCmd()
			}
		case "down", "j":
			if m.selectedIndex < len(m.cars)-1 {
				m.selectedIndex++
				return m, m.loadDetailCmd()
			}
		case "f":
			m.statusFilter = nextStatusFilter(m.statusFilter)
			m.selectedIndex = 0
			return m, m.loadCARsCmd()
		case "c":
			m.status = "checking status consistency"
			return m, m.checkCmd()
		}
	}
	return m, nil
}

func (m *consoleModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("AeroQualify QMS"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("filter=%s refresh=%s", firstNonEmpty(m.statusFilter, "all"), m.refreshInterval)))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Compliance"))
	b.WriteString("\n")
	if !m.hasDashboard {
		b.WriteString(dimStyle.Render("- not loaded"))
		b.WriteString("\n\n")
	} else {
		d := m.dashboard.Dashboard
		b.WriteString(ScoreStyle(d.Score.Band).Render(fmt.Sprintf("%d/100 %s", d.Score.Total, d.Score.Band)))
		b.WriteString(fmt.Sprintf("  today=%s\n", m.dashboard.Today))
		for _, p := range d.Score.Pillars {
			b.WriteString(fmt.Sprintf("  %-28s %2d/%d\n", p.Label, p.Score, p.Max))
		}
		b.WriteString(fmt.Sprintf("CARs: %s\n", formatStatusCounts(d.CARsByStatus)))
		b.WriteString(fmt.Sprintf("Risks: total=%d critical=%d high=%d open=%d\n", d.Risks.Total, d.Risks.Critical, d.Risks.High, d.Risks.Open))
		b.WriteString(fmt.Sprintf("Audits scheduled: %d  Flight docs due soon: %d\n", d.ScheduledAudits, d.FlightDocsDueSoon))
		if len(m.dashboard.Degraded) > 0 {
			b.WriteString(warnStyle.Render("degraded: " + strings.Join(m.dashboard.Degraded, ",")))
			b.WriteString("\n")
		}
		b.WriteString("\n")

		b.WriteString(sectionStyle.Render(fmt.Sprintf("Alerts (%d)", len(d.Alerts))))
		b.WriteString("\n")
		if len(d.Alerts) == 0 {
			b.WriteString(dimStyle.Render("- none"))
			b.WriteString("\n")
		}
		for i, a := range d.Alerts {
			if i == maxShownAlerts {
				b.WriteString(dimStyle.Render(fmt.Sprintf("- ... %d more", len(d.Alerts)-maxShownAlerts)))
				b.WriteString("\n")
				break
			}
			b.WriteString("- " + formatAlert(a) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("CARs"))
	b.WriteString("\n")
	if len(m.cars) == 0 {
		b.WriteString(dimStyle.Render("- no CARs"))
		b.WriteString("\n\n")
	} else {
		for i, car := range m.cars {
			line := fmt.Sprintf("%s [%s] %s due=%s %s", car.ID, car.Status, car.Severity, car.DueDate, car.Title)
			if i == m.selectedIndex {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Detail"))
	b.WriteString("\n")
	if !m.hasDetail {
		b.WriteString(dimStyle.Render("- no detail"))
		b.WriteString("\n\n")
	} else {
		b.WriteString(formatDetail(m.detail))
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Status"))
	b.WriteString("\n")
	b.WriteString("- " + firstNonEmpty(m.status, "ready") + "\n")
	for _, line := range m.logLines {
		b.WriteString(dimStyle.Render("- "+line) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(dimStyle.Render("Keys: up/k down/j move  f filter  g refresh  c check  q quit"))
	return b.String()
}

func (m *consoleModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *consoleModel) loadDashboardCmd() tea.Cmd {
	return func() tea.Msg {
		report, err := m.source.Dashboard(m.ctx)
		return dashboardLoadedMsg{report: report, err: err}
	}
}

func (m *consoleModel) loadCARsCmd() tea.Cmd {
	filter := m.statusFilter
	return func() tea.Msg {
		items, err := m.source.ListCARs(m.ctx, capa.ListCARsFilter{Status: filter})
		if err != nil {
			return carsLoadedMsg{err: err}
		}
		return carsLoadedMsg{items: sortForTriage(items)}
	}
}

func (m *consoleModel) loadDetailCmd() tea.Cmd {
	selected, ok := m.selectedCAR()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		detail, err := m.source.GetCAR(m.ctx, selected.ID)
		return detailLoadedMsg{carID: selected.ID, detail: detail, err: err}
	}
}

func (m *consoleModel) checkCmd() tea.Cmd {
	return func() tea.Msg {
		drift, err := m.source.Check(m.ctx)
		return checkDoneMsg{drift: drift, err: err}
	}
}

func (m *consoleModel) selectedCAR() (qms.CAR, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.cars) {
		return qms.CAR{}, false
	}
	return m.cars[m.selectedIndex], true
}

func (m *consoleModel) appendLog(msg checkDoneMsg) {
	var line string
	switch {
	case msg.err != nil:
		line = "check failed: " + msg.err.Error()
	case len(msg.drift) == 0:
		line = "check: statuses consistent"
	default:
		parts := make([]string, 0, len(msg.drift))
		for _, d := range msg.drift {
			parts = append(parts, fmt.Sprintf("%s stored=%s derived=%s", d.CARID, d.Stored, d.Derived))
		}
		line = fmt.Sprintf("check: %d drifted: %s", len(msg.drift), strings.Join(parts, "; "))
	}
	m.status = line
	m.logLines = append([]string{time.Now().UTC().Format(time.RFC3339) + " " + line}, m.logLines...)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[:maxLogLines]
	}
	logging.Info(m.ctx, "console consistency check", slog.Int("drift", len(msg.drift)), slog.Bool("failed", msg.err != nil))
}

// ScoreStyle colours a compliance band; the CLI score command reuses it.
func ScoreStyle(band qms.ScoreBand) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch band {
	case qms.ScoreExcellent:
		return style.Foreground(lipgloss.Color("42"))
	case qms.ScoreGood:
		return style.Foreground(lipgloss.Color("39"))
	case qms.ScoreSatisfactory:
		return style.Foreground(lipgloss.Color("214"))
	default:
		return style.Foreground(lipgloss.Color("196"))
	}
}

// sortForTriage puts open work first, then by due date, then by id.
func sortForTriage(items []qms.CAR) []qms.CAR {
	out := append([]qms.CAR(nil), items...)
	sort.SliceStable(out, func(i int, j int) bool {
		ti, tj := out[i].Status.IsTerminal(), out[j].Status.IsTerminal()
		if ti != tj {
			return !ti
		}
		di, dj := out[i].DueDate, out[j].DueDate
		switch {
		case di.IsZero() != dj.IsZero():
			return !di.IsZero()
		case !di.Equal(dj):
			return di.Before(dj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func formatStatusCounts(counts map[qms.CARStatus]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for status := range counts {
		keys = append(keys, string(status))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[qms.CARStatus(k)]))
	}
	return strings.Join(parts, " ")
}

func formatAlert(a qms.Alert) string {
	when := fmt.Sprintf("due in %dd", a.Days)
	if a.State == qms.DueOverdue {
		when = fmt.Sprintf("overdue %dd", -a.Days)
	}
	return fmt.Sprintf("%s %s %s (%s, %s)", a.Source, a.ID, a.Title, a.Due, when)
}

func formatDetail(d capa.CARDetail) string {
	var b strings.Builder
	car := d.CAR
	b.WriteString(fmt.Sprintf("%s %s\n", car.ID, car.Title))
	b.WriteString(fmt.Sprintf("Status: %s  Severity: %s  Due: %s (%s)\n", car.Status, car.Severity, car.DueDate, d.Due))
	b.WriteString(fmt.Sprintf("Clause: %s  Manager: %s\n", firstNonEmpty(car.QMSClause, "-"), firstNonEmpty(car.ResponsibleManager, "-")))
	if d.CAP == nil {
		b.WriteString("CAP: none\n")
	} else {
		b.WriteString(fmt.Sprintf("CAP: %s %s evidence=%d\n", d.CAP.ID, d.CAP.Status, len(d.CAP.EvidenceFiles)))
	}
	if d.Verification == nil {
		b.WriteString("Verification: none\n")
	} else {
		v := d.Verification
		b.WriteString(fmt.Sprintf("Verification: %s %s effectiveness=%s\n", v.ID, v.Status, v.EffectivenessRating))
	}
	if d.Recommendation != nil {
		b.WriteString(fmt.Sprintf("Checklist: %d/%d  %s\n", d.Recommendation.Passed, qms.ChecklistItems, d.Recommendation.Message))
	}
	return b.String()
}

func normalizeStatusFilter(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return ""
	}
	status, err := qms.ParseCARStatus(trimmed)
	if err != nil {
		return ""
	}
	return string(status)
}

func nextStatusFilter(current string) string {
	for i, s := range statusCycle {
		if s == current {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return statusCycle[0]
}

func clamp(v int, lo int, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
