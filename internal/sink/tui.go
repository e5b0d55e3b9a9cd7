package sink

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"carbontrace/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// sampleMsg carries the latest record into the model.
type sampleMsg struct{ rec telemetry.MetricRecord }

// logMsg carries one formatted sample line for the scrollback.
type logMsg struct{ line string }

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	borderStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// TUISink renders the latest sample in a live terminal view: a gauge
// table on top, a scrolling sample log below.
type TUISink struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUISink starts the bubbletea program. When the user quits the view,
// the process receives an interrupt so the sampling loop shuts down too.
func NewTUISink(static telemetry.StaticInfo) *TUISink {
	s := &TUISink{done: make(chan struct{})}
	s.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(static), tea.WithAltScreen())
	s.program = p
	go func() {
		_, _ = p.Run()
		close(s.done)
		if s.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return s
}

func (s *TUISink) Name() string { return "tui" }

// Publish pushes the record into the running view.
func (s *TUISink) Publish(rec telemetry.MetricRecord) error {
	s.program.Send(sampleMsg{rec: rec})
	s.program.Send(logMsg{line: formatSampleLine(rec)})
	return nil
}

// Close shuts down the view and waits for terminal restore.
func (s *TUISink) Close() error {
	s.sendSignal.Store(false)
	if s.program != nil {
		s.program.Send(tea.Quit())
	}
	if s.done != nil {
		<-s.done
	}
	return nil
}

func formatSampleLine(rec telemetry.MetricRecord) string {
	return fmt.Sprintf("[%s] run=%s src=%s cpu=%.2fW gpu=%.2fW ram=%.2fW energy=%.3e kWh co2=%.3e kg",
		rec.Timestamp.Format(time.RFC3339), rec.RunID, rec.Power.Source,
		rec.Power.CPUPower, rec.Power.GPUPower, rec.Power.RAMPower,
		rec.Energy.EnergyConsumed, rec.Energy.Emissions)
}

type tuiModel struct {
	static telemetry.StaticInfo
	table  table.Model
	vp     viewport.Model
	logs   []string
	width  int
	height int
	ready  bool
}

func newTUIModel(static telemetry.StaticInfo) tuiModel {
	cols := []table.Column{
		{Title: "Metric", Width: 20},
		{Title: "Value", Width: 24},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(10))
	t.SetStyles(table.DefaultStyles())
	return tuiModel{static: static, table: t}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logHeight := m.height - 16
		if logHeight < 3 {
			logHeight = 3
		}
		if !m.ready {
			m.vp = viewport.New(m.width-2, logHeight)
			m.ready = true
		} else {
			m.vp.Width = m.width - 2
			m.vp.Height = logHeight
		}
		m.refreshLog()
	case sampleMsg:
		m.table.SetRows(gaugeRows(msg.rec))
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > 500 {
			m.logs = m.logs[len(m.logs)-500:]
		}
		m.refreshLog()
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *tuiModel) refreshLog() {
	if !m.ready {
		return
	}
	var content string
	for _, line := range m.logs {
		content += wordwrap.String(line, m.vp.Width) + "\n"
	}
	m.vp.SetContent(content)
	m.vp.GotoBottom()
}

func (m tuiModel) View() string {
	title := titleStyle.Render("carbontrace")
	host := headerStyle.Render(fmt.Sprintf("%s | %s | %d cores | %.1f GB RAM",
		m.static.OS, m.static.CPUName, m.static.CPUCount, m.static.RAMTotalGB))
	footer := footerStyle.Render("q: quit")
	body := borderStyle.Render(m.table.View())
	log := ""
	if m.ready {
		log = m.vp.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, host, body, log, footer)
}

func gaugeRows(rec telemetry.MetricRecord) []table.Row {
	return []table.Row{
		{"source", rec.Power.Source},
		{"cpu_power (W)", fmt.Sprintf("%.3f", rec.Power.CPUPower)},
		{"gpu_power (W)", fmt.Sprintf("%.3f", rec.Power.GPUPower)},
		{"ram_power (W)", fmt.Sprintf("%.3f", rec.Power.RAMPower)},
		{"energy (kWh)", fmt.Sprintf("%.6e", rec.Energy.EnergyConsumed)},
		{"emissions (kgCO2e)", fmt.Sprintf("%.6e", rec.Energy.Emissions)},
		{"emissions_rate", fmt.Sprintf("%.6e", rec.Energy.EmissionsRate)},
		{"run_id", rec.RunID},
	}
}
