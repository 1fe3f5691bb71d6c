package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ivesdebruycker/maxcube/internal/codec"
	"github.com/ivesdebruycker/maxcube/internal/cube"
)

// refreshTimeout bounds the manual device list poll
const refreshTimeout = 30 * time.Second

// Session is the slice of the cube client the monitor reads from
type Session interface {
	Updates() <-chan cube.Update
	Done() <-chan struct{}
	Devices() []codec.Device
	DeviceInfo(rfAddress string) (cube.DeviceInfo, error)
	CommStatus() codec.CommStatus
	Hello() *codec.Hello
	GetDeviceStatus(ctx context.Context) ([]codec.DeviceStatus, error)
}

// Messages for async operations
type updateMsg cube.Update
type sessionDoneMsg struct{}
type refreshDoneMsg struct{ err error }

// monitorKeyMap defines key bindings for the monitor screen
type monitorKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Refresh, k.Quit},
	}
}

func newMonitorKeyMap() monitorKeyMap {
	return monitorKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// MonitorModel is the live dashboard over one cube session
type MonitorModel struct {
	session Session

	Table table.Model
	Keys  monitorKeyMap
	Help  help.Model

	Width  int
	Height int

	LastEvent    string
	Disconnected bool
	LastError    error

	quitting bool
}

// NewMonitorModel creates the dashboard model for a ready session
func NewMonitorModel(session Session) MonitorModel {
	columns := []table.Column{
		{Title: "Room", Width: 14},
		{Title: "Device", Width: 18},
		{Title: "Kind", Width: 16},
		{Title: "Mode", Width: 8},
		{Title: "Set", Width: 6},
		{Title: "Temp", Width: 6},
		{Title: "Valve", Width: 5},
		{Title: "Flags", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		BorderBottom(true).
		Bold(true).
		Foreground(PrimaryColor)
	styles.Selected = styles.Selected.
		Foreground(SecondaryColor).
		Bold(true)
	t.SetStyles(styles)

	m := MonitorModel{
		session: session,
		Table:   t,
		Keys:    newMonitorKeyMap(),
		Help:    help.New(),
	}
	m.refreshRows()
	return m
}

// Init starts listening for cube updates
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(
		waitForUpdate(m.session),
		waitForDone(m.session),
	)
}

// waitForUpdate blocks on the session's update feed and converts the next
// update to a tea message
func waitForUpdate(session Session) tea.Cmd {
	return func() tea.Msg {
		select {
		case update := <-session.Updates():
			return updateMsg(update)
		case <-session.Done():
			return sessionDoneMsg{}
		}
	}
}

func waitForDone(session Session) tea.Cmd {
	return func() tea.Msg {
		<-session.Done()
		return sessionDoneMsg{}
	}
}

// refreshCmd asks the cube for a fresh device list
func refreshCmd(session Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		_, err := session.GetDeviceStatus(ctx)
		return refreshDoneMsg{err: err}
	}
}

// Update handles all messages
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetWidth(msg.Width - 6)
		if msg.Height > 12 {
			m.Table.SetHeight(msg.Height - 10)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Refresh):
			if m.Disconnected {
				return m, nil
			}
			return m, refreshCmd(m.session)
		}

	case updateMsg:
		m.LastEvent = cube.Update(msg).Kind.String()
		m.refreshRows()
		return m, waitForUpdate(m.session)

	case sessionDoneMsg:
		m.Disconnected = true
		return m, nil

	case refreshDoneMsg:
		m.LastError = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

// refreshRows rebuilds the table rows from the session state
func (m *MonitorModel) refreshRows() {
	devices := m.session.Devices()
	rows := make([]table.Row, 0, len(devices))
	for _, dev := range devices {
		info, err := m.session.DeviceInfo(dev.RFAddress)
		if err != nil {
			continue
		}
		rows = append(rows, deviceRow(info))
	}
	m.Table.SetRows(rows)
}

// deviceRow formats one device join as a table row
func deviceRow(info cube.DeviceInfo) table.Row {
	room := info.RoomName
	if room == "" {
		room = "-"
	}

	mode, setpoint, temp, valve := "-", "-", "-", "-"
	flags := deviceFlags(info.Status)
	if status := info.Status; status != nil {
		mode = strings.ToLower(status.Mode.String())
		if status.Kind == codec.StatusThermostat || status.Kind == codec.StatusWallThermostat {
			setpoint = fmt.Sprintf("%.1f", status.Setpoint)
			valve = fmt.Sprintf("%d%%", status.ValvePercent)
		}
		if status.Temperature != nil {
			temp = fmt.Sprintf("%.1f", *status.Temperature)
		}
	}

	return table.Row{
		room,
		info.Device.Name,
		info.Device.Type.String(),
		mode,
		setpoint,
		temp,
		valve,
		flags,
	}
}

// deviceFlags condenses the status flags to a short annotation column
func deviceFlags(status *codec.DeviceStatus) string {
	if status == nil {
		return "no report"
	}

	var flags []string
	if status.BatteryLow {
		flags = append(flags, "battery!")
	}
	if status.LinkError {
		flags = append(flags, "link!")
	}
	if status.Open != nil {
		if *status.Open {
			flags = append(flags, "open")
		} else {
			flags = append(flags, "closed")
		}
	}
	if status.Mode == codec.ModeVacation && status.DateUntil != "" {
		flags = append(flags, "until "+status.DateUntil)
	}
	if len(flags) == 0 {
		return "ok"
	}
	return strings.Join(flags, " ")
}

// View renders the dashboard
func (m MonitorModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.titleLine()))
	b.WriteString("\n")
	b.WriteString(m.Table.View())
	b.WriteString("\n")
	b.WriteString(StatusBarStyle.Render(m.statusLine()))
	if m.Disconnected {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("✗ Connection to cube lost"))
	} else if m.LastError != nil {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render("⚠ " + m.LastError.Error()))
	}

	helpText := m.Help.View(m.Keys)
	return RenderApplicationContainer(b.String(), helpText, m.Width, m.Height)
}

func (m MonitorModel) titleLine() string {
	if hello := m.session.Hello(); hello != nil {
		return fmt.Sprintf("Cube %s (fw %s)", hello.SerialNumber, hello.FirmwareVersion)
	}
	return "Cube"
}

func (m MonitorModel) statusLine() string {
	comm := m.session.CommStatus()
	line := fmt.Sprintf("duty cycle %d%% • free slots %d", comm.DutyCycle, comm.FreeMemorySlots)
	if m.LastEvent != "" {
		line += " • last event: " + m.LastEvent
	}
	return line
}

// Run starts the dashboard on the given session and blocks until the user
// quits or the terminal goes away
func Run(session Session) error {
	p := tea.NewProgram(NewMonitorModel(session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
