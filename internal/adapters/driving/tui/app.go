package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/trakhound/trakhound-core/internal/adapters/driving/tui/keymap"
	"github.com/trakhound/trakhound-core/internal/adapters/driving/tui/messages"
	"github.com/trakhound/trakhound-core/internal/adapters/driving/tui/styles"
	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// DefaultInterval is how often the monitor refreshes.
const DefaultInterval = 2 * time.Second

// App is the monitor application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports    *Ports
	ctx      context.Context
	styles   *styles.Styles
	keys     *keymap.KeyMap
	help     help.Model
	interval time.Duration

	drivers []domain.DriverStatus
	metrics []domain.BufferMetrics
	cursor  int

	// status is the outcome of the last command.
	status string
	err    error

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// Option configures an App.
type Option func(*App)

// WithInterval sets the refresh interval.
func WithInterval(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithContext sets the context driver commands run under.
func WithContext(ctx context.Context) Option {
	return func(a *App) {
		a.ctx = ctx
	}
}

// NewApp creates a monitor over ports.
func NewApp(ports *Ports, opts ...Option) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	a := &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   styles.DefaultStyles(),
		keys:     keymap.DefaultKeyMap(),
		help:     help.New(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init loads the first snapshot and starts the refresh ticker.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.refresh(), a.tick())
}

// Update handles messages and returns the updated model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.Tick:
		return a, tea.Batch(a.refresh(), a.tick())

	case messages.Refreshed:
		a.drivers = msg.Drivers
		a.metrics = msg.Metrics
		a.cursor = min(a.cursor, max(len(a.drivers)-1, 0))
		return a, nil

	case messages.CommandCompleted:
		switch {
		case msg.Err != nil:
			a.err = msg.Err
			a.status = ""
		default:
			a.err = nil
			a.status = describeCommand(msg)
		}
		return a, a.refresh()
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.drivers)-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.Refresh):
		return a, a.refresh()
	case key.Matches(msg, a.keys.Flush):
		d, ok := a.Selected()
		if !ok || !d.HasCommands {
			a.status = "selected driver has no commands"
			return a, nil
		}
		return a, a.run(d.ID, "flush")
	}
	return a, nil
}

func (a *App) refresh() tea.Cmd {
	drivers := a.ports.Drivers
	return func() tea.Msg {
		return messages.Refreshed{Drivers: drivers.Drivers(), Metrics: drivers.BufferMetrics()}
	}
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(a.interval, func(t time.Time) tea.Msg {
		return messages.Tick(t)
	})
}

func (a *App) run(driverID, command string) tea.Cmd {
	ctx, drivers := a.ctx, a.ports.Drivers
	return func() tea.Msg {
		resp, err := drivers.Run(ctx, driverID, command, nil)
		return messages.CommandCompleted{DriverID: driverID, Command: command, Response: resp, Err: err}
	}
}

// Selected returns the driver under the cursor.
func (a *App) Selected() (domain.DriverStatus, bool) {
	if a.cursor < 0 || a.cursor >= len(a.drivers) {
		return domain.DriverStatus{}, false
	}
	return a.drivers[a.cursor], true
}

// Status returns the outcome of the last command.
func (a *App) Status() string {
	return a.status
}

// Err returns the last command error.
func (a *App) Err() error {
	return a.err
}

// driverState renders availability. Unavailable drivers are a warning
// since a backed-off driver recovers on its own.
func (a *App) driverState(d domain.DriverStatus) string {
	if d.Available {
		return a.styles.Success.Render("available")
	}
	if d.Message == "" {
		return a.styles.Warning.Render("unavailable")
	}
	return a.styles.Warning.Render("unavailable: " + d.Message)
}

// View renders the driver list, the selected driver's buffers and help.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("TrakHound drivers"))
	b.WriteString("\n\n")

	if len(a.drivers) == 0 {
		b.WriteString(a.styles.Muted.Render("No drivers configured."))
		b.WriteString("\n")
	}
	for i, d := range a.drivers {
		name := fmt.Sprintf("%-28s", d.ID)
		if i == a.cursor {
			name = a.styles.Selected.Render(name)
		}
		fmt.Fprintf(&b, "%s %s  %s\n", name, a.driverState(d), a.styles.Muted.Render(routeSummary(d)))
	}

	if d, ok := a.Selected(); ok {
		if panel := a.metricsPanel(d.ID); panel != "" {
			b.WriteString("\n")
			b.WriteString(a.styles.Panel.Render(panel))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case a.err != nil:
		b.WriteString(a.styles.Error.Render(a.err.Error()))
		b.WriteString("\n")
	case a.status != "":
		b.WriteString(a.styles.Normal.Render(a.status))
		b.WriteString("\n")
	}
	b.WriteString(a.help.View(a.keys))
	return b.String()
}

func (a *App) metricsPanel(driverID string) string {
	var lines []string
	for _, m := range a.metrics {
		if m.DriverID != driverID {
			continue
		}
		lines = append(lines,
			a.styles.Title.Render(string(m.EntityType)),
			fmt.Sprintf("queue  %d/%d items  %.1f/s  %d total", m.Queue.Count, m.Queue.Limit, m.Queue.ItemRate, m.Queue.TotalItemCount),
			fmt.Sprintf("file   %d items  pages %d..%d  %d total", m.File.Count, m.File.ReadPageSequence, m.File.WritePageSequence, m.File.TotalItemCount),
		)
	}
	return strings.Join(lines, "\n")
}

func routeSummary(d domain.DriverStatus) string {
	types := make([]string, 0, len(d.Routes))
	for t := range d.Routes {
		types = append(types, string(t))
	}
	sort.Strings(types)
	return strings.Join(types, ", ")
}

func describeCommand(msg messages.CommandCompleted) string {
	s := fmt.Sprintf("%s on %s: status %d", msg.Command, msg.DriverID, msg.Response.StatusCode)
	if n, ok := msg.Response.Parameters["flushed"]; ok {
		s += fmt.Sprintf(", %s flushed", n)
	}
	return s
}
