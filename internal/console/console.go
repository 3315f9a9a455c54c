package console

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/oxabz/my-ambilight/internal/client"
	"github.com/oxabz/my-ambilight/internal/protocol"
)

// ErrNotTerminal is returned by Run when stdin is not an interactive terminal.
var ErrNotTerminal = errors.New("console needs an interactive terminal")

// Controller is the set of client operations the console drives.
// *client.Client satisfies it.
type Controller interface {
	Server() net.Addr
	Device() (protocol.Device, bool)
	Discover(ctx context.Context) (net.Addr, error)
	ActivateRandom() (protocol.Device, error)
	SetPixel(index, r, g, b uint8) error
	GaussianSweep(ctx context.Context, duration time.Duration, count int, interval time.Duration, onFrame func(elapsed time.Duration)) error
}

// Options tune the rainbow sweep.
type Options struct {
	SweepDuration time.Duration
	SweepLEDs     int
	FrameInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.SweepDuration <= 0 {
		o.SweepDuration = client.DefaultSweepDuration
	}
	if o.SweepLEDs <= 0 {
		o.SweepLEDs = client.DefaultSweepLEDs
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = client.DefaultFrameInterval
	}
	return o
}

type mode int

const (
	modeMenu mode = iota
	modePixel
	modeSweep
)

var pixelFields = [4]string{"pixel", "red", "green", "blue"}

// Messages produced by client commands

type discoveredMsg struct {
	addr net.Addr
	err  error
}

type activatedMsg struct {
	device protocol.Device
	err    error
}

type pixelSentMsg struct {
	index, r, g, b uint8
	err            error
}

type sweepProgressMsg struct {
	elapsed time.Duration
}

type sweepDoneMsg struct {
	err error
}

// Model is the bubbletea model for the interactive client.
type Model struct {
	ctl     Controller
	options Options

	keys      keyMap
	inputKeys inputKeyMap
	help      help.Model

	mode   mode
	inputs [4]textinput.Model
	focus  int

	busy         bool
	sweepEvents  chan tea.Msg
	sweepCancel  context.CancelFunc
	sweepElapsed time.Duration

	lastPixel *[3]uint8
	status    string
	err       error
	log       []string
	width     int
	quitting  bool
}

// New creates a console model driving ctl.
func New(ctl Controller, options Options) Model {
	var inputs [4]textinput.Model
	for i, name := range pixelFields {
		ti := textinput.New()
		ti.Placeholder = "0-255"
		ti.Prompt = fmt.Sprintf("%-6s ", name)
		ti.CharLimit = 3
		ti.Width = 5
		inputs[i] = ti
	}

	return Model{
		ctl:       ctl,
		options:   options.withDefaults(),
		keys:      newKeyMap(),
		inputKeys: newInputKeyMap(),
		help:      help.New(),
		inputs:    inputs,
		width:     MinTerminalWidth,
		status:    "Pick an action",
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)
		m.help.Width = m.width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.sweepCancel != nil {
				m.sweepCancel()
			}
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modePixel:
			return m.updatePixel(msg)
		case modeSweep:
			return m.updateSweep(msg)
		}
		return m.updateMenu(msg)

	case discoveredMsg:
		m.busy = false
		if msg.err != nil {
			return m.fail("hello", msg.err), nil
		}
		m.err = nil
		m.status = "Found server at " + msg.addr.String()
		m.appendLog(m.status)
		return m, nil

	case activatedMsg:
		m.busy = false
		if msg.err != nil {
			return m.fail("set active", msg.err), nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Sent set active to device %d", msg.device)
		m.appendLog(m.status)
		return m, nil

	case pixelSentMsg:
		m.busy = false
		if msg.err != nil {
			return m.fail("set pixel", msg.err), nil
		}
		m.err = nil
		m.lastPixel = &[3]uint8{msg.r, msg.g, msg.b}
		m.status = fmt.Sprintf("Set pixel %d to (%d, %d, %d)", msg.index, msg.r, msg.g, msg.b)
		m.appendLog(m.status)
		return m, nil

	case sweepProgressMsg:
		m.sweepElapsed = msg.elapsed
		if m.sweepEvents == nil {
			return m, nil
		}
		return m, waitSweep(m.sweepEvents)

	case sweepDoneMsg:
		m.mode = modeMenu
		m.busy = false
		m.sweepEvents = nil
		if m.sweepCancel != nil {
			m.sweepCancel()
			m.sweepCancel = nil
		}
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			return m.fail("rainbow", msg.err), nil
		}
		m.err = nil
		if msg.err != nil {
			m.status = "Rainbow stopped"
		} else {
			m.status = "Rainbow finished"
		}
		m.appendLog(m.status)
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Hello):
		m.busy = true
		m.status = "Looking for a server..."
		return m, discoverCmd(m.ctl)

	case key.Matches(msg, m.keys.Activate):
		m.busy = true
		return m, activateCmd(m.ctl)

	case key.Matches(msg, m.keys.Pixel):
		m.mode = modePixel
		m.focus = 0
		for i := range m.inputs {
			m.inputs[i].Reset()
			m.inputs[i].Blur()
		}
		m.status = "Enter pixel number and color"
		return m, m.inputs[0].Focus()

	case key.Matches(msg, m.keys.Rainbow):
		ctx, cancel := context.WithCancel(context.Background())
		m.mode = modeSweep
		m.busy = true
		m.sweepCancel = cancel
		m.sweepElapsed = 0
		m.sweepEvents = startSweep(ctx, m.ctl, m.options)
		m.status = "Rainbow running"
		return m, waitSweep(m.sweepEvents)
	}

	m.status = "Invalid input"
	return m, nil
}

func (m Model) updatePixel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.inputKeys.Cancel):
		m.mode = modeMenu
		m.inputs[m.focus].Blur()
		m.status = "Pick an action"
		return m, nil

	case key.Matches(msg, m.inputKeys.Prev):
		if m.focus == 0 {
			return m, nil
		}
		m.inputs[m.focus].Blur()
		m.focus--
		return m, m.inputs[m.focus].Focus()

	case key.Matches(msg, m.inputKeys.Next):
		if _, err := parseByte(m.inputs[m.focus].Value()); err != nil {
			m.err = fmt.Errorf("%s: %w", pixelFields[m.focus], err)
			return m, nil
		}
		m.err = nil
		if m.focus < len(m.inputs)-1 {
			m.inputs[m.focus].Blur()
			m.focus++
			return m, m.inputs[m.focus].Focus()
		}

		values, err := m.pixelValues()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.inputs[m.focus].Blur()
		m.mode = modeMenu
		m.busy = true
		return m, pixelCmd(m.ctl, values)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateSweep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.inputKeys.Cancel) || key.Matches(msg, m.keys.Quit) {
		if m.sweepCancel != nil {
			m.sweepCancel()
		}
		m.status = "Stopping rainbow..."
	}
	return m, nil
}

func (m Model) pixelValues() ([4]uint8, error) {
	var values [4]uint8
	for i, in := range m.inputs {
		v, err := parseByte(in.Value())
		if err != nil {
			return values, fmt.Errorf("%s: %w", pixelFields[i], err)
		}
		values[i] = v
	}
	return values, nil
}

func (m Model) fail(action string, err error) Model {
	m.err = fmt.Errorf("%s: %w", action, err)
	m.status = "Failed to " + action
	m.appendLog(m.err.Error())
	return m
}

func (m *Model) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return 0, errors.New("invalid input, expected 0-255")
	}
	return uint8(v), nil
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ambilight console"))
	b.WriteString("\n\n")

	server := "broadcast"
	if addr := m.ctl.Server(); addr != nil {
		server = addr.String()
	}
	device := "none"
	if d, ok := m.ctl.Device(); ok {
		device = strconv.Itoa(int(d))
	}
	b.WriteString(labelStyle.Render("server") + valueStyle.Render(server) + "\n")
	b.WriteString(labelStyle.Render("device") + valueStyle.Render(device))
	if m.lastPixel != nil {
		b.WriteString("  " + swatch(m.lastPixel[0], m.lastPixel[1], m.lastPixel[2]))
	}
	b.WriteString("\n\n")

	switch m.mode {
	case modePixel:
		for i := range m.inputs {
			line := m.inputs[i].View()
			if i == m.focus {
				line = promptStyle.Render(">") + " " + line
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
	case modeSweep:
		r, g, bl := client.SweepColor(m.sweepElapsed)
		b.WriteString(progressStyle.Render(fmt.Sprintf("rainbow %4.1fs / %.0fs ",
			m.sweepElapsed.Seconds(), m.options.SweepDuration.Seconds())))
		b.WriteString(swatch(r, g, bl) + "\n")
	default:
		status := m.status
		if m.busy {
			status = progressStyle.Render(status)
		} else {
			status = successStyle.Render(status)
		}
		b.WriteString(status + "\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}

	if len(m.log) > 0 {
		b.WriteString("\n" + logStyle.Render(strings.Join(m.log, "\n")) + "\n")
	}

	body := panelStyle(m.width).Render(b.String())
	if m.mode == modeMenu {
		return body + "\n" + m.help.View(m.keys)
	}
	return body + "\n" + m.help.View(m.inputKeys)
}

func discoverCmd(ctl Controller) tea.Cmd {
	return func() tea.Msg {
		addr, err := ctl.Discover(context.Background())
		return discoveredMsg{addr: addr, err: err}
	}
}

func activateCmd(ctl Controller) tea.Cmd {
	return func() tea.Msg {
		d, err := ctl.ActivateRandom()
		return activatedMsg{device: d, err: err}
	}
}

func pixelCmd(ctl Controller, v [4]uint8) tea.Cmd {
	return func() tea.Msg {
		err := ctl.SetPixel(v[0], v[1], v[2], v[3])
		return pixelSentMsg{index: v[0], r: v[1], g: v[2], b: v[3], err: err}
	}
}

// startSweep runs the sweep in the background. Progress is delivered on the
// returned channel, dropping frames the UI has not caught up with, and the
// channel always ends with a sweepDoneMsg.
func startSweep(ctx context.Context, ctl Controller, o Options) chan tea.Msg {
	events := make(chan tea.Msg, 1)
	go func() {
		err := ctl.GaussianSweep(ctx, o.SweepDuration, o.SweepLEDs, o.FrameInterval, func(elapsed time.Duration) {
			select {
			case events <- sweepProgressMsg{elapsed: elapsed}:
			default:
			}
		})
		// The UI may still hold a stale progress message; make room.
		select {
		case <-events:
		default:
		}
		events <- sweepDoneMsg{err: err}
	}()
	return events
}

func waitSweep(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// Run starts the console on the current terminal and blocks until the user
// quits.
func Run(ctl Controller, options Options) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ErrNotTerminal
	}

	m := New(ctl, options)
	m.width = GetTerminalWidth()
	m.help.Width = m.width

	_, err := tea.NewProgram(m).Run()
	return err
}
