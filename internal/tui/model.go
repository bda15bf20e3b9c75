// Package tui hosts the canvas in a terminal. Mouse and key messages from
// bubbletea are translated into canvas events; every frame is rasterized
// onto a character grid.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/efebarandurmaz/sikuliflow/internal/canvas"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
	"github.com/efebarandurmaz/sikuliflow/internal/project"
)

// Rows reserved above and below the canvas.
const (
	headerRows = 1
	footerRows = 2
)

// frameInterval paces redraws while the erase trail fades.
const frameInterval = 33 * time.Millisecond

type tickMsg time.Time

// Options configures the host.
type Options struct {
	// Path is where ctrl+s writes the project. Empty disables saving.
	Path string
	// Dialect and OutputDir drive ctrl+e.
	Dialect   string
	OutputDir string
	GroupKey  string
}

// Model is the bubbletea model of the canvas host.
type Model struct {
	session *project.Session
	opts    Options
	styles  *Styles
	keys    keyMap
	help    help.Model

	width, height int
	pointer       *ir.Point
	ticking       bool
	status        string
	err           error
	quitting      bool
}

// NewModel returns a host editing s.
func NewModel(s *project.Session, opts Options) Model {
	if opts.GroupKey == "" {
		opts.GroupKey = canvas.DefaultConfig().GroupKey
	}
	return Model{
		session: s,
		opts:    opts,
		styles:  DefaultStyles(),
		keys:    newKeyMap(opts.GroupKey),
		help:    help.New(),
		width:   80,
		height:  24,
	}
}

// Session returns the edited session.
func (m Model) Session() *project.Session { return m.session }

// Status returns the last status line message.
func (m Model) Status() string { return m.status }

// Err returns the last operation error.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.ticking = false
		return m, m.animate()

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, m.animate()

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		if cmd != nil {
			return m, cmd
		}
		return m, m.animate()
	}
	return m, nil
}

// animate schedules the next tick while the active surface animates.
func (m *Model) animate() tea.Cmd {
	if m.ticking || !m.session.Active().Animating() {
		return nil
	}
	m.ticking = true
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// canvasPoint converts a terminal cell to a point on the canvas surface.
func canvasPoint(x, y int) ir.Point {
	return CellPoint(x, y-headerRows)
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	c := m.session.Active()
	pos := canvasPoint(msg.X, msg.Y)
	m.pointer = &pos

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		c.Wheel(canvas.WheelEvent{Pos: pos, Delta: -120})
		return
	case tea.MouseButtonWheelDown:
		c.Wheel(canvas.WheelEvent{Pos: pos, Delta: 120})
		return
	}

	ev := canvas.PointerEvent{
		Pos:          pos,
		Shift:        msg.Shift,
		InCancelZone: msg.Y < headerRows,
	}
	switch msg.Button {
	case tea.MouseButtonMiddle:
		ev.Button = canvas.ButtonMiddle
	case tea.MouseButtonRight:
		ev.Button = canvas.ButtonSecondary
	default:
		ev.Button = canvas.ButtonPrimary
	}

	switch msg.Action {
	case tea.MouseActionPress:
		c.PointerDown(ev)
	case tea.MouseActionMotion:
		c.PointerMove(ev)
	case tea.MouseActionRelease:
		c.PointerUp(ev)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	c := m.session.Active()
	ctx := context.Background()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Undo):
		c.Key(canvas.KeyEvent{Key: "z", Ctrl: true})

	case key.Matches(msg, m.keys.Redo):
		c.Key(canvas.KeyEvent{Key: "y", Ctrl: true})

	case key.Matches(msg, m.keys.Delete):
		c.Key(canvas.KeyEvent{Key: "delete"})

	case key.Matches(msg, m.keys.Cancel):
		c.Key(canvas.KeyEvent{Key: "escape"})

	case key.Matches(msg, m.keys.Group):
		if c.Key(canvas.KeyEvent{Key: m.opts.GroupKey}) {
			m.report("Grouped selection into a function", nil)
		}

	case key.Matches(msg, m.keys.Palette):
		m.place(msg.String())

	case key.Matches(msg, m.keys.Open):
		m.open()

	case key.Matches(msg, m.keys.Close):
		if m.session.CloseFunction() {
			m.report("Closed function without saving", nil)
		}

	case key.Matches(msg, m.keys.Save):
		m.save(ctx)

	case key.Matches(msg, m.keys.Export):
		m.export(ctx)
	}
	return nil
}

func (m *Model) place(digit string) {
	i, err := strconv.Atoi(digit)
	items := m.session.Palette()
	if err != nil || i < 1 || i > len(items) {
		return
	}
	it := items[i-1]
	c := m.session.Active()
	var ok bool
	if m.pointer != nil {
		ok = c.Place(it, c.Camera().ToWorld(*m.pointer))
	} else {
		ok = m.session.AddFromPalette(it)
	}
	if ok {
		m.report("Added "+it.Label, nil)
	}
}

func (m *Model) open() {
	ids := m.session.Active().Graph().SelectedIDs()
	if len(ids) != 1 {
		m.report("", fmt.Errorf("select exactly one call node to open"))
		return
	}
	e, err := m.session.OpenCall(ids[0])
	if err != nil {
		m.report("", err)
		return
	}
	m.report("Editing "+e.Name, nil)
}

func (m *Model) save(ctx context.Context) {
	if _, editing := m.session.Editing(); editing {
		def, rep, err := m.session.SaveFunction(ctx)
		if err != nil {
			m.report("", err)
			return
		}
		m.report(fmt.Sprintf("Saved %s (%d call sites, %d edges dropped)", def.Name, rep.Nodes, rep.Dropped), nil)
		return
	}
	if m.opts.Path == "" {
		m.report("", fmt.Errorf("no project path to save to"))
		return
	}
	if err := m.session.Save(ctx, m.opts.Path); err != nil {
		m.report("", err)
		return
	}
	m.report("Saved "+m.opts.Path, nil)
}

func (m *Model) export(ctx context.Context) {
	if m.opts.Dialect == "" || m.opts.OutputDir == "" {
		m.report("", fmt.Errorf("export needs a dialect and an output directory"))
		return
	}
	files, err := m.session.Export(ctx, m.opts.Dialect)
	if err != nil {
		m.report("", err)
		return
	}
	written, err := project.WriteFiles(m.opts.OutputDir, files)
	if err != nil {
		m.report("", err)
		return
	}
	m.report(fmt.Sprintf("Exported %d files to %s", len(written), m.opts.OutputDir), nil)
}

func (m *Model) report(status string, err error) {
	m.status = status
	m.err = err
}
