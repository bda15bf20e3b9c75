package tui

import (
	"math"
	"strings"

	"github.com/efebarandurmaz/sikuliflow/internal/camera"
	"github.com/efebarandurmaz/sikuliflow/internal/canvas"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
	"github.com/efebarandurmaz/sikuliflow/internal/render"
)

// Screen size of one terminal cell. The controller sees cell (c, r) as the
// screen point (c*CellWidth, r*CellHeight).
const (
	CellWidth  = 10.0
	CellHeight = 20.0
)

// CellPoint converts a terminal cell to a controller screen point.
func CellPoint(col, row int) ir.Point {
	return ir.Point{X: float64(col) * CellWidth, Y: float64(row) * CellHeight}
}

type grid struct {
	cols, rows int
	cells      [][]rune
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows, cells: make([][]rune, rows)}
	for r := range g.cells {
		g.cells[r] = []rune(strings.Repeat(" ", cols))
	}
	return g
}

func (g *grid) set(col, row int, ch rune) {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return
	}
	g.cells[row][col] = ch
}

func (g *grid) text(col, row int, s string, max int) {
	for i, ch := range []rune(s) {
		if i >= max {
			break
		}
		g.set(col+i, row, ch)
	}
}

func (g *grid) lines() []string {
	out := make([]string, g.rows)
	for r, row := range g.cells {
		out[r] = string(row)
	}
	return out
}

func cellOf(cam camera.Camera, p ir.Point) (int, int) {
	s := cam.ToScreen(p)
	return int(math.Floor(s.X / CellWidth)), int(math.Floor(s.Y / CellHeight))
}

// plot draws a polyline through world points.
func (g *grid) plot(cam camera.Camera, pts []ir.Point, ch rune) {
	if len(pts) == 1 {
		c, r := cellOf(cam, pts[0])
		g.set(c, r, ch)
		return
	}
	for i := 1; i < len(pts); i++ {
		c0, r0 := cellOf(cam, pts[i-1])
		c1, r1 := cellOf(cam, pts[i])
		steps := max(abs(c1-c0), abs(r1-r0))
		if steps == 0 {
			g.set(c0, r0, ch)
			continue
		}
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			g.set(c0+int(math.Round(t*float64(c1-c0))), r0+int(math.Round(t*float64(r1-r0))), ch)
		}
	}
}

type boxStyle struct{ h, v, tl, tr, bl, br rune }

var (
	plainBox    = boxStyle{'─', '│', '╭', '╮', '╰', '╯'}
	selectedBox = boxStyle{'═', '║', '╔', '╗', '╚', '╝'}
	markedBox   = boxStyle{'#', '#', '#', '#', '#', '#'}
)

func (g *grid) box(c0, r0, c1, r1 int, st boxStyle) {
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			g.set(c, r, ' ')
		}
	}
	for c := c0 + 1; c < c1; c++ {
		g.set(c, r0, st.h)
		g.set(c, r1, st.h)
	}
	for r := r0 + 1; r < r1; r++ {
		g.set(c0, r, st.v)
		g.set(c1, r, st.v)
	}
	g.set(c0, r0, st.tl)
	g.set(c1, r0, st.tr)
	g.set(c0, r1, st.bl)
	g.set(c1, r1, st.br)
}

// Rasterize draws f onto a cols by rows character grid.
func Rasterize(f canvas.Frame, cols, rows int, imageName func(string) string) []string {
	g := newGrid(cols, rows)
	cam := f.Camera
	segments := 24

	for _, e := range f.Edges {
		ch := '·'
		if e.Marked {
			ch = '×'
		}
		g.plot(cam, e.Curve.Sample(segments), ch)
	}

	marked := make(map[string]bool, len(f.MarkedNodes))
	for _, id := range f.MarkedNodes {
		marked[id] = true
	}
	for _, n := range f.Graph.Nodes {
		b := canvas.NodeBounds(n)
		c0, r0 := cellOf(cam, b.Min)
		c1, r1 := cellOf(cam, b.Max)
		if c1-c0 < 2 {
			c1 = c0 + 2
		}
		if r1-r0 < 2 {
			r1 = r0 + 2
		}
		st := plainBox
		switch {
		case marked[n.ID]:
			st = markedBox
		case n.Selected:
			st = selectedBox
		}
		g.box(c0, r0, c1, r1, st)

		label := n.Label
		if label == "" {
			label = string(n.Type)
		}
		width := c1 - c0 - 1
		g.text(c0+1, r0+1, label, width)
		if r1-r0 > 2 {
			g.text(c0+1, r0+2, render.Detail(n, imageName), width)
		}
	}

	for _, a := range f.Anchors {
		c, r := cellOf(cam, a.Pos)
		if a.Dir == ir.DirInput {
			g.set(c, r, '○')
		} else {
			g.set(c, r, '●')
		}
	}

	if f.Preview != nil {
		g.plot(cam, f.Preview.Sample(segments), '∙')
	}
	if f.Snap != nil {
		c, r := cellOf(cam, f.Snap.Pos)
		g.set(c, r, '◎')
	}
	if f.Marquee != nil {
		c0, r0 := cellOf(cam, f.Marquee.Min)
		c1, r1 := cellOf(cam, f.Marquee.Max)
		for c := c0; c <= c1; c++ {
			g.set(c, r0, '┄')
			g.set(c, r1, '┄')
		}
		for r := r0; r <= r1; r++ {
			g.set(c0, r, '┆')
			g.set(c1, r, '┆')
		}
	}
	if len(f.ErasePath) > 0 {
		g.plot(cam, f.ErasePath, '~')
	}
	if f.Trail != nil && f.Trail.Opacity > 0 && len(f.Trail.Points) > 0 {
		ch := '░'
		if f.Trail.Opacity > 0.5 {
			ch = '▒'
		}
		g.plot(cam, f.Trail.Points, ch)
	}
	return g.lines()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
