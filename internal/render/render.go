// Package render draws canvas frames to raster images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/efebarandurmaz/sikuliflow/internal/canvas"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// Options controls the output image.
type Options struct {
	// Width and Height of the viewport in pixels. When either is zero the
	// image is sized to fit the graph and the frame's camera is ignored.
	Width, Height int
	// Padding around the graph in fit mode, in pixels.
	Padding float64
	// FontSize of node labels at unit scale.
	FontSize float64
	// ImageName resolves ImageClick asset ids to display names.
	ImageName func(id string) string
}

// DefaultOptions fits the graph with 40px of padding.
func DefaultOptions() Options {
	return Options{Padding: 40, FontSize: 13}
}

var (
	background  = color.RGBA{0xf7, 0xf7, 0xf5, 0xff}
	nodeFill    = color.RGBA{0xff, 0xff, 0xff, 0xff}
	nodeStroke  = color.RGBA{0x4a, 0x4a, 0x4a, 0xff}
	selected    = color.RGBA{0x25, 0x63, 0xeb, 0xff}
	edgeStroke  = color.RGBA{0x6b, 0x72, 0x80, 0xff}
	markStroke  = color.RGBA{0xdc, 0x26, 0x26, 0xff}
	portFill    = color.RGBA{0x37, 0x41, 0x51, 0xff}
	marqueeFill = color.RGBA{0x25, 0x63, 0xeb, 0x22}
	textColor   = color.RGBA{0x11, 0x18, 0x27, 0xff}
	subtleText  = color.RGBA{0x6b, 0x72, 0x80, 0xff}
)

// headerColor is the accent strip of each node type.
var headerColor = map[ir.NodeType]color.RGBA{
	ir.NodeInput:        {0x16, 0xa3, 0x4a, 0xff},
	ir.NodeOutput:       {0xea, 0x58, 0x0c, 0xff},
	ir.NodeImageClick:   {0x25, 0x63, 0xeb, 0xff},
	ir.NodeWait:         {0xca, 0x8a, 0x04, 0xff},
	ir.NodeIf:           {0x93, 0x33, 0xea, 0xff},
	ir.NodeLoop:         {0xdb, 0x27, 0x77, 0xff},
	ir.NodeSetVar:       {0x08, 0x91, 0xb2, 0xff},
	ir.NodeCallFunction: {0x4b, 0x55, 0x63, 0xff},
}

// view maps world coordinates to pixels.
type view struct {
	scale  float64
	offset ir.Point
}

func (v view) pt(p ir.Point) (float64, float64) {
	return p.X*v.scale + v.offset.X, p.Y*v.scale + v.offset.Y
}

func (v view) size(l float64) float64 { return l * v.scale }

// Image draws f.
func Image(f canvas.Frame, opts Options) (image.Image, error) {
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultOptions().FontSize
	}
	w, h, v := layout(f, opts)

	dc := gg.NewContext(w, h)
	dc.SetColor(background)
	dc.Clear()

	face, err := fontFace(opts.FontSize * v.scale)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)

	r := renderer{dc: dc, v: v, opts: opts}
	r.edges(f)
	r.nodes(f)
	r.overlays(f)
	return dc.Image(), nil
}

// PNG encodes the image of f to w.
func PNG(w io.Writer, f canvas.Frame, opts Options) error {
	img, err := Image(f, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SavePNG writes the image of f to path.
func SavePNG(path string, f canvas.Frame, opts Options) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := PNG(out, f, opts); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Bounds returns the world rectangle covering every node of g.
func Bounds(g ir.Graph) (ir.Rect, bool) {
	if len(g.Nodes) == 0 {
		return ir.Rect{}, false
	}
	b := canvas.NodeBounds(g.Nodes[0])
	for _, n := range g.Nodes[1:] {
		nb := canvas.NodeBounds(n)
		b.Min.X = math.Min(b.Min.X, nb.Min.X)
		b.Min.Y = math.Min(b.Min.Y, nb.Min.Y)
		b.Max.X = math.Max(b.Max.X, nb.Max.X)
		b.Max.Y = math.Max(b.Max.Y, nb.Max.Y)
	}
	return b, true
}

func layout(f canvas.Frame, opts Options) (int, int, view) {
	if opts.Width > 0 && opts.Height > 0 {
		scale := f.Camera.Scale
		if scale <= 0 {
			scale = 1
		}
		return opts.Width, opts.Height, view{scale: scale, offset: f.Camera.Offset}
	}
	b, ok := Bounds(f.Graph)
	if !ok {
		size := int(2*opts.Padding) + 1
		return size, size, view{scale: 1}
	}
	w := int(math.Ceil(b.Max.X-b.Min.X+2*opts.Padding)) + 1
	h := int(math.Ceil(b.Max.Y-b.Min.Y+2*opts.Padding)) + 1
	return w, h, view{scale: 1, offset: ir.Point{X: opts.Padding - b.Min.X, Y: opts.Padding - b.Min.Y}}
}

func fontFace(size float64) (font.Face, error) {
	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return truetype.NewFace(ttf, &truetype.Options{
		Size:    math.Max(size, 4),
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

type renderer struct {
	dc   *gg.Context
	v    view
	opts Options
}

func (r renderer) curve(b canvas.Bezier) {
	x0, y0 := r.v.pt(b.P0)
	x1, y1 := r.v.pt(b.P1)
	x2, y2 := r.v.pt(b.P2)
	x3, y3 := r.v.pt(b.P3)
	r.dc.NewSubPath()
	r.dc.MoveTo(x0, y0)
	r.dc.CubicTo(x1, y1, x2, y2, x3, y3)
}

func (r renderer) edges(f canvas.Frame) {
	for _, e := range f.Edges {
		r.curve(e.Curve)
		if e.Marked {
			r.dc.SetColor(markStroke)
			r.dc.SetLineWidth(r.v.size(3))
		} else {
			r.dc.SetColor(edgeStroke)
			r.dc.SetLineWidth(r.v.size(2))
		}
		r.dc.Stroke()
	}
}

func (r renderer) nodes(f canvas.Frame) {
	marked := make(map[string]bool, len(f.MarkedNodes))
	for _, id := range f.MarkedNodes {
		marked[id] = true
	}
	for _, n := range f.Graph.Nodes {
		r.node(n, marked[n.ID])
	}
	r.dc.SetColor(portFill)
	for _, a := range f.Anchors {
		x, y := r.v.pt(a.Pos)
		r.dc.DrawCircle(x, y, r.v.size(5))
		r.dc.Fill()
	}
}

func (r renderer) node(n ir.Node, marked bool) {
	b := canvas.NodeBounds(n)
	x, y := r.v.pt(b.Min)
	w, h := r.v.size(canvas.NodeWidth), r.v.size(canvas.NodeHeight)
	radius := r.v.size(8)

	r.dc.DrawRoundedRectangle(x, y, w, h, radius)
	r.dc.SetColor(nodeFill)
	r.dc.FillPreserve()
	switch {
	case marked:
		r.dc.SetColor(markStroke)
		r.dc.SetLineWidth(r.v.size(3))
	case n.Selected:
		r.dc.SetColor(selected)
		r.dc.SetLineWidth(r.v.size(3))
	default:
		r.dc.SetColor(nodeStroke)
		r.dc.SetLineWidth(r.v.size(1.5))
	}
	r.dc.Stroke()

	r.dc.DrawRectangle(x+radius, y+r.v.size(1), w-2*radius, r.v.size(4))
	r.dc.SetColor(headerColor[n.Type])
	r.dc.Fill()

	label := n.Label
	if label == "" {
		label = string(n.Type)
	}
	r.dc.SetColor(textColor)
	r.dc.DrawStringAnchored(label, x+w/2, y+r.v.size(18), 0.5, 0.5)
	if detail := Detail(n, r.opts.ImageName); detail != "" {
		r.dc.SetColor(subtleText)
		r.dc.DrawStringAnchored(detail, x+w/2, y+h-r.v.size(14), 0.5, 0.5)
	}
}

func (r renderer) overlays(f canvas.Frame) {
	if f.Preview != nil {
		r.curve(*f.Preview)
		r.dc.SetColor(selected)
		r.dc.SetLineWidth(r.v.size(2))
		r.dc.SetDash(r.v.size(6), r.v.size(4))
		r.dc.Stroke()
		r.dc.SetDash()
	}
	if f.Snap != nil {
		x, y := r.v.pt(f.Snap.Pos)
		r.dc.DrawCircle(x, y, r.v.size(9))
		r.dc.SetColor(selected)
		r.dc.SetLineWidth(r.v.size(2))
		r.dc.Stroke()
	}
	if f.Marquee != nil {
		x, y := r.v.pt(f.Marquee.Min)
		x2, y2 := r.v.pt(f.Marquee.Max)
		r.dc.DrawRectangle(x, y, x2-x, y2-y)
		r.dc.SetColor(marqueeFill)
		r.dc.FillPreserve()
		r.dc.SetColor(selected)
		r.dc.SetLineWidth(1)
		r.dc.Stroke()
	}
	if len(f.ErasePath) > 1 {
		r.polyline(f.ErasePath)
		r.dc.SetColor(markStroke)
		r.dc.SetLineWidth(r.v.size(4))
		r.dc.Stroke()
	}
	if f.Trail != nil && len(f.Trail.Points) > 1 {
		r.polyline(f.Trail.Points)
		r.dc.SetRGBA(float64(markStroke.R)/255, float64(markStroke.G)/255, float64(markStroke.B)/255, f.Trail.Opacity)
		r.dc.SetLineWidth(r.v.size(f.Trail.Width))
		r.dc.Stroke()
	}
}

func (r renderer) polyline(pts []ir.Point) {
	r.dc.NewSubPath()
	for i, p := range pts {
		x, y := r.v.pt(p)
		if i == 0 {
			r.dc.MoveTo(x, y)
			continue
		}
		r.dc.LineTo(x, y)
	}
}

// Detail summarizes the payload of n in one short line.
func Detail(n ir.Node, imageName func(string) string) string {
	switch d := n.Data.(type) {
	case ir.ImageClickData:
		if d.Image == "" {
			return "no image"
		}
		if imageName != nil {
			return imageName(d.Image)
		}
		return d.Image
	case ir.WaitData:
		return strconv.FormatFloat(d.Seconds, 'f', -1, 64) + "s"
	case ir.IfData:
		return d.Condition
	case ir.LoopData:
		return fmt.Sprintf("%d times", d.Times)
	case ir.SetVarData:
		return fmt.Sprintf("%s = %v", d.Name, d.Value)
	case ir.CallFunctionData:
		return d.FunctionID
	}
	return ""
}
