package canvas

import (
	"math"
	"testing"

	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

func TestConnector_HorizontalTangents(t *testing.T) {
	b := Connector(ir.Point{X: 0, Y: 0}, ir.Point{X: 200, Y: 100})
	if b.P1 != (ir.Point{X: 100, Y: 0}) || b.P2 != (ir.Point{X: 100, Y: 100}) {
		t.Errorf("unexpected controls %+v %+v", b.P1, b.P2)
	}
	if b.At(0) != b.P0 || b.At(1) != b.P3 {
		t.Error("curve does not interpolate its endpoints")
	}
	mid := b.At(0.5)
	if math.Abs(mid.X-100) > 1e-9 || math.Abs(mid.Y-50) > 1e-9 {
		t.Errorf("unexpected midpoint %+v", mid)
	}
}

func TestSample(t *testing.T) {
	b := Connector(ir.Point{}, ir.Point{X: 10})
	if got := len(b.Sample(24)); got != 25 {
		t.Errorf("expected 25 points, got %d", got)
	}
	if got := len(b.Sample(0)); got != 2 {
		t.Errorf("expected clamp to one segment, got %d points", got)
	}
}

func TestDistances(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"segment interior", SegmentDistance(ir.Point{X: 5, Y: 3}, ir.Point{}, ir.Point{X: 10}), 3},
		{"segment endpoint", SegmentDistance(ir.Point{X: 13, Y: 4}, ir.Point{}, ir.Point{X: 10}), 5},
		{"degenerate segment", SegmentDistance(ir.Point{X: 3, Y: 4}, ir.Point{}, ir.Point{}), 5},
		{"segments crossing", SegmentsDistance(ir.Point{X: 0, Y: -5}, ir.Point{X: 0, Y: 5}, ir.Point{X: -5}, ir.Point{X: 5}), 0},
		{"segments apart", SegmentsDistance(ir.Point{X: 8, Y: -5}, ir.Point{X: 8, Y: 5}, ir.Point{X: -5}, ir.Point{X: 5}), 3},
		{"segments parallel", SegmentsDistance(ir.Point{Y: 4}, ir.Point{X: 10, Y: 4}, ir.Point{}, ir.Point{X: 10}), 4},
		{"rect point inside", SegmentRectDistance(ir.Point{X: 5, Y: 5}, ir.Point{X: 5, Y: 5}, ir.Rect{Max: ir.Point{X: 10, Y: 10}}), 0},
		{"rect point corner", SegmentRectDistance(ir.Point{X: 13, Y: 14}, ir.Point{X: 13, Y: 14}, ir.Rect{Max: ir.Point{X: 10, Y: 10}}), 5},
		{"rect passes through", SegmentRectDistance(ir.Point{X: -20, Y: 5}, ir.Point{X: 30, Y: 5}, ir.Rect{Max: ir.Point{X: 10, Y: 10}}), 0},
		{"rect passes beside", SegmentRectDistance(ir.Point{X: -20, Y: 13}, ir.Point{X: 30, Y: 13}, ir.Rect{Max: ir.Point{X: 10, Y: 10}}), 3},
		{"polyline crossed", PolylineSegmentDistance(ir.Point{X: 5, Y: -5}, ir.Point{X: 5, Y: 5}, []ir.Point{{}, {X: 10}, {X: 20}}), 0},
		{"polyline single point", PolylineSegmentDistance(ir.Point{}, ir.Point{X: 10}, []ir.Point{{X: 5, Y: 2}}), 2},
		{"empty polyline", PolylineSegmentDistance(ir.Point{}, ir.Point{}, nil), math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want && math.Abs(tt.got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, tt.got)
			}
		})
	}
}

func TestTrail(t *testing.T) {
	tr := Trail{Duration: 300, Width: 6}
	start := tr.Released
	if tr.Opacity(start) != 1 || tr.StrokeWidth(start) != 6 {
		t.Error("trail should start opaque at full width")
	}
	if !tr.Done(start.Add(300)) || tr.Opacity(start.Add(500)) != 0 {
		t.Error("trail should be gone after its duration")
	}
}
