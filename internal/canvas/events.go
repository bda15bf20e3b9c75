package canvas

import "github.com/efebarandurmaz/sikuliflow/internal/ir"

// Button identifies the pointer button of a press.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonMiddle:
		return "middle"
	case ButtonSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// PointerEvent carries a screen-space pointer sample. InCancelZone is set by
// the host when a release happens over its cancel drop zone.
type PointerEvent struct {
	Pos          ir.Point
	Button       Button
	Shift        bool
	InCancelZone bool
}

// WheelEvent is a zoom request; positive Delta zooms out.
type WheelEvent struct {
	Pos   ir.Point
	Delta float64
}

// KeyEvent is a key press. Key holds a lower-case key name such as "z",
// "delete", "backspace" or "escape".
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Shift bool
	Alt   bool
}

// DropEvent delivers a node-creation payload dropped at a screen point.
type DropEvent struct {
	Pos     ir.Point
	Payload []byte
}
