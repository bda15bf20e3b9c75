package ir

import (
	"encoding/json"
	"fmt"
)

// NodeData is the per-type payload of a node. The set of implementations is
// closed: ImageClickData, WaitData, IfData, LoopData, SetVarData,
// CallFunctionData and NoData.
type NodeData interface {
	isNodeData()
}

// ImageClickData names the image asset to match and click.
type ImageClickData struct {
	Image string `json:"image"`
}

// WaitData is a fixed delay.
type WaitData struct {
	Seconds float64 `json:"seconds"`
}

// IfData holds a condition expression. It is emitted as a comment only.
type IfData struct {
	Condition string `json:"condition"`
}

// LoopData holds a repetition count. It is emitted as a comment only.
type LoopData struct {
	Times int `json:"times"`
}

// SetVarData assigns a literal to a variable. Value is one of string,
// float64, bool or nil.
type SetVarData struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// CallFunctionData references a FunctionDef by id.
type CallFunctionData struct {
	FunctionID string `json:"functionId"`
}

// NoData is the payload of Input and Output nodes.
type NoData struct{}

func (ImageClickData) isNodeData()   {}
func (WaitData) isNodeData()         {}
func (IfData) isNodeData()           {}
func (LoopData) isNodeData()         {}
func (SetVarData) isNodeData()       {}
func (CallFunctionData) isNodeData() {}
func (NoData) isNodeData()           {}

// DefaultData returns the payload a freshly created node of type t carries.
func DefaultData(t NodeType) NodeData {
	switch t {
	case NodeImageClick:
		return ImageClickData{Image: ""}
	case NodeWait:
		return WaitData{Seconds: 1}
	case NodeIf:
		return IfData{Condition: ""}
	case NodeLoop:
		return LoopData{Times: 1}
	case NodeSetVar:
		return SetVarData{Name: "var", Value: ""}
	case NodeCallFunction:
		return CallFunctionData{FunctionID: ""}
	default:
		return NoData{}
	}
}

// DataMatches reports whether d is the payload variant belonging to t.
func DataMatches(t NodeType, d NodeData) bool {
	switch d.(type) {
	case ImageClickData:
		return t == NodeImageClick
	case WaitData:
		return t == NodeWait
	case IfData:
		return t == NodeIf
	case LoopData:
		return t == NodeLoop
	case SetVarData:
		return t == NodeSetVar
	case CallFunctionData:
		return t == NodeCallFunction
	case NoData:
		return t == NodeInput || t == NodeOutput
	}
	return false
}

// DataAs returns the node payload as T when the node carries that variant.
func DataAs[T NodeData](n Node) (T, bool) {
	d, ok := n.Data.(T)
	return d, ok
}

// FunctionID returns the referenced def id of a CallFunction node.
func (n Node) FunctionID() string {
	if d, ok := n.Data.(CallFunctionData); ok {
		return d.FunctionID
	}
	return ""
}

type nodeJSON struct {
	ID          string          `json:"id"`
	Type        NodeType        `json:"type"`
	Label       string          `json:"label"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	InputPorts  []Port          `json:"inputPorts"`
	OutputPorts []Port          `json:"outputPorts"`
	Data        json.RawMessage `json:"data,omitempty"`
	Selected    bool            `json:"selected,omitempty"`
}

// MarshalJSON writes the node in the flat wire form with data keyed by type.
func (n Node) MarshalJSON() ([]byte, error) {
	data := n.Data
	if data == nil {
		data = DefaultData(n.Type)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s data: %w", n.Type, err)
	}
	in, out := n.InputPorts, n.OutputPorts
	if in == nil {
		in = []Port{}
	}
	if out == nil {
		out = []Port{}
	}
	return json.Marshal(nodeJSON{
		ID:          n.ID,
		Type:        n.Type,
		Label:       n.Label,
		X:           n.Position.X,
		Y:           n.Position.Y,
		InputPorts:  in,
		OutputPorts: out,
		Data:        raw,
		Selected:    n.Selected,
	})
}

// UnmarshalJSON reads the wire form, decoding data by the node's type.
func (n *Node) UnmarshalJSON(b []byte) error {
	var w nodeJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if !w.Type.Valid() {
		return fmt.Errorf("unknown node type %q", w.Type)
	}
	data, err := DecodeData(w.Type, w.Data)
	if err != nil {
		return fmt.Errorf("node %s: %w", w.ID, err)
	}
	*n = Node{
		ID:          w.ID,
		Type:        w.Type,
		Label:       w.Label,
		Position:    Point{X: w.X, Y: w.Y},
		InputPorts:  w.InputPorts,
		OutputPorts: w.OutputPorts,
		Data:        data,
		Selected:    w.Selected,
	}
	return nil
}

// DecodeData decodes a raw payload for type t. Missing fields keep the
// type's defaults; an empty payload yields DefaultData(t).
func DecodeData(t NodeType, raw json.RawMessage) (NodeData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultData(t), nil
	}
	switch t {
	case NodeImageClick:
		d := ImageClickData{}
		return decodeInto(raw, d)
	case NodeWait:
		d := WaitData{Seconds: 1}
		return decodeInto(raw, d)
	case NodeIf:
		return decodeInto(raw, IfData{})
	case NodeLoop:
		return decodeInto(raw, LoopData{Times: 1})
	case NodeSetVar:
		return decodeInto(raw, SetVarData{Name: "var", Value: ""})
	case NodeCallFunction:
		return decodeInto(raw, CallFunctionData{})
	case NodeInput, NodeOutput:
		return NoData{}, nil
	}
	return nil, fmt.Errorf("unknown node type %q", t)
}

func decodeInto[T NodeData](raw json.RawMessage, d T) (NodeData, error) {
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return d, nil
}
