package canvas

import (
	"encoding/json"

	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
)

// Item is a node template offered by a palette and carried by drop payloads.
type Item struct {
	Type       ir.NodeType `json:"type"`
	Label      string      `json:"label"`
	Inputs     []string    `json:"inputs"`
	Outputs    []string    `json:"outputs"`
	FunctionID string      `json:"functionId,omitempty"`
}

// Palette returns the built-in node templates in display order.
func Palette() []Item {
	return []Item{
		{Type: ir.NodeInput, Label: "Input", Inputs: []string{}, Outputs: []string{"out"}},
		{Type: ir.NodeOutput, Label: "Output", Inputs: []string{"in"}, Outputs: []string{}},
		{Type: ir.NodeImageClick, Label: "Click Image", Inputs: []string{"in"}, Outputs: []string{"out"}},
		{Type: ir.NodeWait, Label: "Wait", Inputs: []string{"in"}, Outputs: []string{"out"}},
		{Type: ir.NodeIf, Label: "If", Inputs: []string{"in"}, Outputs: []string{"true", "false"}},
		{Type: ir.NodeLoop, Label: "Loop", Inputs: []string{"in"}, Outputs: []string{"out"}},
		{Type: ir.NodeSetVar, Label: "Set Var", Inputs: []string{"in"}, Outputs: []string{"out"}},
		{Type: ir.NodeCallFunction, Label: "Call Function", Inputs: []string{"in"}, Outputs: []string{"out"}},
	}
}

// FunctionItem returns the call-site template for def.
func FunctionItem(def ir.FunctionDef) Item {
	it := Item{Type: ir.NodeCallFunction, Label: def.Name, FunctionID: def.ID, Inputs: []string{}, Outputs: []string{}}
	for _, p := range def.Inputs {
		it.Inputs = append(it.Inputs, p.Name)
	}
	for _, p := range def.Outputs {
		it.Outputs = append(it.Outputs, p.Name)
	}
	return it
}

// Encode renders the item as a drop payload.
func (it Item) Encode() []byte {
	b, _ := json.Marshal(it)
	return b
}

// DecodeItem parses a drop payload. Unparsable payloads and unknown node
// types report false.
func DecodeItem(payload []byte) (Item, bool) {
	var it Item
	if err := json.Unmarshal(payload, &it); err != nil {
		return Item{}, false
	}
	if !it.Type.Valid() {
		return Item{}, false
	}
	return it, true
}

// NewNode instantiates it at pos with fresh ids and the type's default data.
func NewNode(it Item, pos ir.Point, ids idgen.Generator) ir.Node {
	n := ir.Node{
		ID:          ids.NewID(),
		Type:        it.Type,
		Label:       it.Label,
		Position:    pos,
		InputPorts:  []ir.Port{},
		OutputPorts: []ir.Port{},
		Data:        ir.DefaultData(it.Type),
	}
	for _, name := range it.Inputs {
		n.InputPorts = append(n.InputPorts, ir.Port{ID: ids.NewID(), Name: name})
	}
	for _, name := range it.Outputs {
		n.OutputPorts = append(n.OutputPorts, ir.Port{ID: ids.NewID(), Name: name})
	}
	if it.Type == ir.NodeCallFunction {
		n.Data = ir.CallFunctionData{FunctionID: it.FunctionID}
	}
	return n
}
