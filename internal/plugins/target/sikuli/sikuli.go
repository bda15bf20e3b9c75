// Package sikuli compiles flow graphs to Sikuli scripts.
package sikuli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/efebarandurmaz/sikuliflow/internal/depgraph"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
)

// Header is the first line of every generated script.
const Header = "from sikuli import *"

// Plugin implements TargetPlugin for Sikuli scripts.
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Language() string { return "sikuli" }

func (p *Plugin) Generate(ctx context.Context, prog plugins.Program) ([]plugins.GeneratedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []plugins.GeneratedFile{{
		Path:    "script.py",
		Content: []byte(Generate(prog.Main) + "\n"),
	}}, nil
}

func (p *Plugin) Scaffold(ctx context.Context, prog plugins.Program) ([]plugins.GeneratedFile, error) {
	files := make([]plugins.GeneratedFile, 0, len(prog.Functions))
	used := map[string]int{}
	for _, def := range prog.Functions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := fileName(def.Name)
		used[name]++
		if n := used[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		files = append(files, plugins.GeneratedFile{
			Path:    fmt.Sprintf("functions/%s.py", name),
			Content: []byte(Generate(def.Graph) + "\n"),
		})
	}
	return files, nil
}

// Generate emits the script for g: the header followed by one line per
// emitting node in topological order. Nodes on cycles are left out.
func Generate(g ir.Graph) string {
	order, _ := depgraph.Order(g)
	lines := []string{Header}
	for _, n := range order {
		if line, ok := Emit(n); ok {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Emit renders the statement for a single node. Input and Output nodes emit
// nothing.
func Emit(n ir.Node) (string, bool) {
	data := n.Data
	if data == nil {
		data = ir.DefaultData(n.Type)
	}
	switch d := data.(type) {
	case ir.ImageClickData:
		return fmt.Sprintf("click(%s)", strconv.Quote(d.Image)), true
	case ir.WaitData:
		return fmt.Sprintf("wait(%s)", strconv.FormatFloat(d.Seconds, 'f', -1, 64)), true
	case ir.SetVarData:
		name := d.Name
		if name == "" {
			name = "var"
		}
		return fmt.Sprintf("%s = %s", name, Literal(d.Value)), true
	case ir.IfData:
		return "# if " + d.Condition, true
	case ir.LoopData:
		return "# for " + strconv.Itoa(d.Times), true
	case ir.CallFunctionData:
		return n.Label + "()", true
	case ir.NoData:
		return "", false
	}
	return "", false
}

// Literal encodes v as a JSON literal without HTML escaping.
func Literal(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return strconv.Quote(fmt.Sprint(v))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]+`)

func fileName(name string) string {
	s := unsafeName.ReplaceAllString(name, "_")
	if s == "" {
		return "function"
	}
	return s
}
