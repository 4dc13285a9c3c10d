package ir

import (
	"sigs.k8s.io/yaml"
)

// DumpFunction is the YAML-serialisable shape of one Function, used by
// the driver's `-dump-ir` flag for compiler-developer inspection —
// wazevo dumps its own IR as plain text (instruction .String() methods,
// perfmap files); expc reaches for a structured format instead since one
// is already in the retrieved pack.
type DumpFunction struct {
	Name       string           `json:"name"`
	ReturnType string           `json:"returnType"`
	State      string           `json:"state"`
	FrameSize  int              `json:"frameSize"`
	Locals     []DumpLocal      `json:"locals"`
	Block      []string         `json:"block"`
}

// DumpLocal is one Local's debug-visible fields.
type DumpLocal struct {
	Ssa      uint32 `json:"ssa"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type"`
	First    int    `json:"firstUse"`
	Last     int    `json:"lastUse"`
	Location string `json:"location"`
}

// Dump renders fn as a DumpFunction, resolving every interned type and
// instruction to readable text via mod's type interner.
func Dump(mod *Module, fn *Function) DumpFunction {
	out := DumpFunction{
		Name:       fn.Name.String(),
		ReturnType: mod.Types.String(fn.ReturnType),
		State:      fn.State.String(),
		FrameSize:  fn.FrameSize,
	}
	for _, l := range fn.Locals {
		name := ""
		if l.HasName {
			name = l.Name.String()
		}
		out.Locals = append(out.Locals, DumpLocal{
			Ssa:      l.Ssa,
			Name:     name,
			Type:     mod.Types.String(l.Type),
			First:    l.Lifetime.FirstUse,
			Last:     l.Lifetime.LastUse,
			Location: l.Location.String(),
		})
	}
	for _, in := range fn.Block {
		out.Block = append(out.Block, in.String())
	}
	return out
}

// DumpYAML marshals every function in funcs to a single YAML document,
// keyed by function name, for the `-dump-ir` CLI flag.
func DumpYAML(mod *Module, funcs []*Function) ([]byte, error) {
	doc := make(map[string]DumpFunction, len(funcs))
	for _, fn := range funcs {
		doc[fn.Name.String()] = Dump(mod, fn)
	}
	return yaml.Marshal(doc)
}
