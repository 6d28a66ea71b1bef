package cli

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/semmy-space/tasq/internal/output"
)

// SchemaCmd prints the command tree as JSON for scripts and agents
type SchemaCmd struct {
	Command string `arg:"" optional:"" help:"Command path to describe (e.g., 'task create')"`
	Leaves  bool   `help:"List runnable commands as a flat array instead of a tree"`
}

// SchemaCommand describes one command. Path is the space separated
// invocation without the binary name; the root has an empty path.
type SchemaCommand struct {
	Path     string           `json:"path"`
	Help     string           `json:"help,omitempty"`
	Aliases  []string         `json:"aliases,omitempty"`
	Hidden   bool             `json:"hidden,omitempty"`
	Args     []SchemaArg      `json:"args,omitempty"`
	Flags    []SchemaFlag     `json:"flags,omitempty"`
	Commands []*SchemaCommand `json:"commands,omitempty"`
}

// SchemaFlag describes a flag. Global flags are listed on the root only.
type SchemaFlag struct {
	Name     string   `json:"name"`
	Short    string   `json:"short,omitempty"`
	Type     string   `json:"type"`
	Help     string   `json:"help,omitempty"`
	Default  string   `json:"default,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	Env      []string `json:"env,omitempty"`
	Required bool     `json:"required,omitempty"`
	Global   bool     `json:"global,omitempty"`
}

// SchemaArg describes a positional argument
type SchemaArg struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Help     string `json:"help,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// Run executes the schema command
func (cmd *SchemaCmd) Run(kctx *kong.Context, fp *FormatterProvider) error {
	root := kctx.Model.Node
	target := lookupCommand(root, strings.Fields(cmd.Command))
	if target == nil {
		return output.NewCLIError(output.ExitNotFound, "Unknown command: "+cmd.Command).
			WithHint("Run: tasq schema")
	}

	var doc any = describe(target, target)
	if cmd.Leaves {
		var leaves []*SchemaCommand
		collectLeaves(doc.(*SchemaCommand), &leaves)
		doc = leaves
	}

	enc := json.NewEncoder(fp.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// lookupCommand follows names or aliases down from root
func lookupCommand(root *kong.Node, names []string) *kong.Node {
	node := root
	for _, name := range names {
		node = childNamed(node, name)
		if node == nil {
			return nil
		}
	}
	return node
}

func childNamed(node *kong.Node, name string) *kong.Node {
	for _, child := range node.Children {
		if child.Name == name {
			return child
		}
		for _, alias := range child.Aliases {
			if alias == name {
				return child
			}
		}
	}
	return nil
}

// describe converts node and its visible children. The requested target is
// shown even when hidden.
func describe(node, target *kong.Node) *SchemaCommand {
	sc := &SchemaCommand{
		Path:    commandPath(node),
		Help:    node.Help,
		Aliases: node.Aliases,
		Hidden:  node.Hidden,
	}

	global := node.Type == kong.ApplicationNode
	for _, f := range node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}
		sf := SchemaFlag{
			Name:     f.Name,
			Type:     valueType(f.Value),
			Help:     f.Help,
			Default:  f.Default,
			Env:      f.Envs,
			Required: f.Required,
			Global:   global,
		}
		if f.Short != 0 {
			sf.Short = string(f.Short)
		}
		if f.Enum != "" {
			sf.Enum = f.EnumSlice()
		}
		sc.Flags = append(sc.Flags, sf)
	}

	for _, p := range node.Positional {
		sc.Args = append(sc.Args, SchemaArg{
			Name:     p.Name,
			Type:     valueType(p),
			Help:     p.Help,
			Required: p.Required,
		})
	}

	for _, child := range node.Children {
		if child.Hidden && child != target {
			continue
		}
		sc.Commands = append(sc.Commands, describe(child, target))
	}
	return sc
}

// commandPath joins the command names from the root down to node
func commandPath(node *kong.Node) string {
	var names []string
	for n := node; n != nil && n.Type != kong.ApplicationNode; n = n.Parent {
		names = append([]string{n.Name}, names...)
	}
	return strings.Join(names, " ")
}

func collectLeaves(sc *SchemaCommand, out *[]*SchemaCommand) {
	if len(sc.Commands) == 0 {
		*out = append(*out, sc)
		return
	}
	for _, child := range sc.Commands {
		collectLeaves(child, out)
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

// valueType names the Go kind behind a flag or argument
func valueType(v *kong.Value) string {
	if v == nil || !v.Target.IsValid() {
		return "string"
	}
	t := v.Target.Type()
	switch {
	case t == durationType:
		return "duration"
	case t.Kind() == reflect.Slice:
		return "[]" + t.Elem().Kind().String()
	default:
		return t.Kind().String()
	}
}
