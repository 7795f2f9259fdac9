// Package plantuml renders command composition trees as PlantUML state
// diagrams. Sequences become chains of states, parallel groups become
// concurrent regions and conditionals become choice points.
package plantuml

import (
	"fmt"
	"io"
	"strings"

	"github.com/stateforward/go-command/embedded"
	"github.com/stateforward/go-command/kinds"
)

type generator struct {
	builder strings.Builder
	ids     map[embedded.Command]string
	names   map[string]int
}

func (g *generator) id(command embedded.Command) string {
	if id, ok := g.ids[command]; ok {
		return id
	}
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, command.Name())
	g.names[base]++
	id := base
	if n := g.names[base]; n > 1 {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	g.ids[command] = id
	return id
}

func (g *generator) printf(depth int, format string, args ...any) {
	g.builder.WriteString(strings.Repeat(" ", depth*2))
	fmt.Fprintf(&g.builder, format, args...)
	g.builder.WriteByte('\n')
}

func stereotype(kind uint64) string {
	switch {
	case kinds.IsKind(kind, kinds.Sequential):
		return " <<sequence>>"
	case kinds.IsKind(kind, kinds.Race):
		return " <<race>>"
	case kinds.IsKind(kind, kinds.Deadline):
		return " <<deadline>>"
	case kinds.IsKind(kind, kinds.Parallel):
		return " <<parallel>>"
	case kinds.IsKind(kind, kinds.Conditional):
		return " <<conditional>>"
	case kinds.IsKind(kind, kinds.Callback):
		return " <<callback>>"
	}
	return ""
}

func (g *generator) command(depth int, command embedded.Command) string {
	id := g.id(command)
	composite, ok := command.(embedded.Composite)
	if !ok || len(composite.Commands()) == 0 {
		g.printf(depth, "state %q as %s%s", command.Name(), id, stereotype(command.Kind()))
		g.requirements(depth, id, command)
		return id
	}
	g.printf(depth, "state %q as %s%s {", command.Name(), id, stereotype(command.Kind()))
	children := composite.Commands()
	switch kind := command.Kind(); {
	case kinds.IsKind(kind, kinds.Parallel):
		for i, child := range children {
			if i > 0 {
				g.printf(depth+1, "--")
			}
			childId := g.command(depth+1, child)
			if i == 0 && kinds.IsKind(kind, kinds.Deadline) {
				g.printf(depth+1, "note left of %s : deadline", childId)
			}
			g.printf(depth+1, "[*] --> %s", childId)
		}
	case kinds.IsKind(kind, kinds.Conditional):
		choice := id + "_choice"
		g.printf(depth+1, "state %s <<choice>>", choice)
		g.printf(depth+1, "[*] --> %s", choice)
		for i, child := range children {
			childId := g.command(depth+1, child)
			g.printf(depth+1, "%s --> %s : %t", choice, childId, i == 0)
			g.printf(depth+1, "%s --> [*]", childId)
		}
	default:
		previous := "[*]"
		for _, child := range children {
			childId := g.command(depth+1, child)
			g.printf(depth+1, "%s --> %s", previous, childId)
			previous = childId
		}
		g.printf(depth+1, "%s --> [*]", previous)
	}
	g.printf(depth, "}")
	g.requirements(depth, id, command)
	return id
}

func (g *generator) requirements(depth int, id string, command embedded.Command) {
	requirements := command.Requirements()
	if len(requirements) == 0 {
		return
	}
	names := make([]string, 0, len(requirements))
	for _, requirement := range requirements {
		names = append(names, requirement.Name())
	}
	g.printf(depth, "%s : requires %s", id, strings.Join(names, ", "))
}

// Generate writes a diagram of every command in roots, each as a top-level
// state.
func Generate(writer io.Writer, title string, roots ...embedded.Command) error {
	g := &generator{
		ids:   map[embedded.Command]string{},
		names: map[string]int{},
	}
	fmt.Fprintf(&g.builder, "@startuml %s\n", title)
	for _, root := range roots {
		if root == nil {
			continue
		}
		g.command(0, root)
	}
	fmt.Fprintln(&g.builder, "@enduml")
	_, err := io.WriteString(writer, g.builder.String())
	return err
}
