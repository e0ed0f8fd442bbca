package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// ErrUnknownCommand is returned for names no handler is registered for.
var ErrUnknownCommand = errors.New("unknown command")

type commandFunc func(args string) error

type commandSpec struct {
	name    string
	needArg bool
	run     commandFunc
}

// Commands dispatches parsed commands to handlers by name or alias.
type Commands struct {
	specs map[string]*commandSpec
}

func newCommands() *Commands {
	return &Commands{specs: make(map[string]*commandSpec)}
}

// register binds run to name and its aliases. Commands with needArg
// reject an empty argument before run is called.
func (c *Commands) register(name string, aliases []string, needArg bool, run commandFunc) {
	spec := &commandSpec{name: name, needArg: needArg, run: run}
	c.specs[name] = spec
	for _, a := range aliases {
		c.specs[a] = spec
	}
}

// Execute parses input and runs the matching handler.
func (c *Commands) Execute(input string) error {
	cmd := ParseCommand(input)
	spec, ok := c.specs[cmd.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}
	if spec.needArg && cmd.Args == "" {
		return fmt.Errorf(":%s needs an argument", spec.name)
	}
	return spec.run(cmd.Args)
}

// Names returns the canonical command names, sorted.
func (c *Commands) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range c.specs {
		if !seen[s.name] {
			seen[s.name] = true
			out = append(out, s.name)
		}
	}
	sort.Strings(out)
	return out
}
