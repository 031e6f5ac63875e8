// Package console provides the debug command registry and an interactive
// shell that reads command lines from the terminal.
package console

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/google/shlex"
)

var (
	// ErrUnknownCommand is returned by Exec for unregistered command names.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrDuplicateCommand is returned by Add when the name is already taken.
	ErrDuplicateCommand = errors.New("command already registered")
)

// Handler runs a command. args excludes the command name.
type Handler func(w io.Writer, args []string) error

// Command is a named console command.
type Command struct {
	Name        string
	Description string
	Handler     Handler
}

// Registry holds the registered commands.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates a registry with the built-in help command.
func NewRegistry() *Registry {
	r := &Registry{commands: make(map[string]Command)}
	r.commands["help"] = Command{
		Name:        "help",
		Description: "Print this help.",
		Handler:     r.help,
	}
	return r
}

// Add registers a command.
func (r *Registry) Add(cmd Command) error {
	if cmd.Name == "" || strings.ContainsAny(cmd.Name, " \t") {
		return fmt.Errorf("invalid command name %q", cmd.Name)
	}
	if cmd.Handler == nil {
		return fmt.Errorf("command %s: nil handler", cmd.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[cmd.Name]; ok {
		return fmt.Errorf("%s: %w", cmd.Name, ErrDuplicateCommand)
	}
	r.commands[cmd.Name] = cmd
	return nil
}

// Commands returns all commands sorted by name.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmds := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		cmds = append(cmds, c)
	}
	slices.SortFunc(cmds, func(a, b Command) int { return strings.Compare(a.Name, b.Name) })
	return cmds
}

// Exec runs the command named by args[0] with the remaining arguments.
func (r *Registry) Exec(w io.Writer, args []string) error {
	if len(args) == 0 {
		return nil
	}
	r.mu.RLock()
	cmd, ok := r.commands[args[0]]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", args[0], ErrUnknownCommand)
	}
	return cmd.Handler(w, args[1:])
}

// ExecLine splits line with shell quoting rules and runs it.
func (r *Registry) ExecLine(w io.Writer, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse line: %w", err)
	}
	return r.Exec(w, args)
}

func (r *Registry) help(w io.Writer, _ []string) error {
	for _, c := range r.Commands() {
		fmt.Fprintf(w, "%-10s %s\n", c.Name, c.Description)
	}
	return nil
}
