package core

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/shlex"

	"twipi/errcode"
)

// CommandHandler handles one console command. args excludes the command name.
type CommandHandler func(args []string) error

// Command is a console command.
type Command struct {
	ID      uint16
	Name    string
	Usage   string // argument synopsis shown by help
	Handler CommandHandler
}

// CommandRegistry holds the console commands
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[uint16]*Command
	nameToID map[string]uint16
	nextID   uint16
}

// NewCommandRegistry creates an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[uint16]*Command),
		nameToID: make(map[string]uint16),
	}
}

// Register adds a command. Registering a name twice keeps the first handler
// and returns its ID.
func (r *CommandRegistry) Register(name, usage string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToLower(name)
	if id, exists := r.nameToID[name]; exists {
		return id
	}

	id := r.nextID
	r.nextID++
	r.commands[id] = &Command{ID: id, Name: name, Usage: usage, Handler: handler}
	r.nameToID[name] = id
	return id
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

// Lookup retrieves a command by name, case-insensitively.
func (r *CommandRegistry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch splits a console line shell-style and runs the matching handler.
// Blank lines are ignored.
func (r *CommandRegistry) Dispatch(line string) error {
	fields, err := shlex.Split(line)
	if err != nil {
		return errcode.New(errcode.InvalidParams, "dispatch", "bad quoting", err)
	}
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := r.Lookup(fields[0])
	if !ok {
		return errcode.New(errcode.UnknownCommand, "dispatch", fields[0], nil)
	}
	if cmd.Handler == nil {
		return nil
	}
	return cmd.Handler(fields[1:])
}

// Help returns one "name usage" line per command, sorted by name.
func (r *CommandRegistry) Help() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]string, 0, len(r.commands))
	for _, cmd := range r.commands {
		if cmd.Usage != "" {
			lines = append(lines, cmd.Name+" "+cmd.Usage)
		} else {
			lines = append(lines, cmd.Name)
		}
	}
	sort.Strings(lines)
	return lines
}
