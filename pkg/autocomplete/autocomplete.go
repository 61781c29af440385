package autocomplete

import (
	"sort"
	"strings"

	"github.com/darksworm/backoffice/pkg/model"
	"github.com/darksworm/backoffice/pkg/settings"
	th "github.com/darksworm/backoffice/pkg/theme"
)

// CommandAlias represents a command with its aliases and metadata
type CommandAlias struct {
	Command     string   // Primary command name
	Aliases     []string // All possible aliases for this command
	Description string   // Help text for the command
	TakesArg    bool     // Whether command accepts an argument
	ArgType     string   // Type of argument (e.g., "column", "entity")
}

// AliasMap maps all command variants to their canonical command
type AliasMap map[string]string

// Context is what argument suggestions are drawn from
type Context struct {
	Columns  []model.Column
	Entities []string
	// Values returns the distinct values of a column, for filter values
	Values func(field string) []string
}

// AutocompleteEngine handles command completion and aliases
type AutocompleteEngine struct {
	commands []CommandAlias
	aliasMap AliasMap
}

// NewAutocompleteEngine creates a new autocomplete engine with command definitions
func NewAutocompleteEngine() *AutocompleteEngine {
	commands := []CommandAlias{
		{
			Command:     "entity",
			Aliases:     []string{"entity", "entities", "open", "e"},
			Description: "Switch to another entity table",
			TakesArg:    true,
			ArgType:     "entity",
		},
		{
			Command:     "sort",
			Aliases:     []string{"sort", "order", "s"},
			Description: "Add a sort key: :sort <column> [asc|desc]",
			TakesArg:    true,
			ArgType:     "sort",
		},
		{
			Command:     "unsort",
			Aliases:     []string{"unsort", "nosort"},
			Description: "Remove every sort key",
		},
		{
			Command:     "filter",
			Aliases:     []string{"filter", "where", "f"},
			Description: "Add a filter rule: :filter <column> <op> <value>",
			TakesArg:    true,
			ArgType:     "filter",
		},
		{
			Command:     "unfilter",
			Aliases:     []string{"unfilter", "nofilter"},
			Description: "Remove filter rules (all, or the one numbered)",
			TakesArg:    true,
			ArgType:     "",
		},
		{
			Command:     "and",
			Aliases:     []string{"and", "all-of"},
			Description: "Rows must match every filter rule",
		},
		{
			Command:     "or",
			Aliases:     []string{"or", "any-of"},
			Description: "Rows must match any filter rule",
		},
		{
			Command:     "clear",
			Aliases:     []string{"clear", "reset", "all"},
			Description: "Clear search, filters, sorts and selection",
		},
		{
			Command:     "density",
			Aliases:     []string{"density", "dens"},
			Description: "Set row density",
			TakesArg:    true,
			ArgType:     "density",
		},
		{
			Command:     "view",
			Aliases:     []string{"view", "mode"},
			Description: "Show rows as a table or as cards",
			TakesArg:    true,
			ArgType:     "view",
		},
		{
			Command:     "size",
			Aliases:     []string{"size", "pagesize", "ps"},
			Description: "Rows per page (any positive number)",
			TakesArg:    true,
			ArgType:     "size",
		},
		{
			Command:     "page",
			Aliases:     []string{"page", "goto", "p"},
			Description: "Jump to a page",
			TakesArg:    true,
			ArgType:     "",
		},
		{
			Command:     "columns",
			Aliases:     []string{"columns", "cols", "settings"},
			Description: "Open the column settings panel",
		},
		{
			Command:     "add",
			Aliases:     []string{"add", "new", "create"},
			Description: "Add a record",
		},
		{
			Command:     "refresh",
			Aliases:     []string{"refresh", "reload", "r"},
			Description: "Reload rows from the data source",
		},
		{
			Command:     "export",
			Aliases:     []string{"export", "download", "x"},
			Description: "Write the filtered rows to a .csv or .json file",
			TakesArg:    true,
			ArgType:     "export",
		},
		{
			Command:     "theme",
			Aliases:     []string{"theme"},
			Description: "Switch UI theme (built-in names)",
			TakesArg:    true,
			ArgType:     "theme",
		},
		{
			Command:     "quit",
			Aliases:     []string{"quit", "q", "q!", "exit"},
			Description: "Exit the application",
		},
	}

	aliasMap := make(AliasMap)
	for _, cmd := range commands {
		for _, alias := range cmd.Aliases {
			aliasMap[alias] = cmd.Command
		}
	}

	return &AutocompleteEngine{
		commands: commands,
		aliasMap: aliasMap,
	}
}

// ResolveAlias converts any command alias to its canonical form
func (e *AutocompleteEngine) ResolveAlias(input string) string {
	if canonical, exists := e.aliasMap[strings.ToLower(input)]; exists {
		return canonical
	}
	return input
}

// GetCommandInfo returns command information for a given command or alias
func (e *AutocompleteEngine) GetCommandInfo(input string) *CommandAlias {
	canonical := e.ResolveAlias(input)
	for _, cmd := range e.commands {
		if cmd.Command == canonical {
			return &cmd
		}
	}
	return nil
}

// Invocation is a parsed command line
type Invocation struct {
	Command string // canonical name, or the raw word when unknown
	Arg     string // everything after the command word, trimmed
}

// Parse splits ":cmd arg..." into its canonical command and argument.
// The leading colon is optional.
func (e *AutocompleteEngine) Parse(input string) (Invocation, bool) {
	input = strings.TrimPrefix(strings.TrimSpace(input), ":")
	if input == "" {
		return Invocation{}, false
	}
	word, rest, _ := strings.Cut(input, " ")
	inv := Invocation{Command: e.ResolveAlias(word), Arg: strings.TrimSpace(rest)}
	return inv, e.GetCommandInfo(word) != nil
}

// GetCommandAutocomplete returns autocomplete suggestions for command input
func (e *AutocompleteEngine) GetCommandAutocomplete(input string, ctx *Context) []string {
	hasTrailingSpace := strings.HasSuffix(input, " ")
	input = strings.TrimSpace(input)

	if !strings.HasPrefix(input, ":") {
		return nil
	}
	parts := strings.Fields(input[1:])

	if len(parts) == 0 {
		return e.getAllCommandSuggestions("")
	}
	if len(parts) == 1 && !hasTrailingSpace {
		return e.getAllCommandSuggestions(parts[0])
	}

	args := parts[1:]
	if hasTrailingSpace {
		args = append(args, "")
	}
	return e.getArgumentSuggestions(parts[0], args, ctx)
}

// getAllCommandSuggestions returns command name suggestions
func (e *AutocompleteEngine) getAllCommandSuggestions(prefix string) []string {
	var suggestions []string
	prefix = strings.ToLower(prefix)
	seen := make(map[string]bool)

	for _, cmd := range e.commands {
		for _, alias := range cmd.Aliases {
			if strings.HasPrefix(strings.ToLower(alias), prefix) && !seen[alias] {
				suggestions = append(suggestions, ":"+alias)
				seen[alias] = true
			}
		}
	}

	sort.Strings(suggestions)
	return suggestions
}

// GetArgumentSuggestions returns argument suggestions for a command. The
// last element of args is the word being completed.
func (e *AutocompleteEngine) GetArgumentSuggestions(command string, args []string, ctx *Context) []string {
	return e.getArgumentSuggestions(command, args, ctx)
}

func (e *AutocompleteEngine) getArgumentSuggestions(command string, args []string, ctx *Context) []string {
	cmdInfo := e.GetCommandInfo(command)
	if cmdInfo == nil || !cmdInfo.TakesArg || len(args) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = &Context{}
	}

	done := args[:len(args)-1]
	prefix := strings.ToLower(args[len(args)-1])
	var candidates []string

	switch cmdInfo.ArgType {
	case "entity":
		if len(done) == 0 {
			candidates = ctx.Entities
		}
	case "theme":
		if len(done) == 0 {
			candidates = th.Names()
		}
	case "density":
		if len(done) == 0 {
			for _, d := range settings.Densities() {
				candidates = append(candidates, string(d))
			}
		}
	case "view":
		if len(done) == 0 {
			candidates = []string{"table", "card"}
		}
	case "size":
		if len(done) == 0 {
			candidates = []string{"10", "25", "50", "100"}
		}
	case "export":
		if len(done) == 0 {
			candidates = []string{"export.csv", "export.json"}
		}
	case "sort":
		switch len(done) {
		case 0:
			candidates = columnKeys(ctx.Columns)
		case 1:
			candidates = []string{"asc", "desc"}
		}
	case "filter":
		switch len(done) {
		case 0:
			candidates = columnKeys(ctx.Columns)
		case 1:
			candidates = OperatorTokens()
		default:
			if ctx.Values != nil {
				if col, ok := FindColumn(ctx.Columns, done[0]); ok {
					candidates = ctx.Values(col.Key)
				}
			}
		}
	}

	lead := ":" + command + " "
	if len(done) > 0 {
		lead += strings.Join(done, " ") + " "
	}
	var suggestions []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), prefix) {
			suggestions = append(suggestions, lead+c)
		}
	}
	sort.Strings(suggestions)
	return suggestions
}

func columnKeys(cols []model.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Key
	}
	return out
}

// GetAllCommands returns all available commands for help/reference
func (e *AutocompleteEngine) GetAllCommands() []CommandAlias {
	return e.commands
}
