// Package commands declares the slash-command manifest and the client
// that installs it against the chat platform's HTTP API.
package commands

// Option type constants from the application-command schema.
const (
	optionSubCommand = 1
	optionString     = 3
)

// Command is one installable application command.
type Command struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Options     []Option `json:"options,omitempty"`
}

// Option is a command option or sub-command.
type Option struct {
	Type        int      `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Required    bool     `json:"required,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// Manifest returns every command the service answers to.
func Manifest() []Command {
	itemType := Option{
		Type:        optionString,
		Name:        "item_type",
		Description: "Kind of thing being rated, e.g. artist or album",
		Required:    true,
	}
	itemName := Option{
		Type:        optionString,
		Name:        "item_name",
		Description: "Name of the item",
		Required:    true,
	}

	return []Command{
		{
			Name:        "echo",
			Description: "Echo a message back",
			Options: []Option{{
				Type:        optionString,
				Name:        "text",
				Description: "Text to echo",
				Required:    true,
			}},
		},
		{
			Name:        "rate",
			Description: "Build rankings through pairwise comparisons",
			Options: []Option{
				{
					Type:        optionSubCommand,
					Name:        "add",
					Description: "Add an item and start comparing it",
					Options:     []Option{itemType, itemName},
				},
				{
					Type:        optionSubCommand,
					Name:        "remove",
					Description: "Remove an item from your ranking",
					Options:     []Option{itemType, itemName},
				},
				{
					Type:        optionSubCommand,
					Name:        "list",
					Description: "Show your ranking for one item type",
					Options:     []Option{itemType},
				},
				{
					Type:        optionSubCommand,
					Name:        "show_types",
					Description: "Show every item type you are rating",
				},
			},
		},
	}
}
