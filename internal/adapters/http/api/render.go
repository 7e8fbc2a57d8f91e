package api

import (
	"fmt"
	"strings"

	"github.com/okian/pairrank/internal/domain/model"
)

// renderComparison builds the two-button question for one probe. The
// subject button answers "no, the new item wins"; the peer button
// answers "yes, the existing item wins".
func renderComparison(item model.Rateable, probe model.Probe) interactionResponse {
	return interactionResponse{
		Type: callbackMessage,
		Data: &responseData{
			Content: fmt.Sprintf("Which %s do you prefer?", item.Type),
			Components: []component{{
				Type: componentActionRow,
				Components: []component{
					{
						Type:     componentButton,
						Style:    buttonStylePrimary,
						Label:    item.Name,
						CustomID: EncodeToken(item.ID, probe.ItemID, probe.Index, false),
					},
					{
						Type:     componentButton,
						Style:    buttonStylePrimary,
						Label:    probe.ItemName,
						CustomID: EncodeToken(item.ID, probe.ItemID, probe.Index, true),
					},
				},
			}},
		},
	}
}

// renderPlacement reports a converged interview with the item's new value.
func renderPlacement(item model.Rateable, final []model.Rateable) interactionResponse {
	for _, placed := range final {
		if placed.ID == item.ID {
			item = placed
			break
		}
	}
	value := 0.0
	if item.Value != nil {
		value = *item.Value
	}
	return renderMessage(fmt.Sprintf("Done! %s is rated %.2f among your %ss.", item.Name, value, item.Type))
}

// renderRatings lists a type's items best first.
func renderRatings(itemType string, items []model.Rateable) interactionResponse {
	if len(items) == 0 {
		return renderMessage(fmt.Sprintf("You have no rated %ss yet.", itemType))
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, fmt.Sprintf("Your %ss:", itemType))
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if item.Value == nil {
			lines = append(lines, fmt.Sprintf("%s (unrated)", item.Name))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %.2f", item.Name, *item.Value))
	}
	return renderMessage(strings.Join(lines, "\n"))
}

func renderTypes(types []string) interactionResponse {
	if len(types) == 0 {
		return renderMessage("You have not rated anything yet.")
	}
	return renderMessage("You are rating: " + strings.Join(types, ", "))
}

func renderFirst(item model.Rateable) interactionResponse {
	return renderMessage(fmt.Sprintf("%s is your first %s. Add another one to start comparing.", item.Name, item.Type))
}

func renderRemoved(item model.Rateable) interactionResponse {
	return renderMessage(fmt.Sprintf("Removed %s from your %ss.", item.Name, item.Type))
}

func renderNotFound(name string) interactionResponse {
	return renderMessage(fmt.Sprintf("I couldn't find %q.", name))
}

func renderMessage(content string) interactionResponse {
	if content == "" {
		content = "..."
	}
	return interactionResponse{
		Type: callbackMessage,
		Data: &responseData{Content: content},
	}
}
