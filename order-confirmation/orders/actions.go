package orders

import (
	"fmt"
	"strings"

	"voice-order-confirm/order-confirmation/types"
)

// Validate checks every action before any of them is applied
func Validate(actions []types.Action) error {
	for i, a := range actions {
		if Key(a.Item) == "" {
			return &types.ValidationError{Msg: fmt.Sprintf("action %d: item is required", i)}
		}
		switch types.ActionType(strings.ToLower(string(a.Type))) {
		case types.ActionCancel, types.ActionChange, types.ActionAdd:
		default:
			return &types.ValidationError{Msg: fmt.Sprintf("action %d: unknown type %q", i, a.Type)}
		}
	}
	return nil
}

// Apply runs actions in order against a copy of set and returns the result.
// Cancelling an item the order does not contain is a no-op; changing one adds
// it; adding an item that is already present leaves it untouched.
func Apply(set *ItemSet, actions []types.Action) (*ItemSet, error) {
	if err := Validate(actions); err != nil {
		return nil, err
	}

	out := set.Clone()
	for _, a := range actions {
		name := Key(a.Item)
		existing, ok := out.Get(name)

		switch types.ActionType(strings.ToLower(string(a.Type))) {
		case types.ActionCancel:
			if ok {
				existing.Status = ItemCancelled
				out.Put(existing)
			}

		case types.ActionChange:
			size := strings.TrimSpace(a.Modification)
			if size == "" {
				size = DefaultChangeSize
			}
			if ok {
				existing.Size = size
				out.Put(existing)
			} else {
				out.Put(Item{Name: name, Status: ItemActive, Size: size, Quantity: 1})
			}

		case types.ActionAdd:
			if !ok {
				out.Put(Item{Name: name, Status: ItemActive, Size: DefaultAddSize, Quantity: 1})
			}
		}
	}
	return out, nil
}

// Summarize returns the message to read back for an intent
func Summarize(intent types.Intent) string {
	if msg := strings.TrimSpace(intent.Response.Message); msg != "" {
		return msg
	}
	return "No response message provided."
}

// ApplyToLine applies actions to a canonical order line and renders the result
func ApplyToLine(line string, actions []types.Action) (string, error) {
	set, err := Apply(ParseLine(line), actions)
	if err != nil {
		return "", err
	}
	return RenderLine(set), nil
}
