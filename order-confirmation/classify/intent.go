package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"voice-order-confirm/order-confirmation/types"
)

const intentSystemPrompt = "You are a smart order assistant."

const intentPromptTemplate = `You are an AI assistant that extracts food order instructions from user messages and converts them into structured JSON actions.

Always return the response in this format:

{
  "actions": [
    {"type": "cancel", "item": "pizza"},
    {"type": "add", "item": "coke"},
    {"type": "change", "item": "burger", "modification": "large"}
  ],
  "response": {
    "message": "I have canceled your pizza, added a coke, and made your burger large."
  }
}

Rules:
- Return all actions mentioned in the user's message
- Each action must include "type" and "item"
- If the user changes an item (like size/type), include "modification"
- Respond only with the JSON. No greeting, no explanation

User message: %s
`

// UnderstoodNothing is the reply used when no intent could be extracted
const UnderstoodNothing = "Sorry, I couldn't understand your request."

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractIntent asks the model for structured add/cancel/change actions. A reply
// without a decodable JSON object yields an empty intent with an apology message.
func (c *Classifier) ExtractIntent(ctx context.Context, transcript string) (types.Intent, error) {
	raw, err := c.completer.Complete(ctx, intentSystemPrompt, fmt.Sprintf(intentPromptTemplate, transcript))
	if err != nil {
		return types.Intent{}, &types.TransportError{Op: "extract intent", Err: err}
	}

	intent, perr := ParseIntent(raw)
	if perr != nil {
		c.logger.Warn("Intent reply rejected", "error", perr)
	}
	return intent, nil
}

// ParseIntent locates the outermost JSON object in raw and decodes it
func ParseIntent(raw string) (types.Intent, error) {
	fallback := types.Intent{Response: types.IntentResponse{Message: UnderstoodNothing}}

	match := jsonObject.FindString(raw)
	if match == "" {
		return fallback, &types.ParseError{Msg: "no JSON object in reply", Raw: raw}
	}
	var intent types.Intent
	if err := json.Unmarshal([]byte(match), &intent); err != nil {
		return fallback, &types.ParseError{Msg: fmt.Sprintf("intent decode failed: %v", err), Raw: raw}
	}
	return intent, nil
}
