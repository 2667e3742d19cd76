package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"voice-order-confirm/order-confirmation/types"
)

const classificationSchemaURL = "https://voice-order-confirm.local/schemas/classification.schema.json"

const classificationSchema = `{
  "type": "object",
  "required": ["decision", "updated_line"],
  "properties": {
    "decision": {"type": "string", "enum": ["confirmed", "changed"]},
    "updated_line": {"type": "string"}
  }
}`

var compiledSchema = mustCompile(classificationSchemaURL, classificationSchema)

func mustCompile(url, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("classification schema load failed: %v", err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("classification schema compile failed: %v", err))
	}
	return compiled
}

// ParseClassification validates a model reply. It always returns a usable
// Classification: on success a confirmed decision carries originalOrder verbatim;
// on failure the result is a changed decision carrying transcript, and the
// *types.ParseError explains why.
func ParseClassification(raw, transcript, originalOrder string) (types.Classification, error) {
	fallback := types.Classification{Decision: types.DecisionChanged, UpdatedLine: transcript}

	body := stripFence(raw)
	doc, err := decodeReply(body)
	if err != nil {
		return fallback, &types.ParseError{Msg: fmt.Sprintf("reply is not JSON: %v", err), Raw: raw}
	}
	if obj, ok := doc.(map[string]interface{}); ok {
		if d, ok := obj["decision"].(string); ok {
			obj["decision"] = strings.ToLower(strings.TrimSpace(d))
		}
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fallback, &types.ParseError{Msg: fmt.Sprintf("reply failed schema validation: %v", err), Raw: raw}
	}

	obj := doc.(map[string]interface{})
	out := types.Classification{
		Decision:    types.Decision(obj["decision"].(string)),
		UpdatedLine: obj["updated_line"].(string),
	}

	if out.Decision == types.DecisionConfirmed {
		out.UpdatedLine = originalOrder
		return out, nil
	}
	out.UpdatedLine = strings.TrimSpace(out.UpdatedLine)
	if out.UpdatedLine == "" {
		return fallback, &types.ParseError{Msg: "changed decision without updated_line", Raw: raw}
	}
	return out, nil
}

// decodeReply reads exactly one JSON value from body
func decodeReply(body string) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected content after JSON value")
	}
	return doc, nil
}

// stripFence removes a surrounding markdown code fence, which models add despite instructions
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
