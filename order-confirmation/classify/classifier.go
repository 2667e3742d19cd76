// Package classify decides whether a caller confirmed or changed an order and
// produces the canonical order line that results.
package classify

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.temporal.io/sdk/log"

	"voice-order-confirm/order-confirmation/telemetry"
	"voice-order-confirm/order-confirmation/types"
)

// Completer runs one system+user prompt against a language model and returns its text reply
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// DefaultMenuTerms are phrases the model should keep verbatim when rewriting
var DefaultMenuTerms = []string{
	"Fajita pizza", "Pepperoni pizza", "Zinger burger", "Cheeseburger",
	"Fries", "Large fries", "Medium fries", "Coke", "Diet Coke",
	"Large Coke", "Medium Coke",
}

// Classifier turns a transcript plus the original order into a Classification
type Classifier struct {
	completer Completer
	menuTerms []string
	logger    log.Logger
	fallbacks metric.Int64Counter
}

// Option configures a Classifier
type Option func(*Classifier)

// WithMenuTerms overrides the menu terms hint
func WithMenuTerms(terms []string) Option {
	return func(c *Classifier) {
		if len(terms) > 0 {
			c.menuTerms = terms
		}
	}
}

// WithLogger sets the logger used to report fallbacks
func WithLogger(l log.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// New creates a Classifier backed by completer
func New(completer Completer, opts ...Option) *Classifier {
	c := &Classifier{
		completer: completer,
		menuTerms: DefaultMenuTerms,
		logger:    telemetry.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.fallbacks, _ = telemetry.Meter("classify").Int64Counter("confirm.classifier.fallbacks",
		metric.WithDescription("Classifier replies that failed validation"),
	)
	return c
}

// Classify makes a single model call. A reply that does not validate degrades to
// a "changed" decision carrying the raw transcript; only a failed model call is
// returned as an error.
func (c *Classifier) Classify(ctx context.Context, transcript, originalOrder string) (types.Classification, error) {
	system := systemPrompt(c.menuTerms)
	user := fmt.Sprintf("original_order: %s\ntranscript: %s", originalOrder, transcript)

	raw, err := c.completer.Complete(ctx, system, user)
	if err != nil {
		return types.Classification{}, &types.TransportError{Op: "classify transcript", Err: err}
	}

	result, perr := ParseClassification(raw, transcript, originalOrder)
	if perr != nil {
		c.logger.Warn("Classifier reply rejected, falling back to transcript", "error", perr, "raw", raw)
		if c.fallbacks != nil {
			c.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "parse")))
		}
	}
	return result, nil
}

func systemPrompt(menuTerms []string) string {
	var b strings.Builder
	b.WriteString("You are helping a restaurant confirm orders from a phone transcript. You must:\n")
	b.WriteString("1) Decide if the caller confirmed the order ('confirmed') or requested changes ('changed'). ")
	b.WriteString("Treat phrases like 'yes', 'correct', 'no changes', 'keep same', 'as is', 'it's fine' as 'confirmed'.\n")
	b.WriteString("2) Produce ONE concise POS-friendly line for the final order as 'updated_line'.\n")
	b.WriteString("   - If the decision is 'confirmed': set updated_line = original_order exactly.\n")
	b.WriteString("   - If 'changed': rewrite clearly with quantities/sizes if stated.\n")
	b.WriteString("   - Preserve menu terms exactly if clear. Menu terms: ")
	b.WriteString(strings.Join(menuTerms, "; "))
	b.WriteString(".\n")
	b.WriteString("   - Do NOT invent items that the caller did not mention or that are not in the original order.\n")
	b.WriteString(`Return ONLY strict JSON: {"decision":"confirmed|changed","updated_line":"..."}`)
	return b.String()
}
