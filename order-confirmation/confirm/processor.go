// Package confirm turns a recorded reply into a final order row: download,
// transcribe, classify and write back, plus the dispatchers that run that
// work off the request path.
package confirm

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.temporal.io/sdk/log"

	"voice-order-confirm/order-confirmation/store"
	"voice-order-confirm/order-confirmation/telemetry"
	"voice-order-confirm/order-confirmation/types"
)

// Fetcher downloads recording audio
type Fetcher interface {
	Fetch(ctx context.Context, recordingURL string) ([]byte, error)
}

// Transcriber turns audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Classifier decides between confirmed and changed
type Classifier interface {
	Classify(ctx context.Context, transcript, originalOrder string) (types.Classification, error)
}

// Processor runs the confirmation steps for one recording. Each step is
// exported so a workflow can run them as separate activities.
type Processor struct {
	store       store.Store
	fetcher     Fetcher
	transcriber Transcriber
	classifier  Classifier
	logger      log.Logger
	decisions   metric.Int64Counter
}

// NewProcessor wires the processing steps together
func NewProcessor(s store.Store, f Fetcher, t Transcriber, c Classifier, logger log.Logger) *Processor {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	p := &Processor{store: s, fetcher: f, transcriber: t, classifier: c, logger: logger}
	p.decisions, _ = telemetry.Meter("confirm").Int64Counter("confirm.decisions",
		metric.WithDescription("Recordings processed, by final status"),
	)
	return p
}

// Validate rejects requests missing an order id or recording url
func Validate(req types.RecordingRequest) error {
	if strings.TrimSpace(req.OrderID) == "" {
		return &types.ValidationError{Msg: "order id is required"}
	}
	if strings.TrimSpace(req.RecordingURL) == "" {
		return &types.ValidationError{Msg: "recording url is required"}
	}
	return nil
}

// MarkProcessing sets the row to Processing. Callers treat failure as a warning.
func (p *Processor) MarkProcessing(ctx context.Context, orderID string) error {
	return store.UpdateOrder(ctx, p.store, orderID, types.OrderUpdate{Status: types.StatusProcessing})
}

// Transcribe downloads the recording and returns its transcript
func (p *Processor) Transcribe(ctx context.Context, recordingURL string) (string, error) {
	audio, err := p.fetcher.Fetch(ctx, recordingURL)
	if err != nil {
		return "", err
	}
	return p.transcriber.Transcribe(ctx, audio)
}

// Classify reads the original order for orderID and classifies transcript against it
func (p *Processor) Classify(ctx context.Context, orderID, transcript string) (types.Classification, error) {
	row, err := p.store.FindRow(ctx, orderID)
	if err != nil {
		return types.Classification{}, err
	}
	original, err := p.store.ReadField(ctx, row, store.ColOriginalOrder)
	if err != nil {
		return types.Classification{}, fmt.Errorf("read original order: %w", err)
	}
	return p.classifier.Classify(ctx, transcript, original)
}

// Record writes status, transcript and updated order as one update
func (p *Processor) Record(ctx context.Context, orderID, transcript string, c types.Classification) (types.Outcome, error) {
	out := types.Outcome{
		OrderID:        orderID,
		Transcript:     transcript,
		Classification: c,
		Status:         c.Decision.Status(),
	}
	row, err := p.store.FindRow(ctx, orderID)
	if err != nil {
		return types.Outcome{}, err
	}
	// empty values are written too
	err = store.Update(ctx, p.store, row,
		store.Field{Column: store.ColStatus, Value: string(out.Status)},
		store.Field{Column: store.ColCall, Value: transcript},
		store.Field{Column: store.ColUpdatedOrder, Value: c.UpdatedLine},
	)
	if err != nil {
		return types.Outcome{}, err
	}
	p.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(out.Status))))
	return out, nil
}

// MarkFailed sets the row to Failed
func (p *Processor) MarkFailed(ctx context.Context, orderID string) error {
	err := store.UpdateOrder(ctx, p.store, orderID, types.OrderUpdate{Status: types.StatusFailed})
	if err == nil {
		p.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(types.StatusFailed))))
	}
	return err
}

// Process runs every step in order. Any failure after validation leaves the
// row Failed when the row can still be written.
func (p *Processor) Process(ctx context.Context, req types.RecordingRequest) (types.Outcome, error) {
	if err := Validate(req); err != nil {
		return types.Outcome{}, err
	}
	logger := log.With(p.logger, "orderID", req.OrderID)
	logger.Info("Processing recording", "recordingURL", req.RecordingURL)

	if err := p.MarkProcessing(ctx, req.OrderID); err != nil {
		logger.Warn("Could not mark order processing", "error", err)
	}

	out, err := p.run(ctx, req)
	if err != nil {
		logger.Error("Recording processing failed", "error", err)
		if ferr := p.MarkFailed(ctx, req.OrderID); ferr != nil {
			logger.Warn("Could not mark order failed", "error", ferr)
		}
		return types.Outcome{}, err
	}

	logger.Info("Recording processed", "status", out.Status, "updatedOrder", out.Classification.UpdatedLine)
	return out, nil
}

func (p *Processor) run(ctx context.Context, req types.RecordingRequest) (types.Outcome, error) {
	transcript, err := p.Transcribe(ctx, req.RecordingURL)
	if err != nil {
		return types.Outcome{}, fmt.Errorf("transcribe: %w", err)
	}
	c, err := p.Classify(ctx, req.OrderID, transcript)
	if err != nil {
		return types.Outcome{}, fmt.Errorf("classify: %w", err)
	}
	return p.Record(ctx, req.OrderID, transcript, c)
}
