package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"voice-order-confirm/order-confirmation/confirm"
	"voice-order-confirm/order-confirmation/types"
)

// ConfirmActivities runs the recording processing steps as activities
type ConfirmActivities struct {
	Processor *confirm.Processor
}

// MarkProcessing sets the order to Processing
func (a *ConfirmActivities) MarkProcessing(ctx context.Context, orderID string) error {
	activity.GetLogger(ctx).Info("Marking order processing", "orderID", orderID)
	return a.Processor.MarkProcessing(ctx, orderID)
}

// TranscribeRecording downloads and transcribes a recording
func (a *ConfirmActivities) TranscribeRecording(ctx context.Context, recordingURL string) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Transcribing recording", "recordingURL", recordingURL)

	transcript, err := a.Processor.Transcribe(ctx, recordingURL)
	if err != nil {
		return "", err
	}
	logger.Info("Transcript ready", "transcript", transcript)
	return transcript, nil
}

// ClassifyTranscript classifies transcript against the stored original order
func (a *ConfirmActivities) ClassifyTranscript(ctx context.Context, orderID, transcript string) (types.Classification, error) {
	c, err := a.Processor.Classify(ctx, orderID, transcript)
	if err != nil {
		return types.Classification{}, err
	}
	activity.GetLogger(ctx).Info("Transcript classified", "orderID", orderID, "decision", c.Decision, "updatedLine", c.UpdatedLine)
	return c, nil
}

// RecordOutcome writes the final status, transcript and updated order
func (a *ConfirmActivities) RecordOutcome(ctx context.Context, orderID, transcript string, c types.Classification) (types.Outcome, error) {
	out, err := a.Processor.Record(ctx, orderID, transcript, c)
	if err != nil {
		return types.Outcome{}, err
	}
	activity.GetLogger(ctx).Info("Outcome recorded", "orderID", orderID, "status", out.Status)
	return out, nil
}

// MarkFailed sets the order to Failed (compensation)
func (a *ConfirmActivities) MarkFailed(ctx context.Context, orderID string) error {
	activity.GetLogger(ctx).Warn("Marking order failed", "orderID", orderID)
	return a.Processor.MarkFailed(ctx, orderID)
}
