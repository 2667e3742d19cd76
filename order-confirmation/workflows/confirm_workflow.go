package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"voice-order-confirm/order-confirmation/types"
)

// ConfirmStatus is returned by the get-stage query
type ConfirmStatus struct {
	OrderID    string
	Stage      string
	Transcript string
	Decision   types.Decision
	LastError  string
}

// ConfirmRecordingWorkflow processes one recorded reply: mark the row
// Processing, transcribe, classify, write the result. Any failure after the
// request is accepted marks the row Failed.
func ConfirmRecordingWorkflow(ctx workflow.Context, req types.RecordingRequest) (types.Outcome, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("ConfirmRecording workflow started", "orderID", req.OrderID)

	status := ConfirmStatus{OrderID: req.OrderID, Stage: "start"}
	err := workflow.SetQueryHandler(ctx, "get-stage", func() (ConfirmStatus, error) {
		return status, nil
	})
	if err != nil {
		return types.Outcome{}, err
	}

	if req.OrderID == "" || req.RecordingURL == "" {
		return types.Outcome{}, temporal.NewNonRetryableApplicationError("order id and recording url are required", "ValidationError", nil)
	}

	retryPolicy := &temporal.RetryPolicy{
		InitialInterval:        1 * time.Second,
		BackoffCoefficient:     2.0,
		MaximumInterval:        30 * time.Second,
		MaximumAttempts:        3,
		NonRetryableErrorTypes: []string{"ValidationError", "NotFoundError", "ParseError"},
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy:         retryPolicy,
	})

	// Best effort
	status.Stage = "processing"
	markCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 2},
	})
	if err := workflow.ExecuteActivity(markCtx, "MarkProcessing", req.OrderID).Get(ctx, nil); err != nil {
		logger.Warn("Could not mark order processing", "orderID", req.OrderID, "error", err)
	}

	fail := func(stage string, err error) (types.Outcome, error) {
		status.Stage = "failed"
		status.LastError = fmt.Sprintf("%s: %v", stage, err)
		logger.Error("Recording processing failed", "orderID", req.OrderID, "stage", stage, "error", err)
		if ferr := workflow.ExecuteActivity(ctx, "MarkFailed", req.OrderID).Get(ctx, nil); ferr != nil {
			logger.Warn("Could not mark order failed", "orderID", req.OrderID, "error", ferr)
		}
		return types.Outcome{}, err
	}

	status.Stage = "transcribe"
	var transcript string
	if err := workflow.ExecuteActivity(ctx, "TranscribeRecording", req.RecordingURL).Get(ctx, &transcript); err != nil {
		return fail("transcribe", err)
	}
	status.Transcript = transcript

	status.Stage = "classify"
	var c types.Classification
	if err := workflow.ExecuteActivity(ctx, "ClassifyTranscript", req.OrderID, transcript).Get(ctx, &c); err != nil {
		return fail("classify", err)
	}
	status.Decision = c.Decision

	status.Stage = "record"
	var out types.Outcome
	if err := workflow.ExecuteActivity(ctx, "RecordOutcome", req.OrderID, transcript, c).Get(ctx, &out); err != nil {
		return fail("record", err)
	}

	status.Stage = "completed"
	logger.Info("ConfirmRecording workflow completed", "orderID", req.OrderID, "status", out.Status)
	return out, nil
}
