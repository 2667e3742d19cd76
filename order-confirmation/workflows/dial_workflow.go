package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"voice-order-confirm/order-confirmation/calls"
	"voice-order-confirm/order-confirmation/types"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultMaxCallWait  = 300 * time.Second
	DefaultCallGap      = 3 * time.Second

	statusPollTimeout = 10 * time.Second
)

// DialBatchInput is the input to DialOrdersWorkflow
type DialBatchInput struct {
	PublicBaseURL string
	CountryCode   string
	PollInterval  time.Duration
	MaxCallWait   time.Duration
	CallGap       time.Duration
}

func (in *DialBatchInput) setDefaults() {
	if in.PollInterval <= 0 {
		in.PollInterval = DefaultPollInterval
	}
	if in.MaxCallWait <= 0 {
		in.MaxCallWait = DefaultMaxCallWait
	}
	if in.CallGap < 0 {
		in.CallGap = 0
	}
	if in.CountryCode == "" {
		in.CountryCode = calls.DefaultCountryCode
	}
}

// DialOrdersWorkflow scans the order table once and calls every eligible
// customer in row order, one call at a time. Each call is followed until it
// ends or the wait ceiling passes before the next row is dialed.
func DialOrdersWorkflow(ctx workflow.Context, input DialBatchInput) (types.DialReport, error) {
	logger := workflow.GetLogger(ctx)
	input.setDefaults()

	report := types.DialReport{StartedAt: workflow.Now(ctx)}

	err := workflow.SetQueryHandler(ctx, "get-progress", func() (types.DialReport, error) {
		return report, nil
	})
	if err != nil {
		return report, err
	}

	retryPolicy := &temporal.RetryPolicy{
		InitialInterval:        1 * time.Second,
		BackoffCoefficient:     2.0,
		MaximumInterval:        30 * time.Second,
		MaximumAttempts:        5,
		NonRetryableErrorTypes: []string{"ValidationError", "NotFoundError"},
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         retryPolicy,
	})

	// A retried dial could ring the customer twice
	dialCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	var records []types.OrderRecord
	if err := workflow.ExecuteActivity(ctx, "ListOrders").Get(ctx, &records); err != nil {
		logger.Error("Failed to list orders", "error", err)
		return report, err
	}
	if len(records) == 0 {
		logger.Info("Order table is empty")
		return report, nil
	}

	for _, rec := range records {
		report.Scanned++
		if !calls.Eligible(rec) {
			report.Skipped++
			continue
		}

		to, err := calls.NormalizePhone(rec.Phone, input.CountryCode)
		if err != nil {
			logger.Warn("Bad phone number", "orderID", rec.OrderID, "row", rec.Row, "phone", rec.Phone, "error", err)
			updateOrder(ctx, rec.OrderID, types.OrderUpdate{Status: types.StatusFailed})
			report.Failed++
			report.Results = append(report.Results, types.CallResult{OrderID: rec.OrderID, State: types.CallFailed})
			continue
		}

		logger.Info("Dialing row", "row", rec.Row, "name", rec.Name, "to", to, "orderID", rec.OrderID)
		var sid string
		err = workflow.ExecuteActivity(dialCtx, "PlaceCall", to, calls.CallbackURL(input.PublicBaseURL, rec.OrderID)).Get(ctx, &sid)
		if err != nil {
			marker := dialFailureMarker(err)
			logger.Error("Call failed", "row", rec.Row, "orderID", rec.OrderID, "marker", marker, "error", err)
			updateOrder(ctx, rec.OrderID, types.OrderUpdate{Status: types.StatusFailed, CallMarker: marker})
			report.Failed++
			report.Results = append(report.Results, types.CallResult{OrderID: rec.OrderID, State: types.CallFailed, Marker: marker})
			continue
		}
		report.Dialed++
		updateOrder(ctx, rec.OrderID, types.OrderUpdate{Status: types.StatusCalled, CallMarker: sid})

		state := waitForCall(ctx, sid, input.PollInterval, input.MaxCallWait)
		logger.Info("Call finished", "sid", sid, "status", state)

		if state.Terminal() && !state.Answered() && state != types.CallTimeout {
			var resolved bool
			if err := workflow.ExecuteActivity(ctx, "ResolveUnanswered", rec.OrderID).Get(ctx, &resolved); err != nil {
				logger.Warn("Could not resolve unanswered call", "orderID", rec.OrderID, "error", err)
			}
		}
		report.Results = append(report.Results, types.CallResult{OrderID: rec.OrderID, CallRef: sid, State: state})

		if input.CallGap > 0 {
			if err := workflow.Sleep(ctx, input.CallGap); err != nil {
				return report, err
			}
		}
	}

	logger.Info("Dial batch completed", "scanned", report.Scanned, "dialed", report.Dialed, "failed", report.Failed, "skipped", report.Skipped)
	return report, nil
}

// waitForCall polls the call state every poll until it is terminal. It
// returns CallTimeout once maxWait of workflow time has passed, counting the
// time spent in the polls themselves.
func waitForCall(ctx workflow.Context, sid string, poll, maxWait time.Duration) types.CallState {
	logger := workflow.GetLogger(ctx)

	deadline := workflow.Now(ctx).Add(maxWait)
	for {
		remaining := deadline.Sub(workflow.Now(ctx))
		if remaining <= 0 {
			return types.CallTimeout
		}

		// The loop is the retry; a single poll may not outlive the deadline
		pollCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: min(statusPollTimeout, remaining),
			RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
		})
		var state types.CallState
		err := workflow.ExecuteActivity(pollCtx, "CallStatus", sid).Get(ctx, &state)
		if err != nil {
			logger.Warn("Call status poll failed", "sid", sid, "error", err)
		} else if state.Terminal() {
			return state
		}

		remaining = deadline.Sub(workflow.Now(ctx))
		if remaining <= 0 {
			return types.CallTimeout
		}
		if err := workflow.Sleep(ctx, min(poll, remaining)); err != nil {
			return types.CallTimeout
		}
	}
}

// updateOrder writes u and logs failures; the scan goes on either way
func updateOrder(ctx workflow.Context, orderID string, u types.OrderUpdate) {
	if err := workflow.ExecuteActivity(ctx, "UpdateOrder", orderID, u).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Error("Order update failed", "orderID", orderID, "status", u.Status, "error", err)
	}
}

func dialFailureMarker(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() == "UnverifiedNumberError" {
		return calls.MarkerUnverified
	}
	return calls.FailureMarker(err)
}
