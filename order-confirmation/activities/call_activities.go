package activities

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.temporal.io/sdk/activity"

	"voice-order-confirm/order-confirmation/store"
	"voice-order-confirm/order-confirmation/telemetry"
	"voice-order-confirm/order-confirmation/types"
)

// Phone places outbound calls and reports their state
type Phone interface {
	PlaceCall(ctx context.Context, to, callbackURL string) (string, error)
	CallStatus(ctx context.Context, sid string) (types.CallState, error)
}

// CallActivities contains the activities used by the dial batch
type CallActivities struct {
	Store store.Store
	Phone Phone
}

// ListOrders reads every order row
func (a *CallActivities) ListOrders(ctx context.Context) ([]types.OrderRecord, error) {
	logger := activity.GetLogger(ctx)

	records, err := a.Store.ReadAllRows(ctx)
	if err != nil {
		logger.Error("Failed to read orders", "error", err)
		return nil, err
	}
	logger.Info("Orders loaded", "count", len(records))
	return records, nil
}

// PlaceCall dials a customer and returns the call SID
func (a *CallActivities) PlaceCall(ctx context.Context, to, callbackURL string) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Dialing", "to", to, "callbackURL", callbackURL)

	sid, err := a.Phone.PlaceCall(ctx, to, callbackURL)
	if err != nil {
		logger.Warn("Dial failed", "to", to, "error", err)
		var unverified *types.UnverifiedNumberError
		if errors.As(err, &unverified) {
			countDial(ctx, "unverified")
		} else {
			countDial(ctx, "failed")
		}
		return "", err
	}

	countDial(ctx, "placed")
	logger.Info("Call placed", "sid", sid)
	return sid, nil
}

func countDial(ctx context.Context, outcome string) {
	counter, err := telemetry.Meter("activities").Int64Counter("confirm.dials",
		metric.WithDescription("Outbound dial attempts by outcome"))
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// CallStatus fetches the current call state
func (a *CallActivities) CallStatus(ctx context.Context, sid string) (types.CallState, error) {
	state, err := a.Phone.CallStatus(ctx, sid)
	if err != nil {
		return "", err
	}
	activity.GetLogger(ctx).Info("Call status", "sid", sid, "status", state)
	return state, nil
}

// UpdateOrder writes u to the row for orderID
func (a *CallActivities) UpdateOrder(ctx context.Context, orderID string, u types.OrderUpdate) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Updating order", "orderID", orderID, "status", u.Status, "call", u.CallMarker)

	if err := store.UpdateOrder(ctx, a.Store, orderID, u); err != nil {
		logger.Error("Order update failed", "orderID", orderID, "error", err)
		return err
	}
	return nil
}

// ResolveUnanswered moves a row still in Called to Failed after the call ended
// without an answer. It returns whether the row was changed; rows the inbound
// side has already picked up are left alone.
func (a *CallActivities) ResolveUnanswered(ctx context.Context, orderID string) (bool, error) {
	logger := activity.GetLogger(ctx)

	row, err := a.Store.FindRow(ctx, orderID)
	if err != nil {
		return false, err
	}
	status, err := a.Store.ReadField(ctx, row, store.ColStatus)
	if err != nil {
		return false, err
	}
	if types.ParseStatus(status) != types.StatusCalled {
		logger.Info("Order already moved on", "orderID", orderID, "status", status)
		return false, nil
	}
	if err := store.Update(ctx, a.Store, row, store.Field{Column: store.ColStatus, Value: string(types.StatusFailed)}); err != nil {
		return false, err
	}
	logger.Info("Unanswered call marked failed", "orderID", orderID)
	return true, nil
}
