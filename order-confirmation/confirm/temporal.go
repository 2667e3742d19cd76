package confirm

import (
	"context"
	"errors"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"

	"voice-order-confirm/order-confirmation/telemetry"
	"voice-order-confirm/order-confirmation/types"
	"voice-order-confirm/order-confirmation/workflows"
)

type workflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// TemporalDispatcher starts one ConfirmRecordingWorkflow per recording. The
// workflow id is derived from the idempotency key so Temporal rejects repeats.
type TemporalDispatcher struct {
	client    workflowStarter
	taskQueue string
	logger    log.Logger
}

func NewTemporalDispatcher(c workflowStarter, taskQueue string, logger log.Logger) *TemporalDispatcher {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &TemporalDispatcher{client: c, taskQueue: taskQueue, logger: logger}
}

// WorkflowID is the id used for the confirmation workflow of req
func WorkflowID(req types.RecordingRequest) string {
	return "confirm-" + IdempotencyKey(req)
}

func (d *TemporalDispatcher) Dispatch(ctx context.Context, req types.RecordingRequest) error {
	if err := Validate(req); err != nil {
		return err
	}

	options := client.StartWorkflowOptions{
		ID:                                       WorkflowID(req),
		TaskQueue:                                d.taskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	run, err := d.client.ExecuteWorkflow(ctx, options, workflows.ConfirmRecordingWorkflow, req)
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			d.logger.Info("Duplicate recording ignored", "orderID", req.OrderID, "workflowID", options.ID)
			return nil
		}
		return &types.TransportError{Op: "start confirmation workflow", Err: err}
	}
	d.logger.Info("Started confirmation workflow", "orderID", req.OrderID, "workflowID", run.GetID(), "runID", run.GetRunID())
	return nil
}
