package workflows_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"voice-order-confirm/order-confirmation/activities"
	"voice-order-confirm/order-confirmation/types"
	"voice-order-confirm/order-confirmation/workflows"
)

type ConfirmWorkflowSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func TestConfirmWorkflowSuite(t *testing.T) {
	suite.Run(t, new(ConfirmWorkflowSuite))
}

func (s *ConfirmWorkflowSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterWorkflow(workflows.ConfirmRecordingWorkflow)
	s.env.RegisterActivity(&activities.ConfirmActivities{})
}

func (s *ConfirmWorkflowSuite) AfterTest(_, _ string) {
	s.env.AssertExpectations(s.T())
}

var recording = types.RecordingRequest{OrderID: "1001", RecordingURL: "https://api.twilio.com/Recordings/RE1"}

func (s *ConfirmWorkflowSuite) Test_Changed() {
	c := types.Classification{Decision: types.DecisionChanged, UpdatedLine: "1 Zinger burger, 1 large fries"}
	out := types.Outcome{OrderID: "1001", Transcript: "make the fries large", Classification: c, Status: types.StatusChanged}

	s.env.OnActivity("MarkProcessing", mock.Anything, "1001").Return(nil).Once()
	s.env.OnActivity("TranscribeRecording", mock.Anything, recording.RecordingURL).Return("make the fries large", nil).Once()
	s.env.OnActivity("ClassifyTranscript", mock.Anything, "1001", "make the fries large").Return(c, nil).Once()
	s.env.OnActivity("RecordOutcome", mock.Anything, "1001", "make the fries large", c).Return(out, nil).Once()

	s.env.ExecuteWorkflow(workflows.ConfirmRecordingWorkflow, recording)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	var got types.Outcome
	s.NoError(s.env.GetWorkflowResult(&got))
	s.Equal(out, got)
	s.env.AssertNotCalled(s.T(), "MarkFailed", mock.Anything, mock.Anything)

	res, err := s.env.QueryWorkflow("get-stage")
	s.NoError(err)
	var st workflows.ConfirmStatus
	s.NoError(res.Get(&st))
	s.Equal("completed", st.Stage)
	s.Equal(types.DecisionChanged, st.Decision)
}

func (s *ConfirmWorkflowSuite) Test_MarkProcessingIsBestEffort() {
	c := types.Classification{Decision: types.DecisionConfirmed, UpdatedLine: "2 wraps"}
	out := types.Outcome{OrderID: "1001", Transcript: "yes", Classification: c, Status: types.StatusConfirmed}

	s.env.OnActivity("MarkProcessing", mock.Anything, "1001").Return(errors.New("sheet quota"))
	s.env.OnActivity("TranscribeRecording", mock.Anything, mock.Anything).Return("yes", nil).Once()
	s.env.OnActivity("ClassifyTranscript", mock.Anything, "1001", "yes").Return(c, nil).Once()
	s.env.OnActivity("RecordOutcome", mock.Anything, "1001", "yes", c).Return(out, nil).Once()

	s.env.ExecuteWorkflow(workflows.ConfirmRecordingWorkflow, recording)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ConfirmWorkflowSuite) Test_FailureMarksRowFailed() {
	s.env.OnActivity("MarkProcessing", mock.Anything, "1001").Return(nil).Once()
	s.env.OnActivity("TranscribeRecording", mock.Anything, mock.Anything).Return("hello", nil).Once()
	s.env.OnActivity("ClassifyTranscript", mock.Anything, "1001", "hello").
		Return(types.Classification{}, &types.NotFoundError{OrderID: "1001"}).Once()
	s.env.OnActivity("MarkFailed", mock.Anything, "1001").Return(nil).Once()

	s.env.ExecuteWorkflow(workflows.ConfirmRecordingWorkflow, recording)

	s.True(s.env.IsWorkflowCompleted())
	err := s.env.GetWorkflowError()
	s.Error(err)

	var appErr *temporal.ApplicationError
	s.True(errors.As(err, &appErr))
	s.Equal("NotFoundError", appErr.Type())
	s.env.AssertNotCalled(s.T(), "RecordOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ConfirmWorkflowSuite) Test_MissingRecordingURL() {
	s.env.ExecuteWorkflow(workflows.ConfirmRecordingWorkflow, types.RecordingRequest{OrderID: "1001"})

	s.True(s.env.IsWorkflowCompleted())
	var appErr *temporal.ApplicationError
	s.True(errors.As(s.env.GetWorkflowError(), &appErr))
	s.Equal("ValidationError", appErr.Type())
	s.env.AssertNotCalled(s.T(), "MarkProcessing", mock.Anything, mock.Anything)
}
