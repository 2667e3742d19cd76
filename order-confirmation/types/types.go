package types

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an order row
type Status string

const (
	StatusNew        Status = "New"
	StatusRetry      Status = "Retry"
	StatusCalled     Status = "Called"
	StatusProcessing Status = "Processing"
	StatusConfirmed  Status = "Confirmed"
	StatusChanged    Status = "Changed"
	StatusFailed     Status = "Failed"
)

var knownStatuses = []Status{
	StatusNew, StatusRetry, StatusCalled, StatusProcessing,
	StatusConfirmed, StatusChanged, StatusFailed,
}

// ParseStatus maps a stored cell value onto a Status, ignoring case and
// surrounding whitespace. Unknown values are returned trimmed.
func ParseStatus(s string) Status {
	s = strings.TrimSpace(s)
	for _, known := range knownStatuses {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return Status(s)
}

// Dialable reports whether a row in this status may receive an outbound call
func (s Status) Dialable() bool {
	return s == StatusNew || s == StatusRetry
}

// Final reports whether the row has left the call/processing pipeline
func (s Status) Final() bool {
	return s == StatusConfirmed || s == StatusChanged || s == StatusFailed
}

// OrderRecord is one persisted order row
type OrderRecord struct {
	Row           int
	OrderID       string
	Name          string
	Phone         string
	OriginalOrder string
	Status        Status
	CallMarker    string
	UpdatedOrder  string
}

// OrderUpdate lists the fields to write for one order; empty fields are left alone
type OrderUpdate struct {
	Status       Status
	CallMarker   string
	UpdatedOrder string
}

// Decision is the classifier verdict for a transcript
type Decision string

const (
	DecisionConfirmed Decision = "confirmed"
	DecisionChanged   Decision = "changed"
)

// Status returns the row status a decision resolves to
func (d Decision) Status() Status {
	if d == DecisionConfirmed {
		return StatusConfirmed
	}
	return StatusChanged
}

// Classification is the result of classifying a transcript against the original order
type Classification struct {
	Decision    Decision `json:"decision"`
	UpdatedLine string   `json:"updated_line"`
}

// RecordingRequest is the payload of a recording-ready callback
type RecordingRequest struct {
	OrderID      string
	RecordingURL string
}

// Outcome is the final result of processing one recording
type Outcome struct {
	OrderID        string
	Transcript     string
	Classification Classification
	Status         Status
}

// CallState is a telephony call status
type CallState string

const (
	CallQueued     CallState = "queued"
	CallRinging    CallState = "ringing"
	CallInProgress CallState = "in-progress"
	CallCompleted  CallState = "completed"
	CallBusy       CallState = "busy"
	CallNoAnswer   CallState = "no-answer"
	CallFailed     CallState = "failed"
	CallCanceled   CallState = "canceled"
	// CallTimeout is reported when the wait ceiling elapses first
	CallTimeout CallState = "timeout"
)

// Terminal reports whether no further transition is expected
func (c CallState) Terminal() bool {
	switch c {
	case CallCompleted, CallBusy, CallNoAnswer, CallFailed, CallCanceled, CallTimeout:
		return true
	}
	return false
}

// Answered reports whether the callee picked up the call
func (c CallState) Answered() bool {
	return c == CallCompleted
}

// CallResult records the outcome of one dial attempt
type CallResult struct {
	OrderID string
	CallRef string
	State   CallState
	Marker  string
}

// DialReport summarizes one scan-and-dial pass
type DialReport struct {
	Scanned   int
	Skipped   int
	Dialed    int
	Failed    int
	Results   []CallResult
	StartedAt time.Time
}

// ActionType identifies an order action
type ActionType string

const (
	ActionCancel ActionType = "cancel"
	ActionChange ActionType = "change"
	ActionAdd    ActionType = "add"
)

// Action is one structured instruction targeting an order item
type Action struct {
	Type         ActionType `json:"type"`
	Item         string     `json:"item"`
	Modification string     `json:"modification,omitempty"`
}

// IntentResponse is the message read back to the customer
type IntentResponse struct {
	Message string `json:"message"`
}

// Intent is the structured interpretation of a customer request
type Intent struct {
	Actions  []Action       `json:"actions"`
	Response IntentResponse `json:"response"`
}
