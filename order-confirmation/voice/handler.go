package voice

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.temporal.io/sdk/log"

	"voice-order-confirm/order-confirmation/confirm"
	"voice-order-confirm/order-confirmation/store"
	"voice-order-confirm/order-confirmation/telemetry"
	"voice-order-confirm/order-confirmation/types"
)

const nameLookupTimeout = 2 * time.Second

// Handler serves the voice webhooks
type Handler struct {
	store      store.Store
	dispatcher confirm.Dispatcher
	logger     log.Logger
	now        func() time.Time
}

// NewHandler creates a handler. s is only used to personalise the greeting
// and may be nil.
func NewHandler(s store.Store, d confirm.Dispatcher, logger log.Logger) *Handler {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &Handler{store: s, dispatcher: d, logger: logger, now: time.Now}
}

// Routes registers the webhook endpoints
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("POST /voice", h.voice)
	mux.HandleFunc("POST /process-recording", h.processRecording)
	return mux
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK - POST /voice?order_id=..."))
}

func (h *Handler) voice(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSpace(r.URL.Query().Get("order_id"))
	if orderID == "" {
		h.writeSay(w, MsgMissingOrder)
		return
	}

	body, err := PromptTwiML(orderID, Greeting(h.customerName(r.Context(), orderID), h.now()))
	if err != nil {
		h.logger.Error("Failed to render prompt", "orderID", orderID, "error", err)
		http.Error(w, "twiml error", http.StatusInternalServerError)
		return
	}
	writeXML(w, body)
}

func (h *Handler) processRecording(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSpace(r.URL.Query().Get("order_id"))
	recordingURL := strings.TrimSpace(r.PostFormValue("RecordingUrl"))
	h.logger.Info("Recording callback",
		"orderID", orderID,
		"recordingURL", recordingURL,
		"callSid", r.PostFormValue("CallSid"),
		"duration", r.PostFormValue("RecordingDuration"),
	)

	if orderID == "" || recordingURL == "" {
		h.writeSay(w, MsgMissingInfo)
		return
	}

	// The reply never depends on processing; Twilio gets its answer right away.
	req := types.RecordingRequest{OrderID: orderID, RecordingURL: recordingURL}
	if err := h.dispatcher.Dispatch(context.WithoutCancel(r.Context()), req); err != nil {
		h.logger.Error("Dispatch failed", "orderID", orderID, "error", err)
	}
	h.writeSay(w, MsgAck)
}

// customerName reads the Name column, giving up quickly
func (h *Handler) customerName(ctx context.Context, orderID string) string {
	if h.store == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, nameLookupTimeout)
	defer cancel()

	row, err := h.store.FindRow(ctx, orderID)
	if err != nil {
		h.logger.Warn("Could not look up order for greeting", "orderID", orderID, "error", err)
		return ""
	}
	name, err := h.store.ReadField(ctx, row, store.ColName)
	if err != nil {
		return ""
	}
	return name
}

func (h *Handler) writeSay(w http.ResponseWriter, msg string) {
	body, err := SayTwiML(msg)
	if err != nil {
		h.logger.Error("Failed to render twiml", "error", err)
		http.Error(w, "twiml error", http.StatusInternalServerError)
		return
	}
	writeXML(w, body)
}

func writeXML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(body))
}
