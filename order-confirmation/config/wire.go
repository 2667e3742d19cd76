package config

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/log"

	"voice-order-confirm/order-confirmation/classify"
	"voice-order-confirm/order-confirmation/confirm"
	"voice-order-confirm/order-confirmation/store"
	"voice-order-confirm/order-confirmation/telephony"
	"voice-order-confirm/order-confirmation/transcribe"
)

// OpenStore opens the configured order store. The returned close func is never nil.
func (c *Config) OpenStore(ctx context.Context, logger log.Logger) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch c.OrderStore {
	case StoreSheets:
		s, err := store.NewSheets(ctx, c.GoogleServiceAccountJSON, c.OrdersSheetID, c.OrdersSheetName, logger)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using Google Sheets order store", "sheetID", c.OrdersSheetID, "worksheet", c.OrdersSheetName)
		return s, noop, nil
	case StoreSQLite:
		s, err := store.OpenSQLite(c.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite %s: %w", c.SQLitePath, err)
		}
		logger.Info("Using SQLite order store", "path", c.SQLitePath)
		return s, s.Close, nil
	case StoreMemory:
		logger.Warn("Using in-memory order store; rows are lost on exit")
		return store.NewMemory(), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown order store %q", c.OrderStore)
}

// NewClassifier builds the transcript classifier for the configured provider
func (c *Config) NewClassifier(logger log.Logger) (*classify.Classifier, error) {
	completer, err := classify.NewCompleter(c.ClassifierProvider, c.ClassifierModel, c.AnthropicAPIKey, c.OpenAIAPIKey)
	if err != nil {
		return nil, err
	}
	return classify.New(completer, classify.WithMenuTerms(c.MenuTerms), classify.WithLogger(logger)), nil
}

// NewProcessor wires download, transcription and classification over s
func (c *Config) NewProcessor(s store.Store, logger log.Logger) (*confirm.Processor, error) {
	whisper, err := transcribe.NewWhisper(c.OpenAIAPIKey, c.TranscribeModel)
	if err != nil {
		return nil, err
	}
	classifier, err := c.NewClassifier(logger)
	if err != nil {
		return nil, err
	}
	fetcher := telephony.NewRecordingFetcher(c.TwilioAccountSID, c.TwilioAuthToken)
	return confirm.NewProcessor(s, fetcher, whisper, classifier, logger), nil
}

// NewPhone builds the Twilio call client
func (c *Config) NewPhone() (*telephony.Client, error) {
	return telephony.NewClient(c.TwilioAccountSID, c.TwilioAuthToken, c.TwilioFromNumber)
}
