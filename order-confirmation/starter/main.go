package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"

	"voice-order-confirm/order-confirmation/config"
	"voice-order-confirm/order-confirmation/telemetry"
	"voice-order-confirm/order-confirmation/types"
	"voice-order-confirm/order-confirmation/workflows"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalln("Invalid configuration", err)
	}
	if err := cfg.RequireDialer(); err != nil {
		log.Fatalln(err)
	}

	// Create Temporal client
	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
		Logger:   telemetry.NewLogger(os.Stderr, slog.LevelWarn),
	})
	if err != nil {
		log.Fatalln("Unable to create Temporal client", err)
	}
	defer c.Close()

	workflowID := fmt.Sprintf("dial-orders-%d", time.Now().Unix())
	input := workflows.DialBatchInput{
		PublicBaseURL: cfg.PublicBaseURL,
		CountryCode:   cfg.DefaultCountryCode,
		PollInterval:  cfg.PollInterval,
		MaxCallWait:   cfg.MaxCallWait,
		CallGap:       cfg.CallGap,
	}

	log.Printf("PUBLIC_BASE_URL = %s\n", cfg.PublicBaseURL)
	log.Printf("TWILIO_FROM_NUMBER = %s\n", cfg.TwilioFromNumber)
	log.Printf("Starting DialOrdersWorkflow: %s\n", workflowID)

	we, err := c.ExecuteWorkflow(context.Background(), client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: cfg.TaskQueue,
	}, workflows.DialOrdersWorkflow, input)
	if err != nil {
		log.Fatalln("Unable to start workflow", err)
	}

	log.Printf("Started workflow - WorkflowID: %s, RunID: %s\n", we.GetID(), we.GetRunID())
	log.Printf("  Query progress:\n")
	log.Printf("    tctl workflow query -w %s -qt get-progress\n", workflowID)

	var report types.DialReport
	if err := we.Get(context.Background(), &report); err != nil {
		log.Fatalf("Dial batch failed: %v\n", err)
	}

	log.Printf("Dial batch completed: scanned=%d dialed=%d failed=%d skipped=%d\n",
		report.Scanned, report.Dialed, report.Failed, report.Skipped)
	for _, r := range report.Results {
		if r.Marker != "" {
			log.Printf("  %s  %-12s %s\n", r.OrderID, r.State, r.Marker)
			continue
		}
		log.Printf("  %s  %-12s %s\n", r.OrderID, r.State, r.CallRef)
	}
}
