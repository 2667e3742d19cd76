package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"voice-order-confirm/order-confirmation/activities"
	"voice-order-confirm/order-confirmation/config"
	"voice-order-confirm/order-confirmation/telemetry"
	"voice-order-confirm/order-confirmation/workflows"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalln("Invalid configuration", err)
	}
	logger := telemetry.NewLogger(os.Stderr, slog.LevelInfo)

	ctx := context.Background()
	if err := telemetry.Init(ctx, cfg.OtelEnabled); err != nil {
		log.Fatalln("Unable to init telemetry", err)
	}
	defer func() { _ = telemetry.Shutdown(ctx) }()

	// Create Temporal client
	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalln("Unable to create Temporal client", err)
	}
	defer c.Close()

	orders, closeStore, err := cfg.OpenStore(ctx, logger)
	if err != nil {
		log.Fatalln("Unable to open order store", err)
	}
	defer func() { _ = closeStore() }()

	phone, err := cfg.NewPhone()
	if err != nil {
		log.Fatalln("Unable to create Twilio client", err)
	}
	proc, err := cfg.NewProcessor(orders, logger)
	if err != nil {
		log.Fatalln("Unable to build recording processor", err)
	}

	w := worker.New(c, cfg.TaskQueue, worker.Options{
		Identity:                               "confirm-worker-" + hostname(),
		MaxConcurrentActivityExecutionSize:     20,
		MaxConcurrentWorkflowTaskExecutionSize: 10,
	})

	// Register workflows
	w.RegisterWorkflow(workflows.DialOrdersWorkflow)
	w.RegisterWorkflow(workflows.ConfirmRecordingWorkflow)

	// Dial batch activities
	w.RegisterActivity(&activities.CallActivities{Store: orders, Phone: phone})

	// Recording processing activities
	w.RegisterActivity(&activities.ConfirmActivities{Processor: proc})

	log.Println("Worker starting on task queue:", cfg.TaskQueue)
	log.Println("Worker identity:", "confirm-worker-"+hostname())

	err = w.Run(worker.InterruptCh())
	if err != nil {
		log.Fatalln("Unable to start worker", err)
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
