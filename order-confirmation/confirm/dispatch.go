package confirm

import (
	"context"
	"errors"
	"sync"

	"go.temporal.io/sdk/log"
	"golang.org/x/sync/semaphore"

	"voice-order-confirm/order-confirmation/telemetry"
	"voice-order-confirm/order-confirmation/types"
)

// ErrDispatcherClosed is returned by Dispatch after Close
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Dispatcher hands a recording off for processing without waiting for it.
// Dispatching the same order and recording twice processes it once.
type Dispatcher interface {
	Dispatch(ctx context.Context, req types.RecordingRequest) error
}

// LocalDispatcher processes recordings on a bounded pool of goroutines
type LocalDispatcher struct {
	proc   *Processor
	claims Claims
	sem    *semaphore.Weighted
	logger log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewLocalDispatcher runs at most workers recordings at once
func NewLocalDispatcher(proc *Processor, claims Claims, workers int, logger log.Logger) *LocalDispatcher {
	if workers < 1 {
		workers = 1
	}
	if claims == nil {
		claims = NewMemoryClaims(DefaultClaimTTL)
	}
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalDispatcher{
		proc:   proc,
		claims: claims,
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, req types.RecordingRequest) error {
	if err := Validate(req); err != nil {
		return err
	}

	if d.isClosed() {
		return ErrDispatcherClosed
	}

	// claims may be remote, so the lock is not held across them
	key := IdempotencyKey(req)
	ok, err := d.claims.Claim(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		d.logger.Info("Duplicate recording ignored", "orderID", req.OrderID, "key", key)
		return nil
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("Recording claimed after shutdown began", "orderID", req.OrderID, "key", key)
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		if err := d.sem.Acquire(d.ctx, 1); err != nil {
			d.logger.Warn("Recording dropped on shutdown", "orderID", req.OrderID)
			return
		}
		defer d.sem.Release(1)
		_, _ = d.proc.Process(d.ctx, req)
	}()
	return nil
}

func (d *LocalDispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close stops accepting work and waits for in-flight recordings until ctx is
// done, after which remaining work is canceled.
func (d *LocalDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
