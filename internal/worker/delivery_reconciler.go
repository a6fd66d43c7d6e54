package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/polkiloo/servicemart/internal/adapter/backend"
	domainErrors "github.com/polkiloo/servicemart/internal/domain/errors"
	"github.com/polkiloo/servicemart/internal/domain/model"
	"github.com/polkiloo/servicemart/internal/domain/taxonomy"
)

// DeliverySource returns the latest delivery request of an order, or nil when
// none has been created yet.
type DeliverySource interface {
	Latest(ctx context.Context, orderID string) (*model.DeliveryRequest, error)
}

// tracker is one activation of an order. gen tells activations of the same
// order apart so a poll started for an old one never lands on its successor.
type tracker struct {
	gen      uint64
	ctx      context.Context
	snapshot model.DeliverySnapshot
	loaded   bool
	polling  bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// DeliveryReconciler polls delivery status for every tracked order.
type DeliveryReconciler struct {
	source   DeliverySource
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	group    singleflight.Group
	wg       sync.WaitGroup
	mu       sync.Mutex
	runCtx   context.Context
	cancel   context.CancelFunc
	trackers map[string]*tracker
	nextGen  uint64
}

// NewDeliveryReconciler constructs the reconciler.
func NewDeliveryReconciler(source DeliverySource, interval time.Duration, logger *slog.Logger) *DeliveryReconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &DeliveryReconciler{
		source:   source,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		trackers: make(map[string]*tracker),
	}
}

// Start enables polling. Pollers started later derive from ctx.
func (r *DeliveryReconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runCtx, r.cancel = context.WithCancel(ctx)
}

// Stop cancels every poller and waits for them to exit.
func (r *DeliveryReconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.runCtx = nil
	r.trackers = make(map[string]*tracker)
	r.mu.Unlock()

	r.wg.Wait()
}

// Activate starts tracking an order: one poll right away, then one per
// interval until a terminal status is seen. Activating a tracked order is a no-op.
func (r *DeliveryReconciler) Activate(orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domainErrors.Invalid("orderId", "is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runCtx == nil {
		return fmt.Errorf("delivery reconciler: %w", domainErrors.ErrClosed)
	}
	if _, ok := r.trackers[orderID]; ok {
		return nil
	}

	ctx, cancel := context.WithCancel(r.runCtx)
	r.nextGen++
	t := &tracker{
		gen:      r.nextGen,
		ctx:      ctx,
		snapshot: model.DeliverySnapshot{OrderID: orderID, Phase: model.DeliveryPhaseUnassigned},
		polling:  true,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	r.trackers[orderID] = t
	r.wg.Add(1)
	go r.run(ctx, orderID, t)
	r.logger.Info("delivery tracking activated", slog.String("order", orderID))
	return nil
}

// Deactivate stops tracking an order and drops its snapshot.
func (r *DeliveryReconciler) Deactivate(orderID string) {
	r.mu.Lock()
	t, ok := r.trackers[orderID]
	delete(r.trackers, orderID)
	r.mu.Unlock()
	if !ok {
		return
	}

	t.cancel()
	<-t.done
	r.logger.Info("delivery tracking deactivated", slog.String("order", orderID))
}

// Refresh polls a tracked order immediately. It shares an in-flight poll for
// the same order instead of issuing a second one and leaves the ticker alone.
// Cancelling ctx only stops the wait; the poll itself runs until the order is
// deactivated.
func (r *DeliveryReconciler) Refresh(ctx context.Context, orderID string) (model.DeliverySnapshot, error) {
	r.mu.Lock()
	t, ok := r.trackers[orderID]
	r.mu.Unlock()
	if !ok {
		return model.DeliverySnapshot{}, fmt.Errorf("order %s is not tracked: %w", orderID, domainErrors.ErrNotFound)
	}

	snapshot, _, err := r.poll(ctx, orderID, t)
	return snapshot, err
}

// Snapshot returns the last known state of a tracked order.
func (r *DeliveryReconciler) Snapshot(orderID string) (model.DeliverySnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[orderID]
	if !ok {
		return model.DeliverySnapshot{}, false
	}
	return t.copySnapshot(), true
}

func (r *DeliveryReconciler) run(ctx context.Context, orderID string, t *tracker) {
	defer r.wg.Done()
	defer close(t.done)
	defer func() {
		r.mu.Lock()
		t.polling = false
		r.mu.Unlock()
	}()

	if _, terminal, _ := r.poll(ctx, orderID, t); terminal {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, terminal, _ := r.poll(ctx, orderID, t); terminal {
				r.logger.Info("delivery reached terminal status, polling stopped", slog.String("order", orderID))
				return
			}
		}
	}
}

type pollResult struct {
	snapshot model.DeliverySnapshot
	terminal bool
}

func (r *DeliveryReconciler) poll(ctx context.Context, orderID string, t *tracker) (model.DeliverySnapshot, bool, error) {
	key := orderID + "#" + strconv.FormatUint(t.gen, 10)
	ch := r.group.DoChan(key, func() (any, error) {
		req, err := r.source.Latest(t.ctx, orderID)
		return r.apply(orderID, t, req, err)
	})

	select {
	case res := <-ch:
		v, _ := res.Val.(pollResult)
		return v.snapshot, v.terminal, res.Err
	case <-ctx.Done():
		r.mu.Lock()
		snapshot := t.copySnapshot()
		r.mu.Unlock()
		return snapshot, false, ctx.Err()
	}
}

func (r *DeliveryReconciler) apply(orderID string, t *tracker, req *model.DeliveryRequest, fetchErr error) (pollResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.trackers[orderID] != t || t.ctx.Err() != nil {
		if fetchErr == nil {
			fetchErr = context.Canceled
		}
		return pollResult{snapshot: t.copySnapshot()}, fetchErr
	}
	if fetchErr != nil {
		t.snapshot.Stale = t.loaded
		t.snapshot.LastError = domainErrors.Message(fetchErr)
		attrs := []any{slog.String("order", orderID), slog.String("error", fetchErr.Error())}
		var limited backend.TooManyRequestsError
		if errors.As(fetchErr, &limited) {
			attrs = append(attrs, slog.Duration("retry_after", limited.RetryAfter))
		}
		if !errors.Is(fetchErr, context.Canceled) {
			r.logger.Warn("delivery poll failed, keeping last snapshot", attrs...)
		}
		return pollResult{snapshot: t.copySnapshot()}, fetchErr
	}

	t.snapshot = BuildSnapshot(orderID, req, r.now())
	t.loaded = true
	terminal := req != nil && taxonomy.IsDeliveryTerminal(req.Status)
	return pollResult{snapshot: t.copySnapshot(), terminal: terminal}, nil
}

func (t *tracker) copySnapshot() model.DeliverySnapshot {
	s := t.snapshot
	s.Polling = t.polling
	if s.Steps != nil {
		s.Steps = append([]model.ProgressStep(nil), s.Steps...)
	}
	if s.Request != nil {
		req := *s.Request
		s.Request = &req
	}
	return s
}
