package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/servicemart/internal/domain/errors"
	"github.com/polkiloo/servicemart/internal/domain/model"
)

// CartGateway is the remote cart API.
type CartGateway interface {
	Cart(ctx context.Context) (*model.Cart, error)
	AddItem(ctx context.Context, target model.CartTarget) error
	UpdateLine(ctx context.Context, lineID string, quantity int) error
	DeleteLine(ctx context.Context, lineID string) error
}

// SetResult reports the outcome of a quantity change. Applied is false when
// the request was ignored.
type SetResult struct {
	View    model.LineView
	Applied bool
}

type lineState struct {
	lineID    string
	kind      model.TargetKind
	confirmed int
	displayed int
	phase     model.Phase
	inFlight  bool
	err       string
}

// CartQuantityController applies quantity changes optimistically with at most
// one mutation in flight per target.
type CartQuantityController struct {
	gateway CartGateway
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	lines  map[string]*lineState
	closed bool
	wg     sync.WaitGroup
}

// NewCartQuantityController constructs CartQuantityController.
func NewCartQuantityController(gateway CartGateway, logger *slog.Logger, mutationTimeout time.Duration) *CartQuantityController {
	if mutationTimeout <= 0 {
		mutationTimeout = 15 * time.Second
	}
	return &CartQuantityController{
		gateway: gateway,
		logger:  logger,
		timeout: mutationTimeout,
		lines:   make(map[string]*lineState),
	}
}

// Sync replaces cart membership with the server cart. Lines with a mutation in
// flight keep their optimistic quantity.
func (c *CartQuantityController) Sync(ctx context.Context) ([]model.LineView, error) {
	cart, err := c.gateway.Cart(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domainErrors.ErrClosed
	}
	c.replaceLocked(cart)
	return c.viewsLocked(), nil
}

// Views returns every line known to be in the cart.
func (c *CartQuantityController) Views() []model.LineView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewsLocked()
}

// View returns the display state of a target.
func (c *CartQuantityController) View(targetID string) (model.LineView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	line, ok := c.lines[targetID]
	if !ok {
		return model.LineView{TargetID: targetID, Phase: model.PhaseConfirmed}, false
	}
	return line.view(targetID), true
}

// InCart reports whether a target is in the local in-cart set.
func (c *CartQuantityController) InCart(targetID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lines[targetID]
	return ok
}

// Add puts a target into the cart. Adding a target that is already present
// raises its quantity.
func (c *CartQuantityController) Add(ctx context.Context, target model.CartTarget) (SetResult, error) {
	target.TargetID = strings.TrimSpace(target.TargetID)
	if target.TargetID == "" {
		return SetResult{}, domainErrors.Invalid("targetId", "is required")
	}
	if target.Kind != model.TargetProduct && target.Kind != model.TargetService {
		return SetResult{}, domainErrors.Invalid("kind", "must be product or service")
	}
	if target.Quantity <= 0 {
		target.Quantity = 1
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return SetResult{}, domainErrors.ErrClosed
	}
	if existing, ok := c.lines[target.TargetID]; ok {
		next := existing.displayed + target.Quantity
		c.mu.Unlock()
		return c.SetQuantity(ctx, target.TargetID, next)
	}
	line := &lineState{kind: target.Kind, displayed: target.Quantity, phase: model.PhaseOptimisticPending, inFlight: true}
	c.lines[target.TargetID] = line
	c.wg.Add(1)
	c.mu.Unlock()

	return c.await(ctx, target.TargetID, func(mctx context.Context) (model.LineView, error) {
		return c.add(mctx, target, line)
	})
}

// SetQuantity changes the quantity of a line already in the cart. Negative
// quantities, unknown targets and targets with a mutation in flight are ignored.
func (c *CartQuantityController) SetQuantity(ctx context.Context, targetID string, quantity int) (SetResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return SetResult{}, domainErrors.ErrClosed
	}
	line, ok := c.lines[targetID]
	if !ok {
		c.mu.Unlock()
		return SetResult{View: model.LineView{TargetID: targetID, Phase: model.PhaseConfirmed}}, nil
	}
	if quantity < 0 || line.inFlight {
		view := line.view(targetID)
		c.mu.Unlock()
		return SetResult{View: view}, nil
	}
	previous := line.displayed
	line.displayed = quantity
	line.phase = model.PhaseOptimisticPending
	line.inFlight = true
	line.err = ""
	c.wg.Add(1)
	c.mu.Unlock()

	return c.await(ctx, targetID, func(mctx context.Context) (model.LineView, error) {
		return c.mutate(mctx, targetID, line, previous, quantity)
	})
}

// Close discards results of mutations still in flight and waits for them.
func (c *CartQuantityController) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

type mutationResult struct {
	view model.LineView
	err  error
}

// await runs fn detached from the caller's cancellation. If the caller gives
// up first the optimistic view is returned and the mutation keeps going.
func (c *CartQuantityController) await(ctx context.Context, targetID string, fn func(context.Context) (model.LineView, error)) (SetResult, error) {
	done := make(chan mutationResult, 1)
	go func() {
		defer c.wg.Done()
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		view, err := fn(mctx)
		done <- mutationResult{view: view, err: err}
	}()

	select {
	case res := <-done:
		return SetResult{View: res.view, Applied: true}, res.err
	case <-ctx.Done():
		view, _ := c.View(targetID)
		return SetResult{View: view, Applied: true}, ctx.Err()
	}
}

func (c *CartQuantityController) add(ctx context.Context, target model.CartTarget, line *lineState) (model.LineView, error) {
	err := c.gateway.AddItem(ctx, target)
	var (
		cart    *model.Cart
		syncErr error
	)
	if err == nil {
		cart, syncErr = c.gateway.Cart(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return line.view(target.TargetID), domainErrors.ErrClosed
	}
	line.inFlight = false
	if syncErr != nil {
		// The item was added; only the line id is unknown until the next sync.
		c.logger.Warn("resync after add failed",
			slog.String("target", target.TargetID),
			slog.String("error", syncErr.Error()),
		)
		line.confirmed = target.Quantity
		line.displayed = target.Quantity
		line.phase = model.PhaseConfirmed
		line.err = domainErrors.Message(syncErr)
		return line.view(target.TargetID), nil
	}
	if err != nil {
		c.logger.Warn("add to cart failed",
			slog.String("target", target.TargetID),
			slog.String("error", err.Error()),
		)
		delete(c.lines, target.TargetID)
		return model.LineView{TargetID: target.TargetID, Phase: model.PhaseRolledBack, Error: domainErrors.Message(err)}, err
	}
	c.replaceLocked(cart)
	if current, ok := c.lines[target.TargetID]; ok {
		return current.view(target.TargetID), nil
	}
	return model.LineView{TargetID: target.TargetID, Phase: model.PhaseConfirmed}, nil
}

func (c *CartQuantityController) mutate(ctx context.Context, targetID string, line *lineState, previous, quantity int) (model.LineView, error) {
	cart, err := c.gateway.Cart(ctx)
	var (
		server model.CartLine
		found  bool
	)
	if err == nil {
		server, found = cart.Line(targetID)
		switch {
		case !found:
		case quantity == 0:
			err = c.gateway.DeleteLine(ctx, server.ID)
		case quantity != server.Quantity:
			err = c.gateway.UpdateLine(ctx, server.ID, quantity)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return line.view(targetID), domainErrors.ErrClosed
	}
	line.inFlight = false

	if err != nil {
		line.displayed = previous
		line.phase = model.PhaseRolledBack
		line.err = domainErrors.Message(err)
		c.logger.Warn("cart quantity rolled back",
			slog.String("target", targetID),
			slog.Int("quantity", quantity),
			slog.Int("restored", previous),
			slog.String("error", err.Error()),
		)
		return line.view(targetID), err
	}

	if !found || quantity == 0 {
		delete(c.lines, targetID)
		return model.LineView{TargetID: targetID, Phase: model.PhaseConfirmed}, nil
	}
	line.lineID = server.ID
	line.confirmed = quantity
	line.displayed = quantity
	line.phase = model.PhaseConfirmed
	return line.view(targetID), nil
}

func (c *CartQuantityController) replaceLocked(cart *model.Cart) {
	next := make(map[string]*lineState, len(cart.Items))
	for targetID, line := range c.lines {
		if line.inFlight {
			next[targetID] = line
		}
	}
	for _, item := range cart.Items {
		if line, ok := next[item.TargetID]; ok {
			line.lineID = item.ID
			line.confirmed = item.Quantity
			continue
		}
		next[item.TargetID] = &lineState{
			lineID:    item.ID,
			kind:      item.Kind,
			confirmed: item.Quantity,
			displayed: item.Quantity,
			phase:     model.PhaseConfirmed,
		}
	}
	c.lines = next
}

func (c *CartQuantityController) viewsLocked() []model.LineView {
	views := make([]model.LineView, 0, len(c.lines))
	for targetID, line := range c.lines {
		views = append(views, line.view(targetID))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].TargetID < views[j].TargetID })
	return views
}

func (l *lineState) view(targetID string) model.LineView {
	return model.LineView{
		TargetID: targetID,
		LineID:   l.lineID,
		Quantity: l.displayed,
		Phase:    l.phase,
		InFlight: l.inFlight,
		Error:    l.err,
	}
}
