package payflow

import (
	"context"
	"sync"
	"time"

	"storefront/models"
)

// State is the externally observable phase of a payment flow.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StatePending    State = "pending"
	StateChecking   State = "checking"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

const (
	// DefaultInitialDelay is the wait before the first status check once a
	// transaction comes back PENDING.
	DefaultInitialDelay = 3 * time.Second

	// DefaultPollInterval is the wait between consecutive status checks.
	DefaultPollInterval = 2 * time.Second

	// DefaultMaxChecks bounds how many status checks one submit may issue.
	DefaultMaxChecks = 10
)

const (
	defaultCreateErrMsg = "payment could not be processed"
	defaultCheckErrMsg  = "could not verify payment status"
)

// CheckoutRequest bundles the form data submitted for payment.
type CheckoutRequest struct {
	ProductID    string          `json:"product_id"`
	Quantity     int             `json:"quantity"`
	Installments int             `json:"installments"`
	Customer     models.Customer `json:"customer"`
	Delivery     models.Delivery `json:"delivery"`
	Card         models.CardData `json:"-"`
	SessionID    string          `json:"session_id"`
}

// CheckoutResult is what the transaction service resolves a create with.
type CheckoutResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Customer    *models.Customer    `json:"customer"`
	Delivery    *models.Delivery    `json:"delivery"`
}

// TransactionService is the collaborator the controller drives. Both calls
// either resolve with a transaction-shaped value or fail with an error.
type TransactionService interface {
	Create(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
}

// Controller drives one checkout session from submission of card details to
// a terminal payment outcome, polling the transaction service while the
// gateway reports PENDING. It issues exactly one create call per submit and
// at most MaxChecks status checks, spaced PollInterval apart after an
// InitialDelay.
//
// Closing the controller cancels the flow context; once cancelled no state
// transition or transaction write takes effect, so a poll result arriving
// after close is dropped instead of resurfacing stale state.
type Controller struct {
	svc TransactionService

	InitialDelay time.Duration
	PollInterval time.Duration
	MaxChecks    int

	mu      sync.Mutex
	state   State
	txn     *models.Transaction
	errMsg  string
	checks  int
	cancel  context.CancelFunc
	subs    map[int]func(State)
	nextSub int
}

func NewController(svc TransactionService) *Controller {
	return &Controller{
		svc:          svc,
		InitialDelay: DefaultInitialDelay,
		PollInterval: DefaultPollInterval,
		MaxChecks:    DefaultMaxChecks,
		state:        StateIdle,
		subs:         make(map[int]func(State)),
	}
}

// State returns the current flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transaction returns a copy of the last transaction snapshot, or nil when
// no transaction is held.
func (c *Controller) Transaction() *models.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.txn == nil {
		return nil
	}
	snapshot := *c.txn
	return &snapshot
}

// ErrorMessage returns the user-visible error text of a failed flow.
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Checks returns how many status checks the current flow has issued.
func (c *Controller) Checks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checks
}

// Subscribe registers fn to be called on every state change. The returned
// function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Submit runs a full payment flow and blocks until it reaches a terminal
// state or the flow is closed. Starting a new submit supersedes any flow
// still in progress.
func (c *Controller) Submit(ctx context.Context, req CheckoutRequest) State {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.txn = nil
	c.errMsg = ""
	c.checks = 0
	c.mu.Unlock()

	c.transition(ctx, StateProcessing)

	res, err := c.svc.Create(ctx, req)
	if err != nil {
		c.fail(ctx, err, defaultCreateErrMsg)
		return c.State()
	}
	c.storeTransaction(ctx, res.Transaction)

	if res.Transaction.Status != models.StatusPending {
		// Gateway settled synchronously, no polling needed.
		c.transition(ctx, StateCompleted)
		return c.State()
	}

	c.transition(ctx, StatePending)
	if !c.wait(ctx, c.InitialDelay) {
		return c.State()
	}

	for attempt := 0; attempt < c.MaxChecks; attempt++ {
		if !c.transition(ctx, StateChecking) {
			return c.State()
		}

		c.mu.Lock()
		c.checks++
		c.mu.Unlock()

		txn, err := c.svc.GetByID(ctx, res.Transaction.ID)
		if err != nil {
			c.fail(ctx, err, defaultCheckErrMsg)
			return c.State()
		}
		c.storeTransaction(ctx, txn)

		if txn.Status != models.StatusPending || attempt == c.MaxChecks-1 {
			break
		}

		c.transition(ctx, StatePending)
		if !c.wait(ctx, c.PollInterval) {
			return c.State()
		}
	}

	// The flow completes even when the retry budget runs out with the
	// transaction still PENDING; the last observed status is what callers
	// see, and final settlement is left to the gateway webhook.
	c.transition(ctx, StateCompleted)
	return c.State()
}

// Close resets the flow to idle and drops the held transaction. Any poll
// still in flight is cancelled and its result discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = StateIdle
	c.txn = nil
	c.errMsg = ""
	subs := c.snapshotSubsLocked()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(StateIdle)
	}
}

// transition moves to the given state unless the flow has been cancelled.
func (c *Controller) transition(ctx context.Context, next State) bool {
	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return false
	}
	c.state = next
	subs := c.snapshotSubsLocked()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return true
}

func (c *Controller) fail(ctx context.Context, err error, fallback string) {
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}

	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.errMsg = msg
	c.mu.Unlock()

	c.transition(ctx, StateFailed)
}

// storeTransaction overwrites the held snapshot wholesale with a fresh copy.
func (c *Controller) storeTransaction(ctx context.Context, txn *models.Transaction) {
	if txn == nil {
		return
	}
	snapshot := *txn

	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	c.txn = &snapshot
}

// wait sleeps cooperatively, returning false when the flow is cancelled.
func (c *Controller) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Controller) snapshotSubsLocked() []func(State) {
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}
