package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront/config"
	"storefront/internal/payflow"
	"storefront/internal/status"
	"storefront/models"
	"storefront/monitoring"
	"storefront/utils"
)

// flowJanitorInterval is how often settled flows are swept out.
const flowJanitorInterval = 5 * time.Minute

// flowRetention is how long a settled flow stays queryable after finishing.
const flowRetention = 30 * time.Minute

type flowEntry struct {
	controller *payflow.Controller
	sessionID  string
	createdAt  time.Time

	mu       sync.Mutex
	doneAt   time.Time
	finished bool
}

// CheckoutService owns the in-flight payment flows. Each submitted checkout
// gets its own controller, addressable by flow id until it is closed or
// swept.
type CheckoutService struct {
	txns    payflow.TransactionService
	cart    *CartService
	monitor *monitoring.Monitor

	initialDelay time.Duration
	pollInterval time.Duration
	maxChecks    int

	mu    sync.RWMutex
	flows map[string]*flowEntry
}

// FlowSnapshot is the externally visible state of one payment flow.
type FlowSnapshot struct {
	FlowID       string              `json:"flow_id"`
	State        payflow.State       `json:"state"`
	Transaction  *models.Transaction `json:"transaction,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
}

func NewCheckoutService(txns payflow.TransactionService, cart *CartService, monitor *monitoring.Monitor, cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		txns:         txns,
		cart:         cart,
		monitor:      monitor,
		initialDelay: cfg.FlowInitialDelay,
		pollInterval: cfg.FlowPollInterval,
		maxChecks:    cfg.FlowMaxChecks,
		flows:        make(map[string]*flowEntry),
	}
}

// StartFlow kicks off a payment flow for the request and returns its id. The
// flow runs detached from the submitting HTTP request so a dropped client
// does not abort a charge already in progress.
func (s *CheckoutService) StartFlow(req payflow.CheckoutRequest) (string, error) {
	flowID, err := utils.GenerateCode(8)
	if err != nil {
		return "", err
	}

	ctrl := payflow.NewController(s.txns)
	ctrl.InitialDelay = s.initialDelay
	ctrl.PollInterval = s.pollInterval
	ctrl.MaxChecks = s.maxChecks

	entry := &flowEntry{
		controller: ctrl,
		sessionID:  req.SessionID,
		createdAt:  time.Now(),
	}

	s.mu.Lock()
	s.flows[flowID] = entry
	s.mu.Unlock()

	go func() {
		final := ctrl.Submit(context.Background(), req)

		entry.mu.Lock()
		entry.finished = true
		entry.doneAt = time.Now()
		entry.mu.Unlock()

		slog.Info("payment flow finished", "flow", flowID, "state", final, "checks", ctrl.Checks())
		s.monitor.TrackFlowFinished(string(final), ctrl.Checks())

		if final == payflow.StateCompleted && req.SessionID != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.cart.ClearCart(ctx, req.SessionID); err != nil {
				slog.Warn("failed to clear cart after checkout", "session", req.SessionID, "error", err)
			}
		}
	}()

	return flowID, nil
}

// GetFlow returns the current snapshot of a flow.
func (s *CheckoutService) GetFlow(flowID string) (*FlowSnapshot, error) {
	s.mu.RLock()
	entry, ok := s.flows[flowID]
	s.mu.RUnlock()
	if !ok {
		return nil, status.ErrFlowNotFound
	}

	return &FlowSnapshot{
		FlowID:       flowID,
		State:        entry.controller.State(),
		Transaction:  entry.controller.Transaction(),
		ErrorMessage: entry.controller.ErrorMessage(),
	}, nil
}

// CloseFlow cancels a flow, resets it to idle and removes it.
func (s *CheckoutService) CloseFlow(flowID string) error {
	s.mu.Lock()
	entry, ok := s.flows[flowID]
	if ok {
		delete(s.flows, flowID)
	}
	s.mu.Unlock()
	if !ok {
		return status.ErrFlowNotFound
	}

	entry.controller.Close()
	return nil
}

// StartJanitor sweeps settled flows past their retention window until ctx is
// cancelled.
func (s *CheckoutService) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(flowJanitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(time.Now())
			}
		}
	}()
}

func (s *CheckoutService) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.flows {
		entry.mu.Lock()
		expired := entry.finished && now.Sub(entry.doneAt) > flowRetention
		entry.mu.Unlock()

		if expired {
			entry.controller.Close()
			delete(s.flows, id)
		}
	}
}

// ActiveFlows reports how many flows are currently held, for metrics.
func (s *CheckoutService) ActiveFlows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flows)
}
