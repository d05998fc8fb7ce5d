package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"storefront/config"
	"storefront/internal/card"
	"storefront/internal/payflow"
	"storefront/internal/services/gateway"
	"storefront/internal/status"
	"storefront/models"
	"storefront/monitoring"
	"storefront/utils"
)

// Publisher pushes customer-facing status events. Backed by PubNub in
// production; tests swap in a recorder.
type Publisher interface {
	Publish(channel string, message map[string]any)
}

type pubnubPublisher struct {
	pn *pubnub.PubNub
}

func NewPubNubPublisher(pn *pubnub.PubNub) Publisher {
	return &pubnubPublisher{pn: pn}
}

func (p *pubnubPublisher) Publish(channel string, message map[string]any) {
	p.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
}

// Amounts is the minor-unit breakdown of a checkout total.
type Amounts struct {
	Product  int64
	Base     int64
	Delivery int64
	Total    int64
}

// ComputeAmounts prices a checkout line: unit price times quantity plus the
// configured fees.
func ComputeAmounts(unitPriceCents int64, quantity int, baseFee, deliveryFee int64) Amounts {
	if quantity < 1 {
		quantity = 1
	}
	product := unitPriceCents * int64(quantity)
	return Amounts{
		Product:  product,
		Base:     baseFee,
		Delivery: deliveryFee,
		Total:    product + baseFee + deliveryFee,
	}
}

// TransactionService creates checkout transactions against the gateway and
// serves status snapshots. It implements payflow.TransactionService.
type TransactionService struct {
	app       core.App
	Redis     *redis.Client
	publisher Publisher
	gateway   gateway.Interface
	breaker   *utils.CircuitBreaker
	monitor   *monitoring.Monitor

	baseFee     int64
	deliveryFee int64
	cacheTTL    time.Duration
}

func NewTransactionService(app core.App, redisClient *redis.Client, publisher Publisher, gw gateway.Interface, monitor *monitoring.Monitor, cfg *config.Config) *TransactionService {
	return &TransactionService{
		app:         app,
		Redis:       redisClient,
		publisher:   publisher,
		gateway:     gw,
		breaker:     utils.NewCircuitBreaker("gateway"),
		monitor:     monitor,
		baseFee:     cfg.BaseFeeCents,
		deliveryFee: cfg.DeliveryFeeCents,
		cacheTTL:    cfg.PaymentCacheTTL,
	}
}

// Create validates the card, persists the checkout records and submits the
// charge. Validation failures never reach the gateway.
func (s *TransactionService) Create(ctx context.Context, req payflow.CheckoutRequest) (*payflow.CheckoutResult, error) {
	brand := card.DetectBrand(req.Card.Number)
	if !card.ValidateNumber(req.Card.Number) {
		return nil, status.ErrInvalidCardNumber
	}
	if !card.ValidateExpiry(req.Card.ExpiryMonth, req.Card.ExpiryYear) {
		return nil, status.ErrExpiredCard
	}
	if !card.ValidateCVC(req.Card.CVC, brand) {
		return nil, status.ErrInvalidCVC
	}

	productRec, err := s.app.FindRecordById("products", req.ProductID)
	if err != nil {
		return nil, status.ErrProductNotFound
	}

	amounts := ComputeAmounts(int64(productRec.GetInt("price_cents")), req.Quantity, s.baseFee, s.deliveryFee)

	customerRec, err := s.saveCustomer(req.Customer)
	if err != nil {
		return nil, fmt.Errorf("save customer: %w", err)
	}
	deliveryRec, err := s.saveDelivery(customerRec.Id, req.Delivery)
	if err != nil {
		return nil, fmt.Errorf("save delivery: %w", err)
	}

	reference, _ := utils.GenerateCode(6)

	txnCol, err := s.app.FindCollectionByNameOrId("transactions")
	if err != nil {
		return nil, fmt.Errorf("find transactions collection: %w", err)
	}
	rec := core.NewRecord(txnCol)
	rec.Set("status", string(models.StatusPending))
	rec.Set("product", productRec.Id)
	rec.Set("customer", customerRec.Id)
	rec.Set("delivery", deliveryRec.Id)
	rec.Set("quantity", req.Quantity)
	rec.Set("installments", req.Installments)
	rec.Set("product_amount", amounts.Product)
	rec.Set("base_fee", amounts.Base)
	rec.Set("delivery_fee", amounts.Delivery)
	rec.Set("total_amount", amounts.Total)
	rec.Set("gateway_ref", reference)
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	chargeReq := &gateway.ChargeRequest{
		Reference:     reference,
		Amount:        decimal.NewFromInt(amounts.Total),
		Installments:  req.Installments,
		CardNumber:    card.CleanNumber(req.Card.Number),
		CardHolder:    req.Card.HolderName,
		ExpiryMonth:   req.Card.ExpiryMonth,
		ExpiryYear:    req.Card.ExpiryYear,
		CVC:           req.Card.CVC,
		CustomerEmail: req.Customer.Email,
	}

	started := time.Now()
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.gateway.CreateCharge(ctx, chargeReq)
	})
	s.monitor.TrackGatewayRequest("create_charge", time.Since(started), err == nil)
	if err != nil {
		rec.Set("status", string(models.StatusError))
		rec.Set("error_message", err.Error())
		if saveErr := s.app.Save(rec); saveErr != nil {
			slog.Error("failed to persist gateway error", "transaction", rec.Id, "error", saveErr)
		}
		s.monitor.TrackTransactionCreated(string(models.StatusError))
		return nil, err
	}
	charge := result.(*gateway.ChargeResult)

	rec.Set("status", string(charge.Status))
	rec.Set("gateway_txn_id", charge.TransactionID)
	if charge.Message != "" {
		rec.Set("error_message", charge.Message)
	}
	if err := s.app.Save(rec); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	txn := s.recordToTransaction(rec)
	s.cacheStatus(ctx, txn, req.SessionID)
	s.publishStatus(txn, req.SessionID)
	s.monitor.TrackTransactionCreated(string(txn.Status))

	slog.Info("transaction created",
		"transaction", txn.ID,
		"status", txn.Status,
		"total", txn.TotalAmount,
		"card", req.Card.LastFour(),
	)

	return &payflow.CheckoutResult{
		Transaction: txn,
		Customer:    recordToCustomer(customerRec),
		Delivery:    recordToDelivery(deliveryRec),
	}, nil
}

// GetByID returns the current transaction snapshot, re-checking the gateway
// while the stored status is still PENDING.
func (s *TransactionService) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	rec, err := s.app.FindRecordById("transactions", id)
	if err != nil {
		return nil, status.ErrTransactionNotFound
	}
	txn := s.recordToTransaction(rec)

	if txn.Status != models.StatusPending || txn.GatewayTxnID == "" {
		return txn, nil
	}

	started := time.Now()
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.gateway.CheckTransaction(ctx, txn.GatewayTxnID)
	})
	s.monitor.TrackGatewayRequest("check_transaction", time.Since(started), err == nil)
	if err != nil {
		return nil, err
	}
	charge := result.(*gateway.ChargeResult)

	if charge.Status != txn.Status {
		rec.Set("status", string(charge.Status))
		if charge.Message != "" {
			rec.Set("error_message", charge.Message)
		}
		if err := s.app.Save(rec); err != nil {
			return nil, fmt.Errorf("save transaction: %w", err)
		}
		txn = s.recordToTransaction(rec)
		s.cacheStatus(ctx, txn, "")
		s.publishStatus(txn, "")
	}

	return txn, nil
}

// HandleGatewayEvent applies an asynchronous settlement notification.
// Terminal statuses are never downgraded, so replayed events are harmless.
func (s *TransactionService) HandleGatewayEvent(ctx context.Context, evt *gateway.Event) error {
	rec, err := s.app.FindFirstRecordByFilter(
		"transactions",
		"gateway_txn_id = {:id} || gateway_ref = {:ref}",
		dbx.Params{"id": evt.TransactionID, "ref": evt.Reference},
	)
	if err != nil {
		return status.ErrTransactionNotFound
	}

	current := models.TransactionStatus(rec.GetString("status"))
	if current.Terminal() {
		slog.Info("gateway event ignored for settled transaction",
			"transaction", rec.Id,
			"current", current,
			"event", evt.Status,
		)
		return nil
	}

	rec.Set("status", string(evt.Status))
	if evt.TransactionID != "" {
		rec.Set("gateway_txn_id", evt.TransactionID)
	}
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}

	txn := s.recordToTransaction(rec)
	s.cacheStatus(ctx, txn, "")
	s.publishStatus(txn, "")
	s.monitor.TrackGatewayEvent(string(evt.Status))

	slog.Info("gateway settlement applied", "transaction", txn.ID, "status", txn.Status)
	return nil
}

func (s *TransactionService) saveCustomer(c models.Customer) (*core.Record, error) {
	col, err := s.app.FindCollectionByNameOrId("customers")
	if err != nil {
		return nil, err
	}
	rec := core.NewRecord(col)
	rec.Set("full_name", c.FullName)
	rec.Set("email", c.Email)
	rec.Set("phone", c.Phone)
	if err := s.app.Save(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *TransactionService) saveDelivery(customerID string, d models.Delivery) (*core.Record, error) {
	col, err := s.app.FindCollectionByNameOrId("deliveries")
	if err != nil {
		return nil, err
	}
	rec := core.NewRecord(col)
	rec.Set("customer", customerID)
	rec.Set("address", d.Address)
	rec.Set("city", d.City)
	rec.Set("region", d.Region)
	rec.Set("postal_code", d.PostalCode)
	rec.Set("country", d.Country)
	if err := s.app.Save(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// cacheStatus keeps a short-lived status snapshot in Redis for cheap status
// endpoints and the monitoring collector.
func (s *TransactionService) cacheStatus(ctx context.Context, txn *models.Transaction, sessionID string) {
	key := fmt.Sprintf("payment:%s", txn.ID)
	data := map[string]any{
		"status":       string(txn.Status),
		"total_amount": txn.TotalAmount,
		"updated_at":   time.Now().Unix(),
	}
	if sessionID != "" {
		data["session_id"] = sessionID
	}
	s.Redis.HSet(ctx, key, data)
	s.Redis.Expire(ctx, key, s.cacheTTL)
}

func (s *TransactionService) publishStatus(txn *models.Transaction, sessionID string) {
	channel := fmt.Sprintf("transaction-%s", txn.ID)
	if sessionID != "" {
		channel = fmt.Sprintf("session-%s", sessionID)
	}
	s.publisher.Publish(channel, map[string]any{
		"type":           "transaction_status",
		"transaction_id": txn.ID,
		"status":         string(txn.Status),
		"total_amount":   txn.TotalAmount,
	})
}

func (s *TransactionService) recordToTransaction(rec *core.Record) *models.Transaction {
	return &models.Transaction{
		ID:            rec.Id,
		Status:        models.TransactionStatus(rec.GetString("status")),
		ProductID:     rec.GetString("product"),
		CustomerID:    rec.GetString("customer"),
		DeliveryID:    rec.GetString("delivery"),
		Quantity:      rec.GetInt("quantity"),
		Installments:  rec.GetInt("installments"),
		ProductAmount: int64(rec.GetInt("product_amount")),
		BaseFee:       int64(rec.GetInt("base_fee")),
		DeliveryFee:   int64(rec.GetInt("delivery_fee")),
		TotalAmount:   int64(rec.GetInt("total_amount")),
		GatewayTxnID:  rec.GetString("gateway_txn_id"),
		GatewayRef:    rec.GetString("gateway_ref"),
		ErrorMessage:  rec.GetString("error_message"),
		CreatedAt:     rec.GetDateTime("created").Time(),
		UpdatedAt:     rec.GetDateTime("updated").Time(),
	}
}

func recordToCustomer(rec *core.Record) *models.Customer {
	return &models.Customer{
		ID:        rec.Id,
		FullName:  rec.GetString("full_name"),
		Email:     rec.GetString("email"),
		Phone:     rec.GetString("phone"),
		CreatedAt: rec.GetDateTime("created").Time(),
	}
}

func recordToDelivery(rec *core.Record) *models.Delivery {
	return &models.Delivery{
		ID:         rec.Id,
		CustomerID: rec.GetString("customer"),
		Address:    rec.GetString("address"),
		City:       rec.GetString("city"),
		Region:     rec.GetString("region"),
		PostalCode: rec.GetString("postal_code"),
		Country:    rec.GetString("country"),
		CreatedAt:  rec.GetDateTime("created").Time(),
	}
}
