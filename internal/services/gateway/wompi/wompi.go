package wompi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	pubnub "github.com/pubnub/go/v7"
	"github.com/shopspring/decimal"
)

type (
	Config struct {
		BaseURL    string `json:"baseUrl" mapstructure:"base_url"`
		PublicKey  string `json:"publicKey" mapstructure:"public_key"`
		PrivateKey string `json:"privateKey" mapstructure:"private_key"`
		EventsKey  string `json:"eventsKey" mapstructure:"events_key"`
		Currency   string `json:"currency" mapstructure:"currency"`

		PNSubKey    string `json:"pn_subkey" mapstructure:"pn_subkey"`
		PNSubSecret string `json:"pn_subsecret" mapstructure:"pn_subsecret"`
		PNUUID      string `json:"pn_uuid" mapstructure:"pn_uuid"`
		PNChannel   string `json:"pn_channel" mapstructure:"pn_channel"`
	}

	// Wompi is a card gateway backed by the sandbox payments backend, with
	// settlement events delivered over a PubNub channel.
	Wompi struct {
		Currency string

		pnSubKey    string
		pnSubSecret string
		pnUUID      string
		pnChannels  []string

		sub *subscribe

		client *Client
	}
)

// FormCharge is the request form for a card charge.
type FormCharge struct {
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	Installments  int
	CardNumber    string
	CardHolder    string
	ExpiryMonth   string
	ExpiryYear    string
	CVC           string
	CustomerEmail string
}

// Charge is the gateway's settled view of a transaction.
type Charge struct {
	ID        string
	Reference string
	Status    string
	Message   string
	Amount    decimal.Decimal
	Timestamp int64
}

type payload struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Message   string          `json:"statusMessage"`
	Amount    decimal.Decimal `json:"amountCents"`
	Timestamp int64           `json:"timestamp"`
}

func (p *payload) ToDomain() *Charge {
	return &Charge{
		ID:        p.ID,
		Reference: p.Reference,
		Status:    p.Status,
		Message:   p.Message,
		Amount:    p.Amount,
		Timestamp: p.Timestamp,
	}
}

// New returns a new Wompi gateway instance.
func New(ctx context.Context, cfg *Config) (*Wompi, error) {
	client := newClient(ctx, &ClientConfig{
		BaseURL:    cfg.BaseURL,
		PublicKey:  cfg.PublicKey,
		PrivateKey: cfg.PrivateKey,
		EventsKey:  cfg.EventsKey,
	})

	// Connect to the gateway backend. Get a session token.
	token, err := client.connect(ctx)
	if err != nil {
		return nil, err
	}
	client.setSessionToken(token)

	// Keep the session fresh.
	go client.notifySessionExpired(ctx)

	w := &Wompi{
		Currency: cfg.Currency,

		pnSubKey:    cfg.PNSubKey,
		pnSubSecret: cfg.PNSubSecret,
		pnUUID:      cfg.PNUUID,
		pnChannels:  []string{cfg.PNChannel},

		client: client,
	}

	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(w.pnUUID))
	pnCfg.SubscribeKey = w.pnSubKey
	pnCfg.SecretKey = w.pnSubSecret

	sub, err := w.newSubscription(ctx, pnCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to gateway event channel: %v", err)
	}

	sub.pn.AddListener(sub.lis)
	sub.pn.Subscribe().Channels(w.pnChannels).Execute()
	w.sub = sub

	return w, nil
}

type subscribe struct {
	pn  *pubnub.PubNub
	lis *pubnub.Listener
	ch  chan *Charge
}

func (w *Wompi) newSubscription(ctx context.Context, pnCfg *pubnub.Config) (*subscribe, error) {
	sub := &subscribe{
		pn:  pubnub.NewPubNub(pnCfg),
		lis: pubnub.NewListener(),
	}

	go sub.processSubscription(ctx)

	return sub, nil
}

func (s *subscribe) processSubscription(ctx context.Context) error {
	listener := s.lis
	for {
		select {
		case status := <-listener.Status:
			switch status.Category {
			case pubnub.PNConnectedCategory:
				log.Println("connected to pubnub")

			case pubnub.PNReconnectedCategory:
				log.Println("reconnected to pubnub")

			case pubnub.PNDisconnectedCategory:
				log.Println("disconnected from pubnub")

			case pubnub.PNAccessDeniedCategory:
				log.Println("access denied connect to pubnub")

			case pubnub.PNTimeoutCategory:
				log.Println("timeout connect to pubnub")

			default:
				log.Println("pubnub status category:", status.Category)
			}

		case message := <-listener.Message:
			log.Println("gateway event received: ", message.Message)

			raw, ok := message.Message.(string)
			if !ok {
				data, err := json.Marshal(message.Message)
				if err != nil {
					log.Println(err)
					continue
				}
				raw = string(data)
			}

			var p payload
			dec := json.NewDecoder(strings.NewReader(raw))
			if err := dec.Decode(&p); err != nil {
				log.Println(err)
				continue
			}

			if s.ch != nil {
				s.ch <- p.ToDomain()
			}

		case <-ctx.Done():
			log.Println("close subscribe")
			return nil
		}
	}
}

// SetChargeChannel sets the channel receiving settlement events.
func (w *Wompi) SetChargeChannel(ch chan *Charge) {
	w.sub.ch = ch
}

// CreateCharge submits a card charge.
func (w *Wompi) CreateCharge(ctx context.Context, f *FormCharge) (*Charge, error) {
	if f.Currency == "" {
		f.Currency = w.Currency
	}
	return w.client.createCharge(ctx, f)
}

// CheckTransaction returns the current status of a charge.
func (w *Wompi) CheckTransaction(ctx context.Context, transactionID string) (*Charge, error) {
	return w.client.checkTransaction(ctx, transactionID)
}

// Unsubscribe stops listening for settlement events.
func (w *Wompi) Unsubscribe(ctx context.Context) {
	w.sub.pn.Unsubscribe().Channels(w.pnChannels).Execute()
}
