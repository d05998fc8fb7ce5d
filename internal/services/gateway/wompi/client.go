package wompi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"
)

type ClientConfig struct {
	BaseURL    string `json:"baseUrl" mapstructure:"base_url"`
	PublicKey  string `json:"publicKey" mapstructure:"public_key"`
	PrivateKey string `json:"privateKey" mapstructure:"private_key"`
	EventsKey  string `json:"eventsKey" mapstructure:"events_key"`
}

type Client struct {
	// baseURL is the base url of the gateway backend.
	baseURL string

	// publicKey identifies the merchant on tokenization calls.
	publicKey string

	// privateKey authenticates charge and status calls.
	privateKey string

	// eventsKey signs settlement event payloads.
	eventsKey string

	// sessionToken is the short-lived token for charge calls.
	sessionToken string

	// mu guards the session token.
	mu sync.Mutex

	// toggleTokenRefresher notifies the refresher to renew the session.
	toggleTokenRefresher chan struct{}

	// hc is the http client.
	hc *http.Client
}

func newClient(_ context.Context, c *ClientConfig) *Client {
	return &Client{
		baseURL:    c.BaseURL,
		publicKey:  c.PublicKey,
		privateKey: c.PrivateKey,
		eventsKey:  c.EventsKey,

		// make a buffered channel to avoid blocking.
		toggleTokenRefresher: make(chan struct{}, 1),

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// notifySessionExpired renews the merchant session on a fixed period or on
// demand, with an exponential backOff strategy between failed attempts.
func (c *Client) notifySessionExpired(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return

		case <-ticker.C:

		case <-c.toggleTokenRefresher:
			log.Println("notifySessionExpired: toggleTokenRefresher => session refreshed")
		}

		backOff := time.Second

	Retry:
		for {
			token, err := c.connect(ctx)
			switch err {
			case nil:
				c.setSessionToken(token)

				break Retry

			default:
				log.Printf("notifySessionExpired: %v", err)
				select {
				case <-ctx.Done():
					return

				case <-time.After(backOff):
					backOff *= 2
				}
			}
		}
	}
}

func (c *Client) setSessionToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionToken = token
}

func (c *Client) getSessionToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionToken
}

// connect authenticates the merchant and returns a session token.
func (c *Client) connect(ctx context.Context) (string, error) {
	requestID, err := randomReference()
	if err != nil {
		return "", fmt.Errorf("connectGateway: randomReference: %v", err)
	}

	body := fmt.Sprintf(`{"requestId":%q,"publicKey":%q,"privateKey":%q}`, requestID, c.publicKey, c.privateKey)
	bodyReader := bytes.NewReader([]byte(body))

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/v1/merchants/session"), bodyReader)
	if err != nil {
		return "", fmt.Errorf("connectGateway: http.NewReq: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("SignedHash", Hmac256([]byte(body), []byte(c.eventsKey)))

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("connectGateway: http.Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.toggleTokenRefresher <- struct{}{}
		return "", errors.New("connectGateway: resp.StatusCode: 401 => Unauthorized")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("connectGateway: unexpected status code: %d", resp.StatusCode)
	}

	var reply struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			SessionToken string `json:"sessionToken"`
			TokenType    string `json:"tokenType"`
		} `json:"data"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return "", fmt.Errorf("connectGateway: json.Decode: %v", err)
	}
	if reply.Status != "OK" {
		return "", fmt.Errorf("connectGateway: reply.Status: %v, reply.Message: %v", reply.Status, reply.Message)
	}

	sessionToken := fmt.Sprintf("%s %s", reply.Data.TokenType, reply.Data.SessionToken)
	return sessionToken, nil
}

// createCharge submits a card charge to the gateway.
func (c *Client) createCharge(ctx context.Context, f *FormCharge) (*Charge, error) {
	requestID, err := randomReference()
	if err != nil {
		return nil, fmt.Errorf("createCharge: randomReference: %v", err)
	}

	reqBody := map[string]any{
		"requestId":    requestID,
		"reference":    f.Reference,
		"amountCents":  f.Amount,
		"currency":     f.Currency,
		"installments": f.Installments,
		"email":        f.CustomerEmail,
		"card": map[string]string{
			"number":   f.CardNumber,
			"holder":   f.CardHolder,
			"expMonth": f.ExpiryMonth,
			"expYear":  f.ExpiryYear,
			"cvc":      f.CVC,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("createCharge: json.Marshal: %v", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/v1/transactions"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("createCharge: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("SignedHash", Hmac256(body, []byte(c.eventsKey)))
	req.Header.Set("Authorization", c.getSessionToken())

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("createCharge: http.Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.toggleTokenRefresher <- struct{}{}
		return nil, errors.New("createCharge: resp.StatusCode: 401 => Unauthorized")
	}

	var reply struct {
		Message string `json:"message"`
		Status  string `json:"status"`
		Data    struct {
			payload
		} `json:"data"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("createCharge: json.Decode: %w", err)
	}
	if reply.Status != "OK" {
		return nil, fmt.Errorf("createCharge: reply.Status: %v, reply.Message: %v", reply.Status, reply.Message)
	}

	return reply.Data.payload.ToDomain(), nil
}

// checkTransaction fetches the current charge status from the gateway.
func (c *Client) checkTransaction(ctx context.Context, transactionID string) (*Charge, error) {
	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/transactions/%s", _baseURL.String(), url.PathEscape(transactionID)), nil)
	if err != nil {
		return nil, fmt.Errorf("checkTransaction: http.NewReq: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.getSessionToken())

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkTransaction: http.Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.toggleTokenRefresher <- struct{}{}
		return nil, errors.New("checkTransaction: resp.StatusCode: 401 => Unauthorized")
	}

	var reply struct {
		Message string `json:"message"`
		Status  string `json:"status"`
		Data    struct {
			payload
		} `json:"data"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("checkTransaction: json.Decode: %v", err)
	}
	if reply.Status != "OK" {
		if reply.Status == "NOT_FOUND" {
			return nil, errors.New("transaction not found")
		}
		return nil, fmt.Errorf("checkTransaction: reply.Status: %v, reply.Message: %v", reply.Status, reply.Message)
	}

	return reply.Data.payload.ToDomain(), nil
}
