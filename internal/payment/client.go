// Package payment implements the payment-gateway boundary: creating
// payments and consuming the gateway's webhook notifications.  The
// wire shapes follow the YooKassa v3 API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const apiURL = "https://api.yookassa.ru/v3/payments"

// CreateRequest describes one payment to create.  Metadata must
// carry the identifiers needed to resume the flow when the webhook
// arrives (user id, ticket or custom event id).
type CreateRequest struct {
	AmountRub   int
	Description string
	Email       string
	ReturnURL   string
	Metadata    map[string]string
}

// Payment is the gateway's view of a created payment.
type Payment struct {
	ID              string
	Status          string
	ConfirmationURL string
}

// Client talks to the payment gateway.  Create is idempotent via the
// Idempotence-Key header, so transient failures are retried with
// backoff without risking a duplicate charge.
type Client struct {
	shopID    string
	secretKey string
	http      *http.Client
	logger    zerolog.Logger
}

// NewClient constructs a Client with the shop credentials.
func NewClient(shopID, secretKey string, logger zerolog.Logger) *Client {
	return &Client{
		shopID:    shopID,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

type createBody struct {
	Amount struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"amount"`
	Capture      bool `json:"capture"`
	Confirmation struct {
		Type      string `json:"type"`
		ReturnURL string `json:"return_url"`
	} `json:"confirmation"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Receipt     *receipt          `json:"receipt,omitempty"`
}

type receipt struct {
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
	Items []receiptItem `json:"items"`
}

type receiptItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Amount      struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"amount"`
	VatCode int `json:"vat_code"`
}

type createResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Confirmation struct {
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
}

// Create registers a payment and returns its id and the URL the user
// must visit to pay.  One uuid Idempotence-Key covers all retry
// attempts of the same logical payment.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*Payment, error) {
	var body createBody
	value := fmt.Sprintf("%d.00", req.AmountRub)
	body.Amount.Value = value
	body.Amount.Currency = "RUB"
	body.Capture = true
	body.Confirmation.Type = "redirect"
	body.Confirmation.ReturnURL = req.ReturnURL
	body.Description = req.Description
	body.Metadata = req.Metadata
	if req.Email != "" {
		rc := &receipt{}
		rc.Customer.Email = req.Email
		item := receiptItem{Description: req.Description, Quantity: "1", VatCode: 1}
		item.Amount.Value = value
		item.Amount.Currency = "RUB"
		rc.Items = []receiptItem{item}
		body.Receipt = rc
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}
	idempotenceKey := uuid.New().String()

	var lastErr error
	backoff := time.Second
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		p, retryable, err := c.doCreate(ctx, payload, idempotenceKey)
		if err == nil {
			return p, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("payment create retry")
	}
	return nil, lastErr
}

func (c *Client) doCreate(ctx context.Context, payload []byte, idempotenceKey string) (*Payment, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	httpReq.SetBasicAuth(c.shopID, c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotence-Key", idempotenceKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("payment gateway request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, true, fmt.Errorf("read payment response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("payment gateway returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("payment gateway returned %d: %s", resp.StatusCode, raw)
	}

	var cr createResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, false, fmt.Errorf("decode payment response: %w", err)
	}
	return &Payment{
		ID:              cr.ID,
		Status:          cr.Status,
		ConfirmationURL: cr.Confirmation.ConfirmationURL,
	}, false, nil
}
