package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const createOrderOp = "create_order"

// Observer receives the outcome of every gateway call.
type Observer interface {
	ObserveGatewayCall(op, outcome string, elapsed time.Duration)
}

type HTTPClient struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
	observer  Observer
}

type createOrderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	PaymentCapture int               `json:"payment_capture"`
	Notes          map[string]string `json:"notes,omitempty"`
}

func NewHTTPClient(baseURL, keyID, keySecret string, timeout time.Duration, observer Observer) *HTTPClient {
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: timeout},
		observer:  observer,
	}
}

func (c *HTTPClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (ref *OrderRef, err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveGatewayCall(createOrderOp, outcome(err), time.Since(start))
		}
	}()

	payload, err := json.Marshal(createOrderRequest{
		Amount:         amountMinor,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
		Notes:          map[string]string{"order_id": receipt},
	})
	if err != nil {
		return nil, &Error{Op: createOrderOp, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Op: createOrderOp, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Op: createOrderOp, Timeout: isTimeout(err), Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var res OrderRef
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, &Error{Op: createOrderOp, StatusCode: resp.StatusCode, Timeout: isTimeout(err), Err: fmt.Errorf("decode response: %w", err)}
		}
		if res.ID == "" {
			return nil, &Error{Op: createOrderOp, StatusCode: resp.StatusCode, Err: errors.New("response carries no order id")}
		}
		return &res, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &Error{
			Op:         createOrderOp,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected body: %s", string(body)),
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func outcome(err error) string {
	var gwErr *Error
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &gwErr) && gwErr.Timeout:
		return "timeout"
	default:
		return "error"
	}
}
