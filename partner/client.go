package partner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// sourceHeader identifies this agent to partner endpoints.
const sourceHeader = "X-Delivery-Source"

// Client is the raw HTTP client for one partner's API. Transport errors
// are returned as errors; HTTP status handling is left to ResilientClient.
type Client struct {
	name       string
	baseURL    string
	source     string
	httpClient *http.Client
}

// NewClient creates a partner API client.
func NewClient(name, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		name:    name,
		baseURL: baseURL,
		source:  "courierd",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the partner name this client talks to.
func (c *Client) Name() string { return c.name }

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) post(path string, body any) (int, *Envelope, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("partner %s marshal: %w", c.name, err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("partner %s request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sourceHeader, c.source)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("partner %s POST %s: %w", c.name, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("partner %s read body: %w", c.name, err)
	}
	var env Envelope
	if len(raw) > 0 {
		// Best-effort decode; error pages may not be JSON.
		json.Unmarshal(raw, &env)
	}
	return resp.StatusCode, &env, nil
}

type statusUpdateRequest struct {
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
}

// UpdateOrderStatus posts an order status change to the partner.
func (c *Client) UpdateOrderStatus(orderNumber, status string) (int, *Envelope, error) {
	return c.post("/order/status", statusUpdateRequest{OrderNumber: orderNumber, Status: status})
}

// PostCourierEvent posts a delivery milestone event.
func (c *Client) PostCourierEvent(ev CourierEvent) (int, *Envelope, error) {
	return c.post("/courier/event", ev)
}

type assignRequest struct {
	DeliveryID              string  `json:"deliveryId"`
	Courier                 Courier `json:"courier"`
	DeliveryServiceProvider string  `json:"deliveryServiceProvider"`
}

// AssignCourier registers the courier against an order on the partner's
// dedicated assignment endpoint.
func (c *Client) AssignCourier(deliveryID string, courier Courier, provider string) (int, *Envelope, error) {
	return c.post("/courier/assign", assignRequest{
		DeliveryID:              deliveryID,
		Courier:                 courier,
		DeliveryServiceProvider: provider,
	})
}
