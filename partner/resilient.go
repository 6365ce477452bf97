package partner

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"courierd/breaker"
)

// errOrderNotFound distinguishes a 404 inside the breaker callback.
var errOrderNotFound = errors.New("order not found")

// ResilientClient executes partner calls through a circuit breaker and
// translates every outcome into a StatusResult.
type ResilientClient struct {
	client  *Client
	breaker *breaker.Breaker
}

// NewResilientClient wraps client with the given breaker.
func NewResilientClient(client *Client, b *breaker.Breaker) *ResilientClient {
	return &ResilientClient{client: client, breaker: b}
}

// Client returns the underlying raw client.
func (rc *ResilientClient) Client() *Client { return rc.client }

// UpdateOrderStatus propagates an order status change. Validation failures
// return an error without any network call or breaker interaction.
func (rc *ResilientClient) UpdateOrderStatus(orderNumber, status string) (StatusResult, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return StatusResult{}, &ValidationError{Field: "orderNumber", Reason: "empty"}
	}
	if !ValidOrderStatus(status) {
		return StatusResult{}, &ValidationError{Field: "status", Reason: fmt.Sprintf("%q not in allowed set", status)}
	}
	return rc.call(func() (int, *Envelope, error) {
		return rc.client.UpdateOrderStatus(orderNumber, status)
	}), nil
}

// PostCourierEvent posts a courier milestone event.
func (rc *ResilientClient) PostCourierEvent(ev CourierEvent) (StatusResult, error) {
	if strings.TrimSpace(ev.DeliveryID) == "" {
		return StatusResult{}, &ValidationError{Field: "deliveryId", Reason: "empty"}
	}
	if ev.EventType == "" {
		return StatusResult{}, &ValidationError{Field: "eventType", Reason: "empty"}
	}
	return rc.call(func() (int, *Envelope, error) {
		return rc.client.PostCourierEvent(ev)
	}), nil
}

// AssignCourier registers the courier with the partner.
func (rc *ResilientClient) AssignCourier(deliveryID string, courier Courier, provider string) (StatusResult, error) {
	if strings.TrimSpace(deliveryID) == "" {
		return StatusResult{}, &ValidationError{Field: "deliveryId", Reason: "empty"}
	}
	return rc.call(func() (int, *Envelope, error) {
		return rc.client.AssignCourier(deliveryID, courier, provider)
	}), nil
}

// call runs one partner operation through the breaker and folds transport
// errors, HTTP statuses and the response envelope into a StatusResult.
func (rc *ResilientClient) call(op func() (int, *Envelope, error)) StatusResult {
	var code int
	var env *Envelope

	execErr := rc.breaker.Execute(func() error {
		var err error
		code, env, err = op()
		if err != nil {
			return err
		}
		if code == http.StatusNotFound {
			return errOrderNotFound
		}
		if code < 200 || code >= 300 {
			return fmt.Errorf("partner HTTP %d", code)
		}
		return nil
	})

	if execErr == nil {
		res := StatusResult{
			Success:    true,
			OrderFound: true,
			StatusCode: code,
		}
		if env != nil {
			res.Message = env.Message
			// 2xx with result=false: the partner found the order but
			// rejected the operation.
			if !env.Result {
				res.Success = false
			}
		}
		return res
	}

	var openErr *breaker.OpenError
	if errors.As(execErr, &openErr) {
		t := openErr.RetryAfter
		return StatusResult{
			Success:    false,
			OrderFound: false,
			StatusCode: http.StatusServiceUnavailable,
			Message:    openErr.Error(),
			RetryAfter: &t,
		}
	}

	if errors.Is(execErr, errOrderNotFound) {
		res := StatusResult{
			Success:    false,
			OrderFound: false,
			StatusCode: http.StatusNotFound,
			Message:    "order not found",
		}
		if env != nil && env.Message != "" {
			res.Message = env.Message
		}
		return res
	}

	res := StatusResult{
		Success:    false,
		OrderFound: true,
		StatusCode: code,
		Message:    execErr.Error(),
	}
	if env != nil && env.Message != "" {
		res.Message = env.Message
	}
	return res
}
