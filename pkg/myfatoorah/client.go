package myfatoorah

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bawes/myfatoorah/pkg/logger"
)

// Client talks to one gateway endpoint with one merchant account. It holds
// no per-request state, so concurrent calls are fine.
type Client struct {
	config    GatewayConfig
	transport Transport
	logger    *slog.Logger
}

type Option func(*Client)

// WithTransport replaces the HTTPS transport, typically with a stub in tests.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func NewClient(config GatewayConfig, opts ...Option) *Client {
	client := &Client{config: config}
	for _, opt := range opts {
		opt(client)
	}
	if client.transport == nil {
		client.transport = NewHTTPTransport(config)
	}
	return client
}

// Config returns a copy of the client's gateway configuration.
func (c *Client) Config() GatewayConfig {
	return c.config
}

func (c *Client) log(ctx context.Context) *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return logger.From(ctx)
}

// CreatePaymentLink validates req, sends it and returns the hosted payment
// page URL. Gateway rejections come back as *APIError.
func (c *Client) CreatePaymentLink(ctx context.Context, req PaymentRequest) (*PaymentLinkResult, error) {
	log := c.log(ctx).With(
		"operation", "create_payment_link",
		"request_id", uuid.NewString(),
		"reference_id", req.ReferenceID)

	if err := ValidatePaymentRequest(c.config, req); err != nil {
		log.Warn("payment link request validation failed", "error", err)
		return nil, err
	}

	payload, err := BuildPaymentLinkEnvelope(c.config, req)
	if err != nil {
		log.Error("failed to build payment link envelope", "error", err)
		return nil, err
	}

	log.Info("requesting payment link",
		"payment_mode", req.PaymentMode,
		"products", len(req.Products),
		"subtotal", req.Subtotal().String(),
		"currency", c.config.Currency)

	body, err := c.roundTrip(ctx, log, payload)
	if err != nil {
		return nil, err
	}

	result, err := ParsePaymentLinkResponse(body)
	if err != nil {
		c.logParseFailure(log, err)
		return nil, err
	}

	log.Info("payment link created",
		"payment_reference_id", result.PaymentReferenceID,
		"payment_url", result.PaymentURL)

	return result, nil
}

// GetOrderStatus polls the gateway for a previously created payment. Only
// transport and parse failures are errors; check ResponseCode and
// IsCaptured on the result for the business outcome.
func (c *Client) GetOrderStatus(ctx context.Context, referenceID string) (*OrderStatusResult, error) {
	log := c.log(ctx).With(
		"operation", "get_order_status",
		"request_id", uuid.NewString(),
		"reference_id", referenceID)

	if err := ValidateOrderStatusRequest(c.config, referenceID); err != nil {
		log.Warn("order status request validation failed", "error", err)
		return nil, err
	}

	payload, err := BuildOrderStatusEnvelope(c.config, referenceID)
	if err != nil {
		log.Error("failed to build order status envelope", "error", err)
		return nil, err
	}

	log.Info("requesting order status")

	body, err := c.roundTrip(ctx, log, payload)
	if err != nil {
		return nil, err
	}

	result, err := ParseOrderStatusResponse(body)
	if err != nil {
		c.logParseFailure(log, err)
		return nil, err
	}

	if result.IsSuccess() {
		log.Info("order status received",
			"response_code", result.ResponseCode,
			"result", result.CaptureResult,
			"order_id", result.OrderID,
			"captured", result.IsCaptured())
	} else {
		log.Warn("order status reports failure",
			"response_code", result.ResponseCode,
			"response_message", result.ResponseMessage,
			"result", result.CaptureResult)
	}

	return result, nil
}

func (c *Client) roundTrip(ctx context.Context, log *slog.Logger, payload []byte) ([]byte, error) {
	start := time.Now()
	body, err := c.transport.Post(ctx, c.config.BaseURL, c.config.Username, c.config.Password, payload)
	duration := time.Since(start)
	if err != nil {
		log.Error("gateway request failed",
			"error", err,
			"url", c.config.BaseURL,
			"duration_ms", duration.Milliseconds())

		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			err = &TransportError{URL: c.config.BaseURL, Cause: err}
		}
		return nil, err
	}

	log.Debug("gateway responded",
		"duration_ms", duration.Milliseconds(),
		"response_size", len(body))

	return body, nil
}

func (c *Client) logParseFailure(log *slog.Logger, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		log.Warn("gateway rejected payment link request",
			"response_code", apiErr.Code,
			"response_message", apiErr.Message,
			"description", apiErr.Description())
		return
	}

	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		log.Error("malformed gateway response",
			"error", err,
			"payload", string(malformed.Payload))
		return
	}

	log.Error("failed to parse gateway response", "error", err)
}
