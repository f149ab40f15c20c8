package fakegateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"github.com/bawes/myfatoorah/internal/events"
	"github.com/bawes/myfatoorah/pkg/logger"
	"github.com/bawes/myfatoorah/pkg/myfatoorah"
)

const (
	ServicePath    = "/pg/PayGatewayServiceV2.asmx"
	maxRequestSize = 1 << 20
)

// DefaultFeeRate is the share of the gross amount kept by the gateway.
var DefaultFeeRate = decimal.RequireFromString("0.025")

type Config struct {
	MerchantCode string
	Username     string
	Password     string

	// PublicURL prefixes hosted payment page links. When empty the scheme
	// and host of the incoming request are used.
	PublicURL string
	FeeRate   decimal.Decimal

	// Events receives order.created, order.captured and order.voided.
	// Optional.
	Events *events.Bus
}

// Server is an in-memory stand-in for the legacy SOAP gateway: it accepts
// PaymentRequest and GetOrderStatusRequest calls and serves a hosted page
// that settles orders.
type Server struct {
	config Config
	store  *Store
	logger *slog.Logger
	router *chi.Mux
}

func New(config Config, lg *slog.Logger) *Server {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	if config.FeeRate.IsZero() {
		config.FeeRate = DefaultFeeRate
	}

	s := &Server{
		config: config,
		store:  NewStore(),
		logger: lg,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.contextLogger)
	s.router.Use(RequestID)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(LoggingMiddleware)

	s.router.Post(ServicePath, s.handleSOAP)
	s.router.Get("/pay/{reference}", s.handlePaymentPage)
	s.router.Get("/health", s.handleHealth)
}

func (s *Server) contextLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(logger.Into(r.Context(), s.logger)))
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) handleSOAP(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context())

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		s.fault(w, r, "soap:Receiver", "failed to read request")
		return
	}

	env, err := decodeEnvelope(payload)
	if err != nil {
		log.Warn("rejecting malformed envelope", "error", err)
		s.fault(w, r, "soap:Sender", "malformed SOAP envelope")
		return
	}

	switch {
	case env.Body.PaymentRequest != nil:
		s.paymentRequest(w, r, env.Body.PaymentRequest.Req)
	case env.Body.GetOrderStatusRequest != nil:
		s.orderStatus(w, r, env.Body.GetOrderStatusRequest.Req)
	default:
		s.fault(w, r, "soap:Sender", "unknown operation")
	}
}

// authenticate checks the basic auth header and the credentials repeated in
// the body, returning the gateway response code for a failure or 0.
func (s *Server) authenticate(r *http.Request, merchantCode, username, password string) int {
	headerUser, headerPass, ok := r.BasicAuth()
	if !ok || !s.credentialsMatch(headerUser, headerPass) || !s.credentialsMatch(username, password) {
		return myfatoorah.ResponseCodeInvalidCredentials
	}
	if merchantCode != s.config.MerchantCode {
		return myfatoorah.ResponseCodeMerchantNotFound
	}
	return myfatoorah.ResponseCodeSuccess
}

func (s *Server) credentialsMatch(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.config.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.config.Password)) == 1
	return userOK && passOK
}

func (s *Server) paymentRequest(w http.ResponseWriter, r *http.Request, req inboundPaymentReq) {
	log := logger.From(r.Context()).With("operation", "PaymentRequest", "merchant_reference_id", req.ReferenceID)

	fail := func(code int) {
		log.Warn("payment request rejected", "response_code", code)
		s.respond(w, r, outboundBody{PaymentResponse: &paymentResponse{
			Xmlns:  serviceNS,
			Result: paymentResult{ResponseCode: code, ResponseMessage: myfatoorah.DescribeResponseCode(code)},
		}})
	}

	if code := s.authenticate(r, req.MerchantCode, req.Username, req.Password); code != myfatoorah.ResponseCodeSuccess {
		fail(code)
		return
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		fail(myfatoorah.ResponseCodeCustomerNotFound)
		return
	}
	if len(req.Products) == 0 {
		fail(myfatoorah.ResponseCodeProductNotFound)
		return
	}

	products := make([]OrderProduct, 0, len(req.Products))
	subtotal := decimal.Zero
	for _, p := range req.Products {
		price, err := decimal.NewFromString(p.UnitPrice)
		if err != nil {
			log.Warn("invalid unit price", "product", p.Name, "unit_price", p.UnitPrice)
			fail(myfatoorah.ResponseCodeProductNotFound)
			return
		}
		products = append(products, OrderProduct{Name: p.Name, UnitPrice: price, Quantity: p.Quantity})
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}

	if declared, err := decimal.NewFromString(req.Subtotal); err != nil || !declared.Equal(subtotal) {
		log.Warn("declared subtotal does not match products",
			"declared", req.Subtotal,
			"computed", subtotal.String())
	}

	order := s.store.Create(Order{
		MerchantReferenceID: req.ReferenceID,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		CustomerMobile:      req.CustomerMobile,
		Products:            products,
		Subtotal:            subtotal,
		Currency:            req.Currency,
		PaymentMode:         req.PaymentMode,
		ReturnURL:           req.ReturnURL,
		ErrorURL:            req.ErrorURL,
	})

	log.Info("order created",
		"reference", order.Reference,
		"order_id", order.OrderID,
		"subtotal", order.Subtotal.String(),
		"currency", order.Currency)
	s.publish(r, events.EventTypeOrderCreated, order)

	s.respond(w, r, outboundBody{PaymentResponse: &paymentResponse{
		Xmlns: serviceNS,
		Result: paymentResult{
			ResponseCode:    myfatoorah.ResponseCodeSuccess,
			ResponseMessage: myfatoorah.DescribeResponseCode(myfatoorah.ResponseCodeSuccess),
			PaymentURL:      s.publicURL(r) + "/pay/" + url.PathEscape(order.Reference),
			ReferenceID:     order.Reference,
		},
	}})
}

func (s *Server) orderStatus(w http.ResponseWriter, r *http.Request, req inboundStatusReq) {
	log := logger.From(r.Context()).With("operation", "GetOrderStatusRequest", "reference", req.ReferenceID)

	result := statusResult{}
	if code := s.authenticate(r, req.MerchantCode, req.Username, req.Password); code != myfatoorah.ResponseCodeSuccess {
		result.ResponseCode = code
	} else if order, ok := s.store.Get(req.ReferenceID); !ok {
		result.ResponseCode = myfatoorah.ResponseCodeReferenceNotFound
	} else {
		result = s.statusOf(order)
	}
	result.ResponseMessage = myfatoorah.DescribeResponseCode(result.ResponseCode)

	log.Info("order status served", "response_code", result.ResponseCode, "result", result.Result)

	s.respond(w, r, outboundBody{StatusResponse: &statusResponse{Xmlns: serviceNS, Result: result}})
}

func (s *Server) statusOf(order Order) statusResult {
	result := statusResult{
		Result: string(order.Status),
		UDF1:   order.MerchantReferenceID,
	}
	if order.Status != OrderStatusCaptured {
		result.ResponseCode = myfatoorah.ResponseCodeTransactionFailed
		return result
	}

	fee := order.Subtotal.Mul(s.config.FeeRate).Round(3)
	result.ResponseCode = myfatoorah.ResponseCodeSuccess
	result.OrderID = order.OrderID
	result.PayTxnID = order.PayTxnID
	result.GrossAmount = order.Subtotal.StringFixed(3)
	result.NetAmount = order.Subtotal.Sub(fee).StringFixed(3)
	result.PayMode = hostedPayMode(order.PaymentMode)
	return result
}

// hostedPayMode is the mode reported after payment. BOTH lets the customer
// choose, and the hosted page always settles those through KNET.
func hostedPayMode(requested string) string {
	mode, err := myfatoorah.ParsePaymentMode(requested)
	if err != nil || mode == myfatoorah.PaymentModeAll {
		return string(myfatoorah.PaymentModeKNET)
	}
	return string(mode)
}

var paymentPage = template.Must(template.New("pay").Parse(`<!DOCTYPE html>
<html>
<head><title>Sandbox payment {{.OrderID}}</title></head>
<body>
<h1>Pay {{.Amount}} {{.Currency}}</h1>
<p>Merchant reference: {{.MerchantReferenceID}}</p>
<ul>
{{range .Products}}<li>{{.Name}} x{{.Quantity}} @ {{.UnitPrice}}</li>
{{end}}</ul>
<a href="?outcome=captured">Pay</a> | <a href="?outcome=voided">Cancel</a>
</body>
</html>
`))

func (s *Server) handlePaymentPage(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	log := logger.From(r.Context()).With("reference", reference)

	order, ok := s.store.Get(reference)
	if !ok {
		http.Error(w, "unknown payment reference", http.StatusNotFound)
		return
	}

	var status OrderStatus
	switch outcome := r.URL.Query().Get("outcome"); outcome {
	case "":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := paymentPage.Execute(w, map[string]any{
			"OrderID":             order.OrderID,
			"Amount":              order.Subtotal.StringFixed(3),
			"Currency":            order.Currency,
			"MerchantReferenceID": order.MerchantReferenceID,
			"Products":            order.Products,
		})
		if err != nil {
			log.Error("failed to render payment page", "error", err)
		}
		return
	case "captured":
		status = OrderStatusCaptured
	case "voided":
		status = OrderStatusVoided
	default:
		http.Error(w, "outcome must be captured or voided", http.StatusBadRequest)
		return
	}

	order, err := s.store.Settle(reference, status)
	switch {
	case errors.Is(err, ErrOrderSettled):
		log.Warn("order already settled", "status", order.Status)
	case err != nil:
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	default:
		log.Info("order settled", "status", order.Status)
		eventType := events.EventTypeOrderVoided
		if order.Status == OrderStatusCaptured {
			eventType = events.EventTypeOrderCaptured
		}
		s.publish(r, eventType, order)
	}

	target := order.ReturnURL
	if order.Status != OrderStatusCaptured {
		target = order.ErrorURL
	}
	http.Redirect(w, r, withQuery(target, "id", reference), http.StatusSeeOther)
}

func withQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":     "healthy",
		"checked_at": time.Now().UTC(),
		"components": map[string]any{
			"store": map[string]any{
				"status":  "healthy",
				"details": map[string]int{"orders": s.store.Len()},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.From(r.Context()).Error("failed to encode health response", "error", err)
	}
}

func (s *Server) publish(r *http.Request, eventType string, order Order) {
	if s.config.Events == nil {
		return
	}
	s.config.Events.Publish(context.WithoutCancel(r.Context()), events.NewOrderEvent(
		eventType, order.Reference, order.MerchantReferenceID, order.OrderID, order.Subtotal, order.Currency))
}

func (s *Server) publicURL(r *http.Request) string {
	if s.config.PublicURL != "" {
		return strings.TrimRight(s.config.PublicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, body outboundBody) {
	if err := writeEnvelope(w, http.StatusOK, body); err != nil {
		logger.From(r.Context()).Error("failed to write response", "error", err)
	}
}

func (s *Server) fault(w http.ResponseWriter, r *http.Request, code, reason string) {
	if err := writeFault(w, code, reason); err != nil {
		logger.From(r.Context()).Error("failed to write fault", "error", err)
	}
}
