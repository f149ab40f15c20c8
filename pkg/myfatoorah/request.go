package myfatoorah

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// now is swapped in tests to pin the default reference id.
var now = time.Now

// PaymentRequest accumulates everything one payment-link call needs.
//
// Every With* method and AddProduct returns a new value and leaves the
// receiver untouched, so a partially built request can be reused as a
// template:
//
//	base := myfatoorah.NewPaymentRequest().
//		WithPaymentMode(myfatoorah.PaymentModeKNET).
//		WithReturnURL("https://shop.example/ok").
//		WithErrorURL("https://shop.example/fail")
//	req := base.WithCustomer("Khalid", "k@example.com", "96500000000").
//		WithReferenceID("").
//		AddProduct("iPhone", decimal.RequireFromString("9.750"), 5)
//
// Field order matters: validation reports the first missing field in
// declaration order.
type PaymentRequest struct {
	PaymentMode PaymentMode `field:"paymentMode" validate:"required,oneof=BOTH KNET VISA SADAD BENEFITS QPAY UAECC"`
	ReferenceID string      `field:"referenceId" validate:"required,notblank"`
	Customer    Customer    `field:"customer"`
	ReturnURL   string      `field:"returnUrl" validate:"required,url"`
	ErrorURL    string      `field:"errorUrl" validate:"required,url"`
	Products    []Product   `field:"products" validate:"required,min=1,dive"`
}

func NewPaymentRequest() PaymentRequest {
	return PaymentRequest{}
}

func (r PaymentRequest) WithPaymentMode(mode PaymentMode) PaymentRequest {
	r.PaymentMode = mode
	return r
}

func (r PaymentRequest) WithCustomer(name, email, phone string) PaymentRequest {
	r.Customer = Customer{Name: name, Email: email, Phone: phone}
	return r
}

// WithReferenceID sets the merchant reference for this attempt. An empty id
// falls back to the current Unix time in seconds, so two defaulted requests
// built within the same second share a reference. Uniqueness is the
// caller's job.
func (r PaymentRequest) WithReferenceID(id string) PaymentRequest {
	if id == "" {
		id = DefaultReferenceID()
	}
	r.ReferenceID = id
	return r
}

func (r PaymentRequest) WithReturnURL(url string) PaymentRequest {
	r.ReturnURL = url
	return r
}

func (r PaymentRequest) WithErrorURL(url string) PaymentRequest {
	r.ErrorURL = url
	return r
}

func (r PaymentRequest) AddProduct(name string, unitPrice decimal.Decimal, quantity int) PaymentRequest {
	products := make([]Product, len(r.Products), len(r.Products)+1)
	copy(products, r.Products)
	r.Products = append(products, Product{Name: name, UnitPrice: unitPrice, Quantity: quantity})
	return r
}

// Subtotal is the exact sum of UnitPrice × Quantity over all products.
func (r PaymentRequest) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.Products {
		total = total.Add(p.Total())
	}
	return total
}

// DefaultReferenceID is the time-derived reference used when none is given.
func DefaultReferenceID() string {
	return strconv.FormatInt(now().Unix(), 10)
}
