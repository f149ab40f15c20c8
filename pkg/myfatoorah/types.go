package myfatoorah

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentMode selects which channel the hosted payment page exposes.
type PaymentMode string

const (
	PaymentModeAll            PaymentMode = "BOTH"
	PaymentModeKNET           PaymentMode = "KNET"
	PaymentModeVisaMastercard PaymentMode = "VISA"
	PaymentModeSadad          PaymentMode = "SADAD"
	PaymentModeBenefit        PaymentMode = "BENEFITS"
	PaymentModeQPay           PaymentMode = "QPAY"
	PaymentModeUAECC          PaymentMode = "UAECC"
)

var paymentModes = []PaymentMode{
	PaymentModeAll,
	PaymentModeKNET,
	PaymentModeVisaMastercard,
	PaymentModeSadad,
	PaymentModeBenefit,
	PaymentModeQPay,
	PaymentModeUAECC,
}

// ParsePaymentMode accepts either the wire value ("BOTH", "BENEFITS") or
// the friendly alias ("all", "benefit", "visa-mastercard"), case-insensitively.
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ALL", "BOTH":
		return PaymentModeAll, nil
	case "KNET":
		return PaymentModeKNET, nil
	case "VISA", "VISA-MASTERCARD", "MASTERCARD":
		return PaymentModeVisaMastercard, nil
	case "SADAD":
		return PaymentModeSadad, nil
	case "BENEFIT", "BENEFITS":
		return PaymentModeBenefit, nil
	case "QPAY":
		return PaymentModeQPay, nil
	case "UAECC":
		return PaymentModeUAECC, nil
	}
	return "", fmt.Errorf("unknown payment mode %q", s)
}

func (m PaymentMode) String() string {
	return string(m)
}

type Customer struct {
	Name  string `field:"customerName" validate:"required"`
	Email string `field:"customerEmail" validate:"required"`
	Phone string `field:"customerPhone" validate:"required"`
}

type Product struct {
	Name      string          `field:"productName"`
	UnitPrice decimal.Decimal `field:"unitPrice" validate:"-"`
	Quantity  int             `field:"quantity" validate:"gte=0"`
}

// Total is UnitPrice multiplied by Quantity.
func (p Product) Total() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// PaymentLinkResult is returned when the gateway accepted a payment-link request.
type PaymentLinkResult struct {
	PaymentURL         string
	PaymentReferenceID string
}

// CaptureResultCaptured is the only gateway result that means funds were collected.
const CaptureResultCaptured = "CAPTURED"

// OrderStatusResult carries the gateway's answer to a status poll. The
// order fields are only filled when ResponseCode is ResponseCodeSuccess.
type OrderStatusResult struct {
	ResponseCode    int
	ResponseMessage string
	CaptureResult   string

	OrderID                string
	PayTxnID               string
	GrossAmountPaid        decimal.Decimal
	NetAmountToBeDeposited decimal.Decimal
	PayMode                string

	UDF [5]string
}

func (r *OrderStatusResult) IsSuccess() bool {
	return r.ResponseCode == ResponseCodeSuccess
}

// IsCaptured reports whether the gateway confirmed the capture. Anything
// other than the exact literal CAPTURED counts as not captured.
func (r *OrderStatusResult) IsCaptured() bool {
	return r.CaptureResult == CaptureResultCaptured
}
