package myfatoorah

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/htmlindex"
)

// leafValues holds the raw text of the first occurrence of every leaf
// element in a document, keyed by local name. Namespaces are ignored.
type leafValues map[string]string

func (v leafValues) required(name string, payload []byte) (string, error) {
	value, ok := v[name]
	if !ok {
		return "", &MalformedResponseError{
			Reason:  fmt.Sprintf("missing element <%s>", name),
			Payload: payload,
		}
	}
	return value, nil
}

func (v leafValues) responseCode(payload []byte) (int, string, error) {
	rawCode, err := v.required("ResponseCode", payload)
	if err != nil {
		return 0, "", err
	}
	message, err := v.required("ResponseMessage", payload)
	if err != nil {
		return 0, "", err
	}

	code, err := strconv.Atoi(strings.TrimSpace(rawCode))
	if err != nil {
		return 0, "", &MalformedResponseError{
			Reason:  fmt.Sprintf("ResponseCode %q is not an integer", rawCode),
			Payload: payload,
			Cause:   err,
		}
	}
	return code, message, nil
}

func parseLeaves(payload []byte) (leafValues, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, &MalformedResponseError{Reason: "empty body", Payload: payload}
	}

	decoder := xml.NewDecoder(bytes.NewReader(payload))
	decoder.CharsetReader = charsetReader

	type frame struct {
		name     string
		text     strings.Builder
		hasChild bool
	}

	values := leafValues{}
	var stack []*frame
	elements := 0

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedResponseError{Reason: "invalid XML", Payload: payload, Cause: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elements++
			if len(stack) > 0 {
				stack[len(stack)-1].hasChild = true
			}
			stack = append(stack, &frame{name: t.Name.Local})
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.hasChild {
				continue
			}
			if _, seen := values[top.name]; !seen {
				values[top.name] = top.text.String()
			}
		}
	}

	if elements == 0 {
		return nil, &MalformedResponseError{Reason: "no XML elements", Payload: payload}
	}
	return values, nil
}

// charsetReader lets the decoder read replies declared in legacy code pages.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// ParsePaymentLinkResponse extracts the payment URL and reference from a
// PaymentRequest reply. A non-zero ResponseCode yields an *APIError.
func ParsePaymentLinkResponse(payload []byte) (*PaymentLinkResult, error) {
	values, err := parseLeaves(payload)
	if err != nil {
		return nil, err
	}

	code, message, err := values.responseCode(payload)
	if err != nil {
		return nil, err
	}
	if code != ResponseCodeSuccess {
		return nil, &APIError{Code: code, Message: message}
	}

	referenceID, err := values.required("referenceID", payload)
	if err != nil {
		return nil, err
	}
	paymentURL, err := values.required("paymentURL", payload)
	if err != nil {
		return nil, err
	}

	return &PaymentLinkResult{
		PaymentURL:         paymentURL,
		PaymentReferenceID: referenceID,
	}, nil
}

// ParseOrderStatusResponse extracts a status poll reply. A non-zero
// ResponseCode is reported in the result, not as an error: "not captured"
// is an ordinary outcome of polling.
func ParseOrderStatusResponse(payload []byte) (*OrderStatusResult, error) {
	values, err := parseLeaves(payload)
	if err != nil {
		return nil, err
	}

	code, message, err := values.responseCode(payload)
	if err != nil {
		return nil, err
	}

	result := &OrderStatusResult{
		ResponseCode:    code,
		ResponseMessage: message,
		CaptureResult:   values["result"],
	}
	for i := range result.UDF {
		result.UDF[i] = values[fmt.Sprintf("udf%d", i+1)]
	}

	if code != ResponseCodeSuccess {
		return result, nil
	}

	if result.CaptureResult, err = values.required("result", payload); err != nil {
		return nil, err
	}
	if result.OrderID, err = values.required("OrderID", payload); err != nil {
		return nil, err
	}
	if result.PayTxnID, err = values.required("PayTxnID", payload); err != nil {
		return nil, err
	}
	if result.PayMode, err = values.required("Paymode", payload); err != nil {
		return nil, err
	}
	if result.GrossAmountPaid, err = values.amount("gross_amount", payload); err != nil {
		return nil, err
	}
	if result.NetAmountToBeDeposited, err = values.amount("net_amount", payload); err != nil {
		return nil, err
	}

	return result, nil
}

func (v leafValues) amount(name string, payload []byte) (decimal.Decimal, error) {
	raw, err := v.required(name, payload)
	if err != nil {
		return decimal.Zero, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &MalformedResponseError{
			Reason:  fmt.Sprintf("<%s> %q is not a decimal amount", name, raw),
			Payload: payload,
			Cause:   err,
		}
	}
	return amount, nil
}
