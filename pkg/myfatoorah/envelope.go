package myfatoorah

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	soap12Namespace = "http://www.w3.org/2003/05/soap-envelope"
	xsiNamespace    = "http://www.w3.org/2001/XMLSchema-instance"
	xsdNamespace    = "http://www.w3.org/2001/XMLSchema"
	serviceNS       = "http://tempuri.org/"
)

type soapEnvelope struct {
	XMLName xml.Name `xml:"soap12:Envelope"`
	XSI     string   `xml:"xmlns:xsi,attr"`
	XSD     string   `xml:"xmlns:xsd,attr"`
	Soap12  string   `xml:"xmlns:soap12,attr"`
	Body    soapBody `xml:"soap12:Body"`
}

type soapBody struct {
	PaymentRequest        *paymentRequestOp     `xml:"PaymentRequest"`
	GetOrderStatusRequest *orderStatusRequestOp `xml:"GetOrderStatusRequest"`
}

type paymentRequestOp struct {
	Xmlns string         `xml:"xmlns,attr"`
	Req   paymentReqBody `xml:"req"`
}

type paymentReqBody struct {
	Customer    customerDC  `xml:"CustomerDC"`
	Merchant    merchantDC  `xml:"MerchantDC"`
	Products    []productDC `xml:"lstProductDC>ProductDC"`
	Subtotal    string      `xml:"totalDC>subtotal"`
	PaymentMode string      `xml:"paymentModeDC>paymentMode"`
	Currency    string      `xml:"paymentCurrencyDC>paymentCurrrency"`
}

type customerDC struct {
	Name   string `xml:"Name"`
	Email  string `xml:"Email"`
	Mobile string `xml:"Mobile"`
}

type merchantDC struct {
	Code        string `xml:"merchant_code"`
	Username    string `xml:"merchant_username"`
	Password    string `xml:"merchant_password"`
	ReferenceID string `xml:"merchant_ReferenceID"`
	ReturnURL   string `xml:"ReturnURL"`
	ErrorURL    string `xml:"merchant_error_url"`
}

type productDC struct {
	Name      string `xml:"product_name"`
	UnitPrice string `xml:"unitPrice"`
	Quantity  int    `xml:"qty"`
}

type orderStatusRequestOp struct {
	Xmlns string        `xml:"xmlns,attr"`
	Req   orderStatusDC `xml:"getOrderStatusRequestDC"`
}

type orderStatusDC struct {
	Code        string `xml:"merchant_code"`
	Username    string `xml:"merchant_username"`
	Password    string `xml:"merchant_password"`
	ReferenceID string `xml:"referenceID"`
}

func newSOAPEnvelope(body soapBody) soapEnvelope {
	return soapEnvelope{
		XSI:    xsiNamespace,
		XSD:    xsdNamespace,
		Soap12: soap12Namespace,
		Body:   body,
	}
}

// BuildPaymentLinkEnvelope renders the PaymentRequest SOAP call. Every text
// value goes through the XML encoder, so all user input is escaped.
func BuildPaymentLinkEnvelope(cfg GatewayConfig, req PaymentRequest) ([]byte, error) {
	products := make([]productDC, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, productDC{
			Name:      p.Name,
			UnitPrice: p.UnitPrice.String(),
			Quantity:  p.Quantity,
		})
	}

	env := newSOAPEnvelope(soapBody{
		PaymentRequest: &paymentRequestOp{
			Xmlns: serviceNS,
			Req: paymentReqBody{
				Customer: customerDC{
					Name:   req.Customer.Name,
					Email:  req.Customer.Email,
					Mobile: req.Customer.Phone,
				},
				Merchant: merchantDC{
					Code:        cfg.MerchantCode,
					Username:    cfg.Username,
					Password:    cfg.Password,
					ReferenceID: req.ReferenceID,
					ReturnURL:   req.ReturnURL,
					ErrorURL:    req.ErrorURL,
				},
				Products:    products,
				Subtotal:    req.Subtotal().String(),
				PaymentMode: string(req.PaymentMode),
				Currency:    cfg.Currency,
			},
		},
	})

	return encodeEnvelope(env, cfg.charset())
}

// BuildOrderStatusEnvelope renders the GetOrderStatusRequest SOAP call.
func BuildOrderStatusEnvelope(cfg GatewayConfig, referenceID string) ([]byte, error) {
	env := newSOAPEnvelope(soapBody{
		GetOrderStatusRequest: &orderStatusRequestOp{
			Xmlns: serviceNS,
			Req: orderStatusDC{
				Code:        cfg.MerchantCode,
				Username:    cfg.Username,
				Password:    cfg.Password,
				ReferenceID: referenceID,
			},
		},
	})

	return encodeEnvelope(env, cfg.charset())
}

func encodeEnvelope(env soapEnvelope, charset Charset) ([]byte, error) {
	body, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<?xml version=\"1.0\" encoding=\"%s\"?>\n", charset)

	switch charset {
	case CharsetUTF8:
		buf.Write(body)
	case CharsetWindows1256:
		// Runes outside the code page become numeric character references.
		enc := encoding.HTMLEscapeUnsupported(charmap.Windows1256.NewEncoder())
		encoded, err := enc.Bytes(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode envelope as %s: %w", charset, err)
		}
		buf.Write(encoded)
	default:
		return nil, NewConfigurationError("charset", fmt.Sprintf("unsupported value %q", charset))
	}

	return buf.Bytes(), nil
}
