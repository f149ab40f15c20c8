package fakegateway

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/text/encoding/htmlindex"
)

const (
	soap12Namespace = "http://www.w3.org/2003/05/soap-envelope"
	serviceNS       = "http://tempuri.org/"
)

type inboundEnvelope struct {
	Body struct {
		PaymentRequest *struct {
			Req inboundPaymentReq `xml:"req"`
		} `xml:"PaymentRequest"`
		GetOrderStatusRequest *struct {
			Req inboundStatusReq `xml:"getOrderStatusRequestDC"`
		} `xml:"GetOrderStatusRequest"`
	} `xml:"Body"`
}

type inboundPaymentReq struct {
	CustomerName   string `xml:"CustomerDC>Name"`
	CustomerEmail  string `xml:"CustomerDC>Email"`
	CustomerMobile string `xml:"CustomerDC>Mobile"`

	MerchantCode string `xml:"MerchantDC>merchant_code"`
	Username     string `xml:"MerchantDC>merchant_username"`
	Password     string `xml:"MerchantDC>merchant_password"`
	ReferenceID  string `xml:"MerchantDC>merchant_ReferenceID"`
	ReturnURL    string `xml:"MerchantDC>ReturnURL"`
	ErrorURL     string `xml:"MerchantDC>merchant_error_url"`

	Products    []inboundProduct `xml:"lstProductDC>ProductDC"`
	Subtotal    string           `xml:"totalDC>subtotal"`
	PaymentMode string           `xml:"paymentModeDC>paymentMode"`
	Currency    string           `xml:"paymentCurrencyDC>paymentCurrrency"`
}

type inboundProduct struct {
	Name      string `xml:"product_name"`
	UnitPrice string `xml:"unitPrice"`
	Quantity  int    `xml:"qty"`
}

type inboundStatusReq struct {
	MerchantCode string `xml:"merchant_code"`
	Username     string `xml:"merchant_username"`
	Password     string `xml:"merchant_password"`
	ReferenceID  string `xml:"referenceID"`
}

func decodeEnvelope(payload []byte) (*inboundEnvelope, error) {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	decoder.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var env inboundEnvelope
	if err := decoder.Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

type outboundEnvelope struct {
	XMLName xml.Name     `xml:"soap:Envelope"`
	Soap    string       `xml:"xmlns:soap,attr"`
	Body    outboundBody `xml:"soap:Body"`
}

type outboundBody struct {
	PaymentResponse *paymentResponse `xml:"PaymentRequestResponse"`
	StatusResponse  *statusResponse  `xml:"GetOrderStatusRequestResponse"`
	Fault           *soapFault       `xml:"soap:Fault"`
}

type paymentResponse struct {
	Xmlns  string        `xml:"xmlns,attr"`
	Result paymentResult `xml:"PaymentRequestResult"`
}

type paymentResult struct {
	ResponseCode    int    `xml:"ResponseCode"`
	ResponseMessage string `xml:"ResponseMessage"`
	PaymentURL      string `xml:"paymentURL,omitempty"`
	ReferenceID     string `xml:"referenceID,omitempty"`
}

type statusResponse struct {
	Xmlns  string       `xml:"xmlns,attr"`
	Result statusResult `xml:"GetOrderStatusRequestResult"`
}

type statusResult struct {
	ResponseCode    int    `xml:"ResponseCode"`
	ResponseMessage string `xml:"ResponseMessage"`
	OrderID         string `xml:"OrderID,omitempty"`
	PayTxnID        string `xml:"PayTxnID,omitempty"`
	GrossAmount     string `xml:"gross_amount,omitempty"`
	NetAmount       string `xml:"net_amount,omitempty"`
	PayMode         string `xml:"Paymode,omitempty"`
	Result          string `xml:"result"`
	UDF1            string `xml:"udf1"`
	UDF2            string `xml:"udf2"`
	UDF3            string `xml:"udf3"`
	UDF4            string `xml:"udf4"`
	UDF5            string `xml:"udf5"`
}

type soapFault struct {
	Code   string `xml:"soap:Code>soap:Value"`
	Reason string `xml:"soap:Reason>soap:Text"`
}

func writeEnvelope(w http.ResponseWriter, status int, body outboundBody) error {
	out, err := xml.Marshal(outboundEnvelope{Soap: soap12Namespace, Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal response envelope: %w", err)
	}

	w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func writeFault(w http.ResponseWriter, code, reason string) error {
	return writeEnvelope(w, http.StatusInternalServerError, outboundBody{
		Fault: &soapFault{Code: code, Reason: reason},
	})
}
