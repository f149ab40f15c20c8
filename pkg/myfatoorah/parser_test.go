package myfatoorah_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/bawes/myfatoorah/pkg/myfatoorah"
)

var _ = Describe("ResponseParser", func() {
	expectMalformed := func(err error) *myfatoorah.MalformedResponseError {
		var malformed *myfatoorah.MalformedResponseError
		ExpectWithOffset(1, errors.As(err, &malformed)).To(BeTrue(), "expected MalformedResponseError, got %v", err)
		return malformed
	}

	Describe("ParsePaymentLinkResponse", func() {
		It("should return the payment URL and reference on success", func() {
			// When
			result, err := myfatoorah.ParsePaymentLinkResponse(linkSuccessResponse("R-77", "https://test.myfatoorah.com/pay?ref=R-77&x=1"))

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.PaymentReferenceID).To(Equal("R-77"))
			Expect(result.PaymentURL).To(Equal("https://test.myfatoorah.com/pay?ref=R-77&x=1"))
		})

		It("should turn a non-zero response code into an APIError", func() {
			// When
			result, err := myfatoorah.ParsePaymentLinkResponse(linkErrorResponse(1003, "Product details not found"))

			// Then
			Expect(result).To(BeNil())
			var apiErr *myfatoorah.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Code).To(Equal(1003))
			Expect(apiErr.Message).To(Equal("Product details not found"))
		})

		It("should use the first occurrence of a repeated element", func() {
			// Given
			payload := []byte(`<r><ResponseCode>0</ResponseCode><ResponseMessage>ok</ResponseMessage>` +
				`<referenceID>first</referenceID><paymentURL>https://a</paymentURL>` +
				`<extra><referenceID>second</referenceID></extra></r>`)

			// When
			result, err := myfatoorah.ParsePaymentLinkResponse(payload)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.PaymentReferenceID).To(Equal("first"))
		})

		It("should fail when a success reply lacks the payment URL", func() {
			// Given
			payload := []byte(`<r><ResponseCode>0</ResponseCode><ResponseMessage>ok</ResponseMessage><referenceID>R</referenceID></r>`)

			// When
			_, err := myfatoorah.ParsePaymentLinkResponse(payload)

			// Then
			malformed := expectMalformed(err)
			Expect(malformed.Reason).To(ContainSubstring("paymentURL"))
			Expect(malformed.Payload).To(Equal(payload))
		})

		It("should fail when the response code is not numeric", func() {
			_, err := myfatoorah.ParsePaymentLinkResponse([]byte(`<r><ResponseCode>abc</ResponseCode><ResponseMessage>x</ResponseMessage></r>`))
			Expect(expectMalformed(err).Reason).To(ContainSubstring("not an integer"))
		})

		DescribeTable("unparseable bodies",
			func(body string) {
				_, err := myfatoorah.ParsePaymentLinkResponse([]byte(body))
				expectMalformed(err)
			},
			Entry("empty", ""),
			Entry("whitespace", "   \n"),
			Entry("HTML error page", "<html><body>Service Unavailable</body>"),
			Entry("plain text", "Internal error"),
			Entry("truncated XML", `<soap:Envelope><ResponseCode>0</ResponseCode>`),
			Entry("no response code", `<r><ResponseMessage>x</ResponseMessage></r>`),
		)
	})

	Describe("ParseOrderStatusResponse", func() {
		It("should populate every field on a captured payment", func() {
			// When
			result, err := myfatoorah.ParseOrderStatusResponse(statusCapturedResponse())

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.ResponseCode).To(Equal(0))
			Expect(result.ResponseMessage).To(Equal("Success"))
			Expect(result.CaptureResult).To(Equal("CAPTURED"))
			Expect(result.IsSuccess()).To(BeTrue())
			Expect(result.IsCaptured()).To(BeTrue())
			Expect(result.OrderID).To(Equal("778899"))
			Expect(result.PayTxnID).To(Equal("TXN-5521"))
			Expect(result.GrossAmountPaid.Equal(decimal.RequireFromString("48.75"))).To(BeTrue())
			Expect(result.NetAmountToBeDeposited.Equal(decimal.RequireFromString("47.25"))).To(BeTrue())
			Expect(result.PayMode).To(Equal("KNET"))
			Expect(result.UDF).To(Equal([5]string{"cart-42", "", "vip", "", ""}))
		})

		It("should return failures as data with the success-only fields empty", func() {
			// When
			result, err := myfatoorah.ParseOrderStatusResponse(statusFailedResponse(2009, "VOIDED"))

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.ResponseCode).To(Equal(2009))
			Expect(result.CaptureResult).To(Equal("VOIDED"))
			Expect(result.IsCaptured()).To(BeFalse())
			Expect(result.OrderID).To(BeEmpty())
			Expect(result.PayTxnID).To(BeEmpty())
			Expect(result.PayMode).To(BeEmpty())
			Expect(result.GrossAmountPaid.IsZero()).To(BeTrue())
			Expect(result.NetAmountToBeDeposited.IsZero()).To(BeTrue())
			Expect(result.UDF[0]).To(Equal("cart-42"))
		})

		DescribeTable("only the literal CAPTURED counts as captured",
			func(value string, captured bool) {
				result, err := myfatoorah.ParseOrderStatusResponse(statusFailedResponse(2009, value))
				Expect(err).ToNot(HaveOccurred())
				Expect(result.IsCaptured()).To(Equal(captured))
			},
			Entry("CAPTURED", "CAPTURED", true),
			Entry("lower case", "captured", false),
			Entry("NOT CAPTURED", "NOT CAPTURED", false),
			Entry("APPROVED", "APPROVED", false),
			Entry("SUCCESS", "SUCCESS", false),
			Entry("padded", " CAPTURED X", false),
		)

		It("should fail when a success reply lacks order details", func() {
			// Given
			payload := []byte(`<r><ResponseCode>0</ResponseCode><ResponseMessage>ok</ResponseMessage><result>CAPTURED</result></r>`)

			// When
			_, err := myfatoorah.ParseOrderStatusResponse(payload)

			// Then
			Expect(expectMalformed(err).Reason).To(ContainSubstring("OrderID"))
		})

		It("should fail when an amount is not a decimal", func() {
			// Given
			payload := []byte(`<r><ResponseCode>0</ResponseCode><ResponseMessage>ok</ResponseMessage><result>CAPTURED</result>` +
				`<OrderID>1</OrderID><PayTxnID>2</PayTxnID><Paymode>KNET</Paymode><gross_amount>n/a</gross_amount><net_amount>1</net_amount></r>`)

			// When
			_, err := myfatoorah.ParseOrderStatusResponse(payload)

			// Then
			Expect(expectMalformed(err).Reason).To(ContainSubstring("gross_amount"))
		})

		It("should fail when a success reply lacks result", func() {
			_, err := myfatoorah.ParseOrderStatusResponse([]byte(`<r><ResponseCode>0</ResponseCode><ResponseMessage>ok</ResponseMessage>` +
				`<OrderID>1</OrderID><PayTxnID>2</PayTxnID><Paymode>KNET</Paymode><gross_amount>1</gross_amount><net_amount>1</net_amount></r>`))
			Expect(expectMalformed(err).Reason).To(ContainSubstring("result"))
		})

		It("should return a rejection without result as data", func() {
			// When
			result, err := myfatoorah.ParseOrderStatusResponse([]byte(`<r><ResponseCode>1005</ResponseCode><ResponseMessage>Reference details not found</ResponseMessage></r>`))

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.ResponseCode).To(Equal(myfatoorah.ResponseCodeReferenceNotFound))
			Expect(result.CaptureResult).To(BeEmpty())
			Expect(result.IsCaptured()).To(BeFalse())
		})

		It("should echo user-defined fields verbatim", func() {
			// Given
			payload := []byte("<r><ResponseCode> 2009 </ResponseCode><ResponseMessage>x</ResponseMessage><result>NOT CAPTURED</result>" +
				"<udf1>  padded value  </udf1><udf2>\nline</udf2></r>")

			// When
			result, err := myfatoorah.ParseOrderStatusResponse(payload)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.ResponseCode).To(Equal(2009))
			Expect(result.UDF[0]).To(Equal("  padded value  "))
			Expect(result.UDF[1]).To(Equal("\nline"))
		})

		It("should parse amounts surrounded by whitespace", func() {
			// Given
			payload := []byte(`<r><ResponseCode>0</ResponseCode><ResponseMessage>ok</ResponseMessage><result>CAPTURED</result>` +
				`<OrderID>1</OrderID><PayTxnID>2</PayTxnID><Paymode>KNET</Paymode>` +
				"<gross_amount>\n  48.750\n</gross_amount><net_amount> 47.531 </net_amount></r>")

			// When
			result, err := myfatoorah.ParseOrderStatusResponse(payload)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.GrossAmountPaid.String()).To(Equal("48.75"))
			Expect(result.NetAmountToBeDeposited.String()).To(Equal("47.531"))
		})

		It("should read replies declared in windows-1256", func() {
			// Given
			payload := append([]byte(`<?xml version="1.0" encoding="windows-1256"?><r><ResponseCode>2009</ResponseCode><ResponseMessage>`),
				0xda, 0xdd, 0xe6, 0xc7) // "عفوا" in windows-1256
			payload = append(payload, []byte(`</ResponseMessage><result>NOT CAPTURED</result></r>`)...)

			// When
			result, err := myfatoorah.ParseOrderStatusResponse(payload)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.ResponseMessage).To(Equal("عفوا"))
		})
	})
})

var _ = Describe("Errors", func() {
	It("should describe known response codes", func() {
		Expect((&myfatoorah.APIError{Code: 1001, Message: "x"}).Description()).To(Equal("Invalid username/password"))
		Expect((&myfatoorah.APIError{Code: 2009}).Description()).To(ContainSubstring("Not Captured"))
		Expect((&myfatoorah.APIError{Code: 4242}).Description()).To(Equal("Unknown error"))
		Expect(myfatoorah.DescribeResponseCode(1000)).To(Equal("Merchant ID not found"))
	})

	It("should classify errors by type and retryability", func() {
		transportErr := &myfatoorah.TransportError{URL: "https://x", Cause: errors.New("timeout")}
		typ, ok := myfatoorah.ErrorTypeOf(transportErr)
		Expect(ok).To(BeTrue())
		Expect(typ).To(Equal(myfatoorah.ErrorTypeTransport))
		Expect(myfatoorah.IsRetryable(transportErr)).To(BeTrue())
		Expect(myfatoorah.IsRetryable(&myfatoorah.APIError{Code: 1001})).To(BeFalse())
		Expect(myfatoorah.IsRetryable(myfatoorah.NewConfigurationError("baseUrl", "is required"))).To(BeFalse())

		_, ok = myfatoorah.ErrorTypeOf(errors.New("plain"))
		Expect(ok).To(BeFalse())
	})
})
