package myfatoorah_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/bawes/myfatoorah/pkg/myfatoorah"
)

var _ = Describe("Validator", func() {
	var (
		cfg myfatoorah.GatewayConfig
		req myfatoorah.PaymentRequest
	)

	BeforeEach(func() {
		cfg = myfatoorah.Test()
		req = validRequest()
	})

	It("should accept a complete request", func() {
		Expect(myfatoorah.ValidatePaymentRequest(cfg, req)).To(Succeed())
	})

	DescribeTable("missing fields fail before any network call, naming exactly that field",
		func(field string, breakConfig func(myfatoorah.GatewayConfig) myfatoorah.GatewayConfig, breakRequest func(myfatoorah.PaymentRequest) myfatoorah.PaymentRequest) {
			// Given
			if breakConfig != nil {
				cfg = breakConfig(cfg)
			}
			if breakRequest != nil {
				req = breakRequest(req)
			}
			transport := &stubTransport{response: linkSuccessResponse("R", "https://pay.example/R")}
			client := myfatoorah.NewClient(cfg, myfatoorah.WithTransport(transport), myfatoorah.WithLogger(discardLogger))

			// When
			result, err := client.CreatePaymentLink(context.Background(), req)

			// Then
			Expect(result).To(BeNil())
			var configErr *myfatoorah.ConfigurationError
			Expect(errors.As(err, &configErr)).To(BeTrue())
			Expect(configErr.Field).To(Equal(field))
			Expect(transport.Calls()).To(BeZero())
		},
		Entry("endpoint URL", "baseUrl",
			func(c myfatoorah.GatewayConfig) myfatoorah.GatewayConfig { return c.WithBaseURL("") }, nil),
		Entry("merchant code", "merchantCode",
			func(c myfatoorah.GatewayConfig) myfatoorah.GatewayConfig { c.MerchantCode = ""; return c }, nil),
		Entry("username", "username",
			func(c myfatoorah.GatewayConfig) myfatoorah.GatewayConfig { c.Username = ""; return c }, nil),
		Entry("password", "password",
			func(c myfatoorah.GatewayConfig) myfatoorah.GatewayConfig { c.Password = ""; return c }, nil),
		Entry("currency", "currency",
			func(c myfatoorah.GatewayConfig) myfatoorah.GatewayConfig { return c.WithCurrency("") }, nil),
		Entry("payment mode", "paymentMode", nil,
			func(r myfatoorah.PaymentRequest) myfatoorah.PaymentRequest { return r.WithPaymentMode("") }),
		Entry("reference id", "referenceId", nil,
			func(r myfatoorah.PaymentRequest) myfatoorah.PaymentRequest { r.ReferenceID = ""; return r }),
		Entry("reference id (blank)", "referenceId", nil,
			func(r myfatoorah.PaymentRequest) myfatoorah.PaymentRequest { r.ReferenceID = "   "; return r }),
		Entry("customer name", "customerName", nil,
			func(r myfatoorah.PaymentRequest) myfatoorah.PaymentRequest { r.Customer.Name = ""; return r }),
		Entry("customer email", "customerEmail", nil,
			func(r myfatoorah.PaymentRequest) myfatoorah.PaymentRequest { r.Customer.Email = ""; return r }),
		Entry("customer phone", "customerPhone", nil,
			func(r myfatoorah.PaymentRequest) myfatoorah.PaymentRequest { r.Customer.Phone = ""; return r }),
		Entry("return URL", "returnUrl", nil,
			func(r myfatoorah.PaymentRequest) myfatoorah.PaymentRequest { return r.WithReturnURL("") }),
		Entry("error URL", "errorUrl", nil,
			func(r myfatoorah.PaymentRequest) myfatoorah.PaymentRequest { return r.WithErrorURL("") }),
		Entry("products (nil)", "products", nil,
			func(r myfatoorah.PaymentRequest) myfatoorah.PaymentRequest { r.Products = nil; return r }),
		Entry("products (empty)", "products", nil,
			func(r myfatoorah.PaymentRequest) myfatoorah.PaymentRequest {
				r.Products = []myfatoorah.Product{}
				return r
			}),
	)

	It("should report the first missing field when several are missing", func() {
		// Given
		req = myfatoorah.NewPaymentRequest().WithPaymentMode(myfatoorah.PaymentModeKNET)

		// When
		err := myfatoorah.ValidatePaymentRequest(cfg, req)

		// Then
		Expect(err).To(MatchError(myfatoorah.NewConfigurationError("referenceId", "is required")))
	})

	It("should reject negative prices with the product index", func() {
		// Given
		req = req.AddProduct("Refund", decimal.RequireFromString("-1.000"), 1)

		// When
		err := myfatoorah.ValidatePaymentRequest(cfg, req)

		// Then
		var configErr *myfatoorah.ConfigurationError
		Expect(errors.As(err, &configErr)).To(BeTrue())
		Expect(configErr.Field).To(Equal("products[1].unitPrice"))
	})

	It("should reject negative quantities with the product index", func() {
		// Given
		req = req.AddProduct("Broken", decimal.NewFromInt(1), -2)

		// When
		err := myfatoorah.ValidatePaymentRequest(cfg, req)

		// Then
		var configErr *myfatoorah.ConfigurationError
		Expect(errors.As(err, &configErr)).To(BeTrue())
		Expect(configErr.Field).To(Equal("products[1].quantity"))
	})

	It("should reject unknown payment modes", func() {
		err := myfatoorah.ValidatePaymentRequest(cfg, req.WithPaymentMode("PAYPAL"))
		Expect(err).To(MatchError(ContainSubstring("paymentMode must be one of")))
	})

	Describe("gateway URL", func() {
		It("should reject plain http for public hosts", func() {
			err := myfatoorah.ValidateGatewayConfig(cfg.WithBaseURL("http://test.myfatoorah.com/pg/PayGatewayServiceV2.asmx"))
			Expect(err).To(MatchError(myfatoorah.NewConfigurationError("baseUrl", "must be an absolute https URL")))
		})

		It("should allow plain http for loopback hosts", func() {
			Expect(myfatoorah.ValidateGatewayConfig(cfg.WithBaseURL("http://127.0.0.1:8089/pg"))).To(Succeed())
			Expect(myfatoorah.ValidateGatewayConfig(cfg.WithBaseURL("http://localhost:8089/pg"))).To(Succeed())
		})

		It("should reject relative URLs", func() {
			Expect(myfatoorah.ValidateGatewayConfig(cfg.WithBaseURL("/pg/PayGatewayServiceV2.asmx"))).ToNot(Succeed())
		})
	})

	It("should refuse to skip certificate verification against the live endpoint", func() {
		// Given
		live := myfatoorah.Live("12345", "merchant@example.com", "secret").WithInsecureSkipVerify()

		// When
		err := myfatoorah.ValidateGatewayConfig(live)

		// Then
		var configErr *myfatoorah.ConfigurationError
		Expect(errors.As(err, &configErr)).To(BeTrue())
		Expect(configErr.Field).To(Equal("insecureSkipVerify"))
	})

	It("should allow skipping certificate verification for the sandbox", func() {
		Expect(myfatoorah.ValidateGatewayConfig(myfatoorah.Test().WithInsecureSkipVerify())).To(Succeed())
	})

	Describe("ValidateOrderStatusRequest", func() {
		It("should only require the config and a reference id", func() {
			Expect(myfatoorah.ValidateOrderStatusRequest(cfg, "R-1")).To(Succeed())
		})

		It("should name referenceId when it is blank", func() {
			err := myfatoorah.ValidateOrderStatusRequest(cfg, "  ")
			Expect(err).To(MatchError(myfatoorah.NewConfigurationError("referenceId", "is required")))
		})
	})
})
