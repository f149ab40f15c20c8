package myfatoorah_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/bawes/myfatoorah/pkg/myfatoorah"
)

var _ = Describe("PaymentRequest", func() {
	Describe("WithReferenceID", func() {
		var restore func()

		BeforeEach(func() {
			fixed := time.Date(2026, 10, 16, 9, 30, 15, 0, time.UTC)
			restore = myfatoorah.SetNow(func() time.Time { return fixed })
		})

		AfterEach(func() {
			restore()
		})

		It("should default to the same value when called twice in the same second", func() {
			// When
			first := myfatoorah.NewPaymentRequest().WithReferenceID("")
			second := myfatoorah.NewPaymentRequest().WithReferenceID("")

			// Then
			Expect(first.ReferenceID).To(Equal("1792143015"))
			Expect(second.ReferenceID).To(Equal(first.ReferenceID))
		})

		It("should always prefer an explicit id over the default", func() {
			// When
			req := myfatoorah.NewPaymentRequest().WithReferenceID("").WithReferenceID("ORDER-7")

			// Then
			Expect(req.ReferenceID).To(Equal("ORDER-7"))
		})
	})

	Describe("builder methods", func() {
		It("should leave the receiver untouched", func() {
			// Given
			base := myfatoorah.NewPaymentRequest().
				WithPaymentMode(myfatoorah.PaymentModeKNET).
				AddProduct("Case", decimal.RequireFromString("2.500"), 1)

			// When
			withCustomer := base.WithCustomer("Sara", "sara@example.com", "96599999999")
			withMore := base.AddProduct("Charger", decimal.RequireFromString("4.000"), 2)

			// Then
			Expect(base.Customer.Name).To(BeEmpty())
			Expect(base.Products).To(HaveLen(1))
			Expect(withCustomer.Customer.Name).To(Equal("Sara"))
			Expect(withCustomer.Products).To(HaveLen(1))
			Expect(withMore.Products).To(HaveLen(2))
			Expect(withMore.PaymentMode).To(Equal(myfatoorah.PaymentModeKNET))
		})

		It("should not alias product slices between derived requests", func() {
			// Given
			base := myfatoorah.NewPaymentRequest().
				AddProduct("A", decimal.NewFromInt(1), 1).
				AddProduct("B", decimal.NewFromInt(2), 1)

			// When
			left := base.AddProduct("left", decimal.NewFromInt(3), 1)
			right := base.AddProduct("right", decimal.NewFromInt(4), 1)

			// Then
			Expect(left.Products[2].Name).To(Equal("left"))
			Expect(right.Products[2].Name).To(Equal("right"))
		})
	})

	Describe("Subtotal", func() {
		It("should sum unit price times quantity exactly", func() {
			// Given
			req := myfatoorah.NewPaymentRequest().
				AddProduct("iPhone", decimal.RequireFromString("9.750"), 5).
				AddProduct("Cable", decimal.RequireFromString("0.105"), 3).
				AddProduct("Gift", decimal.RequireFromString("0.1"), 0)

			// Then
			Expect(req.Subtotal().Equal(decimal.RequireFromString("49.065"))).To(BeTrue())
		})
	})
})

var _ = Describe("ParsePaymentMode", func() {
	DescribeTable("accepted spellings",
		func(input string, expected myfatoorah.PaymentMode) {
			mode, err := myfatoorah.ParsePaymentMode(input)
			Expect(err).ToNot(HaveOccurred())
			Expect(mode).To(Equal(expected))
		},
		Entry("all", "all", myfatoorah.PaymentModeAll),
		Entry("wire value BOTH", "BOTH", myfatoorah.PaymentModeAll),
		Entry("knet", "knet", myfatoorah.PaymentModeKNET),
		Entry("visa-mastercard", "visa-mastercard", myfatoorah.PaymentModeVisaMastercard),
		Entry("sadad", "Sadad", myfatoorah.PaymentModeSadad),
		Entry("benefit", "benefit", myfatoorah.PaymentModeBenefit),
		Entry("qpay", "QPAY", myfatoorah.PaymentModeQPay),
		Entry("uaecc", "uaecc", myfatoorah.PaymentModeUAECC),
	)

	It("should reject unknown modes", func() {
		_, err := myfatoorah.ParsePaymentMode("paypal")
		Expect(err).To(MatchError(ContainSubstring("unknown payment mode")))
	})
})
