package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/bawes/myfatoorah/internal/poller"
	"github.com/bawes/myfatoorah/pkg/myfatoorah"
)

var _ = Describe("loadConfig", func() {
	setenv := func(key, value string) {
		old, had := os.LookupEnv(key)
		Expect(os.Setenv(key, value)).To(Succeed())
		DeferCleanup(func() {
			if had {
				_ = os.Setenv(key, old)
			} else {
				_ = os.Unsetenv(key)
			}
		})
	}

	It("should fall back to defaults without a config file", func() {
		// When
		cfg, err := loadConfig(GinkgoT().TempDir())

		// Then
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.Gateway.Environment).To(Equal("test"))
		Expect(cfg.Gateway.Currency).To(Equal("KWD"))
	})

	It("should read config.yml and let the environment override it", func() {
		// Given
		dir := GinkgoT().TempDir()
		yml := []byte("gateway:\n  environment: custom\n  base_url: http://127.0.0.1:8089/pg/PayGatewayServiceV2.asmx\n  currency: SAR\nlogging:\n  level: debug\n  format: json\n")
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), yml, 0o600)).To(Succeed())
		setenv("MYFATOORAH_GATEWAY_CURRENCY", "BHD")

		// When
		cfg, err := loadConfig(dir)

		// Then
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.Gateway.Environment).To(Equal("custom"))
		Expect(cfg.Gateway.BaseURL).To(HaveSuffix("/pg/PayGatewayServiceV2.asmx"))
		Expect(cfg.Gateway.Currency).To(Equal("BHD"))
		Expect(cfg.Logging.Format).To(Equal("json"))
	})

	It("should fail on invalid settings", func() {
		// Given
		setenv("MYFATOORAH_LOGGING_FORMAT", "xml")

		// When
		_, err := loadConfig(GinkgoT().TempDir())

		// Then
		Expect(err).To(MatchError(ContainSubstring("logging config")))
	})
})

var _ = Describe("writeStatusTable", func() {
	It("should print one row per reference and count failures", func() {
		// Given
		results := []poller.Result{
			{ReferenceID: "R-1", Status: &myfatoorah.OrderStatusResult{
				ResponseCode:           0,
				CaptureResult:          "CAPTURED",
				OrderID:                "778899",
				PayMode:                "KNET",
				GrossAmountPaid:        decimal.RequireFromString("48.75"),
				NetAmountToBeDeposited: decimal.RequireFromString("47.25"),
			}},
			{ReferenceID: "R-2", Status: &myfatoorah.OrderStatusResult{ResponseCode: 2009, CaptureResult: "VOIDED"}},
			{ReferenceID: "R-3", Err: &myfatoorah.TransportError{URL: "u", Cause: errors.New("refused")}},
		}
		var out bytes.Buffer

		// When
		failed := writeStatusTable(&out, results)

		// Then
		Expect(failed).To(Equal(1))
		Expect(out.String()).To(ContainSubstring("48.750"))
		Expect(out.String()).To(ContainSubstring("VOIDED"))
		Expect(out.String()).To(ContainSubstring("TRANSPORT_ERROR"))
	})
})
