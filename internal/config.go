package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/bawes/myfatoorah/pkg/myfatoorah"
)

type Config struct {
	Gateway     GatewayConfig     `mapstructure:"gateway"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Poller      PollerConfig      `mapstructure:"poller"`
	FakeGateway FakeGatewayConfig `mapstructure:"fake_gateway"`
}

const (
	EnvironmentTest   = "test"
	EnvironmentLive   = "live"
	EnvironmentCustom = "custom"
)

type GatewayConfig struct {
	Environment        string `mapstructure:"environment" validate:"required,oneof=test live custom"`
	BaseURL            string `mapstructure:"base_url" validate:"required_if=Environment custom"`
	MerchantCode       string `mapstructure:"merchant_code" validate:"required_if=Environment live"`
	Username           string `mapstructure:"username" validate:"required_if=Environment live"`
	Password           string `mapstructure:"password" validate:"required_if=Environment live"`
	Currency           string `mapstructure:"currency" validate:"omitempty,len=3,alpha"`
	Charset            string `mapstructure:"charset" validate:"omitempty,oneof=utf-8 windows-1256"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

type PollerConfig struct {
	MaxWorkers   int           `mapstructure:"max_workers" validate:"min=1"`
	JobQueueSize int           `mapstructure:"job_queue_size" validate:"min=1"`
	Attempts     int           `mapstructure:"attempts" validate:"min=1"`
	Interval     time.Duration `mapstructure:"interval"`
}

type FakeGatewayConfig struct {
	Addr              string        `mapstructure:"addr" validate:"required"`
	PublicURL         string        `mapstructure:"public_url" validate:"omitempty,url"`
	MerchantCode      string        `mapstructure:"merchant_code" validate:"required"`
	Username          string        `mapstructure:"username" validate:"required"`
	Password          string        `mapstructure:"password" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// SetDefaults registers the values used when neither config.yml nor the
// environment provide a key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("gateway.environment", EnvironmentTest)
	v.SetDefault("gateway.base_url", "")
	v.SetDefault("gateway.merchant_code", "")
	v.SetDefault("gateway.username", "")
	v.SetDefault("gateway.password", "")
	v.SetDefault("gateway.currency", myfatoorah.DefaultCurrency)
	v.SetDefault("gateway.charset", string(myfatoorah.CharsetUTF8))
	v.SetDefault("gateway.insecure_skip_verify", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("poller.max_workers", 4)
	v.SetDefault("poller.job_queue_size", 100)
	v.SetDefault("poller.attempts", 1)
	v.SetDefault("poller.interval", 5*time.Second)

	v.SetDefault("fake_gateway.addr", "127.0.0.1:8089")
	v.SetDefault("fake_gateway.public_url", "")
	v.SetDefault("fake_gateway.merchant_code", myfatoorah.TestMerchantCode)
	v.SetDefault("fake_gateway.username", myfatoorah.TestUsername)
	v.SetDefault("fake_gateway.password", myfatoorah.TestPassword)
	v.SetDefault("fake_gateway.read_header_timeout", 5*time.Second)
	v.SetDefault("fake_gateway.shutdown_timeout", 10*time.Second)
}

// ----------------- VALIDATION -----------------

var configValidator = validator.New()

func (c *Config) Validate() error {
	var errs []string

	if err := c.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("gateway config: %v", err))
	}

	if err := configValidator.Struct(c.Logging); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if err := c.Poller.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("poller config: %v", err))
	}

	if err := c.FakeGateway.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("fake gateway config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *GatewayConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}
	if c.Environment == EnvironmentLive && c.InsecureSkipVerify {
		return errors.New("insecure_skip_verify is not allowed for the live environment")
	}
	return nil
}

func (c *PollerConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}
	if c.Attempts > 1 && c.Interval <= 0 {
		return errors.New("interval must be positive when attempts > 1")
	}
	return nil
}

func (c *FakeGatewayConfig) Validate() error {
	return configValidator.Struct(c)
}

// ClientConfig maps the gateway section onto the client library's config.
// In the test environment blank credentials fall back to the published
// sandbox account.
func (c *GatewayConfig) ClientConfig() (myfatoorah.GatewayConfig, error) {
	var cfg myfatoorah.GatewayConfig

	switch c.Environment {
	case EnvironmentLive:
		cfg = myfatoorah.Live(c.MerchantCode, c.Username, c.Password)
	case EnvironmentTest:
		cfg = myfatoorah.Test()
		if c.MerchantCode != "" {
			cfg.MerchantCode = c.MerchantCode
		}
		if c.Username != "" {
			cfg.Username = c.Username
		}
		if c.Password != "" {
			cfg.Password = c.Password
		}
	case EnvironmentCustom:
		cfg = myfatoorah.GatewayConfig{
			BaseURL:      c.BaseURL,
			MerchantCode: c.MerchantCode,
			Username:     c.Username,
			Password:     c.Password,
			Currency:     myfatoorah.DefaultCurrency,
			Charset:      myfatoorah.CharsetUTF8,
		}
	default:
		return cfg, fmt.Errorf("unknown gateway environment %q", c.Environment)
	}

	if c.Currency != "" {
		cfg = cfg.WithCurrency(strings.ToUpper(c.Currency))
	}
	if c.Charset != "" {
		cfg = cfg.WithCharset(myfatoorah.Charset(strings.ToLower(c.Charset)))
	}
	if c.InsecureSkipVerify {
		cfg = cfg.WithInsecureSkipVerify()
	}

	if err := myfatoorah.ValidateGatewayConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// PublicBaseURL is the address handed out in payment URLs. It defaults to
// http://<addr> when no public URL is configured.
func (c *FakeGatewayConfig) PublicBaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	u := url.URL{Scheme: "http", Host: c.Addr}
	return u.String()
}
