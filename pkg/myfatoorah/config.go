package myfatoorah

const (
	LiveBaseURL = "https://www.myfatoorah.com/pg/PayGatewayServiceV2.asmx"
	TestBaseURL = "https://test.myfatoorah.com/pg/PayGatewayServiceV2.asmx"

	// Published sandbox credentials.
	TestMerchantCode = "999999"
	TestUsername     = "testapi@myfatoorah.com"
	TestPassword     = "E55D0"

	DefaultCurrency = "KWD"
)

// Charset is the character encoding an envelope is written in.
type Charset string

const (
	CharsetUTF8        Charset = "utf-8"
	CharsetWindows1256 Charset = "windows-1256"
)

// GatewayConfig identifies the endpoint and merchant account. It is a value:
// the With* helpers return modified copies and the client keeps its own copy.
type GatewayConfig struct {
	BaseURL      string  `field:"baseUrl" validate:"required,gateway_url"`
	MerchantCode string  `field:"merchantCode" validate:"required"`
	Username     string  `field:"username" validate:"required"`
	Password     string  `field:"password" validate:"required"`
	Currency     string  `field:"currency" validate:"required,len=3,alpha"`
	Charset      Charset `field:"charset" validate:"omitempty,oneof=utf-8 windows-1256"`

	// InsecureSkipVerify disables TLS certificate verification. It exists for
	// sandbox hosts with broken chains and is rejected for LiveBaseURL.
	InsecureSkipVerify bool `field:"insecureSkipVerify"`
}

// Live returns the production configuration for a merchant account.
func Live(merchantCode, username, password string) GatewayConfig {
	return GatewayConfig{
		BaseURL:      LiveBaseURL,
		MerchantCode: merchantCode,
		Username:     username,
		Password:     password,
		Currency:     DefaultCurrency,
		Charset:      CharsetUTF8,
	}
}

// Test returns the sandbox configuration with the published test account.
func Test() GatewayConfig {
	return GatewayConfig{
		BaseURL:      TestBaseURL,
		MerchantCode: TestMerchantCode,
		Username:     TestUsername,
		Password:     TestPassword,
		Currency:     DefaultCurrency,
		Charset:      CharsetUTF8,
	}
}

func (c GatewayConfig) WithCurrency(currency string) GatewayConfig {
	c.Currency = currency
	return c
}

func (c GatewayConfig) WithCharset(charset Charset) GatewayConfig {
	c.Charset = charset
	return c
}

func (c GatewayConfig) WithBaseURL(baseURL string) GatewayConfig {
	c.BaseURL = baseURL
	return c
}

// WithInsecureSkipVerify turns off certificate verification. Sandbox only.
func (c GatewayConfig) WithInsecureSkipVerify() GatewayConfig {
	c.InsecureSkipVerify = true
	return c
}

func (c GatewayConfig) charset() Charset {
	if c.Charset == "" {
		return CharsetUTF8
	}
	return c.Charset
}
