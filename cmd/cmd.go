package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bawes/myfatoorah/internal"
	"github.com/bawes/myfatoorah/pkg/logger"
	"github.com/bawes/myfatoorah/pkg/myfatoorah"
)

const envPrefix = "MYFATOORAH"

var (
	configDir string
	config    *internal.Config
)

var rootCmd = &cobra.Command{
	Use:           "myfatoorah",
	Short:         "MyFatoorah payment gateway client",
	Long:          `Create hosted payment links and poll order status against the MyFatoorah SOAP gateway.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		config = cfg
		logger.InitTo(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)
		return nil
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads config.yml from path when present and overlays
// MYFATOORAH_* environment variables, e.g. MYFATOORAH_GATEWAY_USERNAME.
func loadConfig(path string) (*internal.Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	internal.SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

func newClient() (*myfatoorah.Client, error) {
	gatewayConfig, err := config.Gateway.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}
	return myfatoorah.NewClient(gatewayConfig, myfatoorah.WithLogger(logger.LoggerWrapper())), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing config.yml")

	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(fakeGatewayCmd)
}
