package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/bawes/myfatoorah/internal/events"
	"github.com/bawes/myfatoorah/internal/fakegateway"
	"github.com/bawes/myfatoorah/pkg/logger"
)

var fakeGatewayCmd = &cobra.Command{
	Use:   "fake-gateway",
	Short: "Serve an in-memory sandbox of the SOAP gateway",
	Long: `Start a local stand-in for the payment gateway. Point the client at it with
gateway.environment=custom and gateway.base_url=http://<addr>` + fakegateway.ServicePath + `.`,
	RunE: runFakeGateway,
}

var fakeGatewayAddr string

func init() {
	fakeGatewayCmd.Flags().StringVar(&fakeGatewayAddr, "addr", "", "listen address (overrides config)")
}

func runFakeGateway(cmd *cobra.Command, _ []string) error {
	fgConfig := config.FakeGateway
	if fakeGatewayAddr != "" {
		fgConfig.Addr = fakeGatewayAddr
	}

	log := logger.LoggerWrapper()

	bus := events.NewBus(log)
	for _, eventType := range []string{events.EventTypeOrderCreated, events.EventTypeOrderCaptured, events.EventTypeOrderVoided} {
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			log.Info("order event",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"payload", event.Payload())
			return nil
		})
	}

	gateway := fakegateway.New(fakegateway.Config{
		MerchantCode: fgConfig.MerchantCode,
		Username:     fgConfig.Username,
		Password:     fgConfig.Password,
		PublicURL:    fgConfig.PublicURL,
		Events:       bus,
	}, log)

	server := &http.Server{
		Addr:              fgConfig.Addr,
		Handler:           gateway.Handler(),
		ReadHeaderTimeout: fgConfig.ReadHeaderTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	log.Info("fake gateway listening",
		"address", fgConfig.Addr,
		"service_url", fgConfig.PublicBaseURL()+fakegateway.ServicePath,
		"merchant_code", fgConfig.MerchantCode)

	select {
	case <-cmd.Context().Done():
		log.Info("received signal, shutting down fake gateway")
		ctx, cancel := context.WithTimeout(context.Background(), fgConfig.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("fake gateway shutdown: %w", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("fake gateway failed: %w", err)
		}
	}

	bus.Wait()
	log.Info("fake gateway stopped", "orders", gateway.Store().Len())
	return nil
}
