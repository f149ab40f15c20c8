package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bawes/myfatoorah/internal/poller"
	"github.com/bawes/myfatoorah/pkg/logger"
	"github.com/bawes/myfatoorah/pkg/myfatoorah"
)

var statusCmd = &cobra.Command{
	Use:   "status <reference-id>...",
	Short: "Poll the status of one or more payments",
	Long: `Query GetOrderStatusRequest for each reference. Several references are
polled concurrently. With --attempts > 1 references still awaiting payment
are polled again every --interval.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatus,
}

var (
	statusAttempts int
	statusInterval time.Duration
	statusWorkers  int
)

func init() {
	statusCmd.Flags().IntVar(&statusAttempts, "attempts", 0, "polls per reference while awaiting payment (overrides config)")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", 0, "delay between polls (overrides config)")
	statusCmd.Flags().IntVar(&statusWorkers, "max-workers", 0, "concurrent polls (overrides config)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	pollerConfig := poller.Config{
		MaxWorkers:   getIntFlag(statusWorkers, config.Poller.MaxWorkers),
		JobQueueSize: config.Poller.JobQueueSize,
		Attempts:     getIntFlag(statusAttempts, config.Poller.Attempts),
		Interval:     config.Poller.Interval,
	}
	if statusInterval > 0 {
		pollerConfig.Interval = statusInterval
	}
	if pollerConfig.MaxWorkers > len(args) {
		pollerConfig.MaxWorkers = len(args)
	}

	p := poller.New(client, pollerConfig, logger.LoggerWrapper())
	defer p.Shutdown()

	results, err := p.PollAll(cmd.Context(), args)
	if err != nil {
		return err
	}

	failed := writeStatusTable(cmd.OutOrStdout(), results)
	if failed > 0 {
		return fmt.Errorf("%d of %d status requests failed", failed, len(results))
	}
	return nil
}

func writeStatusTable(w io.Writer, results []poller.Result) int {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "REFERENCE\tCODE\tRESULT\tORDER\tGROSS\tNET\tMODE\tCAPTURED")

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			errType, _ := myfatoorah.ErrorTypeOf(r.Err)
			fmt.Fprintf(tw, "%s\t%s\t%v\t\t\t\t\t\n", r.ReferenceID, errType, r.Err)
			continue
		}

		s := r.Status
		gross, net := "", ""
		if s.IsSuccess() {
			gross = s.GrossAmountPaid.StringFixed(3)
			net = s.NetAmountToBeDeposited.StringFixed(3)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%t\n",
			r.ReferenceID, s.ResponseCode, s.CaptureResult, s.OrderID, gross, net, s.PayMode, s.IsCaptured())
	}
	return failed
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}
