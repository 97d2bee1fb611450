package cookiegen

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/helixml/cookiegen/api/pkg/client"
	"github.com/helixml/cookiegen/api/pkg/config"
	"github.com/helixml/cookiegen/api/pkg/types"
)

// newRunsCmd is the operator side of the controller: start a run, watch it
// and hand it an OTP.
func newRunsCmd() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage runs on a cookiegen controller.",
	}

	runsCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newControllerClient()
			if err != nil {
				return err
			}
			resp, err := c.StartRun(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.ID)
			return nil
		},
	})

	runsCmd.AddCommand(&cobra.Command{
		Use:   "status <run-id>",
		Short: "Show a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newControllerClient()
			if err != nil {
				return err
			}
			run, err := c.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printRun(cmd.OutOrStdout(), run, time.Now())
		},
	})

	runsCmd.AddCommand(&cobra.Command{
		Use:   "otp <run-id> <code>",
		Short: "Submit an OTP for a run waiting on one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newControllerClient()
			if err != nil {
				return err
			}
			return c.SubmitOtp(cmd.Context(), args[0], args[1])
		},
	})

	runsCmd.AddCommand(&cobra.Command{
		Use:   "cancel <run-id>",
		Short: "Cancel a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newControllerClient()
			if err != nil {
				return err
			}
			return c.CancelRun(cmd.Context(), args[0])
		},
	})

	return runsCmd
}

func newControllerClient() (client.Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return client.NewClient(cfg.Controller.URL, cfg.Controller.RetryMax, cfg.Controller.RequestTimeout), nil
}

func printRun(w io.Writer, run *types.Run, now time.Time) error {
	fmt.Fprintf(w, "id:      %s\n", run.ID)
	fmt.Fprintf(w, "status:  %s\n", run.Status)
	if run.Method != "" {
		fmt.Fprintf(w, "method:  %s\n", run.Method)
	}
	if run.ErrorType != "" {
		fmt.Fprintf(w, "error:   %s (%s)\n", run.ErrorType, run.Error)
	}
	if run.ShowOtpModal {
		fmt.Fprintf(w, "otp:     waiting (%d/%d retries)\n", run.OtpRetries, run.MaxOtpRetries)
	}
	fmt.Fprintf(w, "updated: %s\n\n", humanize.RelTime(run.Updated, now, "ago", "from now"))

	table := tablewriter.NewTable(w,
		tablewriter.WithRendition(tw.Rendition{Borders: tw.BorderNone}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
	table.Header("Time", "Message")
	for _, l := range run.Logs {
		if err := table.Append(l.Timestamp.Format(time.TimeOnly), l.Message); err != nil {
			return err
		}
	}
	return table.Render()
}
