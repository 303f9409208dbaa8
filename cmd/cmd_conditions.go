package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"riverwatch/internal/app"
	"riverwatch/internal/modules/conditions/service"
	"riverwatch/internal/modules/conditions/views"
)

// withService opens the store, builds the snapshot service and hands it to fn.
func withService(ctx context.Context, c *cli, fn func(*service.Service) error) error {
	dbConn, closeDB, err := app.OpenStore(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer closeDB()
	return fn(app.NewService(c.cfg, dbConn, nil, c.logger))
}

func newCurrentCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Fetch and print current conditions without storing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), c, func(svc *service.Service) error {
				reading, err := svc.FetchCurrent(cmd.Context())
				if err != nil {
					return fmt.Errorf("data fetch error: %w", err)
				}
				return printCurrent(cmd.OutOrStdout(), views.NewCurrentView(reading))
			})
		},
	}
}

func newSnapshotCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch current conditions and store them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), c, func(svc *service.Service) error {
				record, err := svc.FetchAndPersist(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Snapshot stored. id=%d\n", record.ID)
				return err
			})
		},
	}
}

func newHistoryCmd(c *cli) *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print stored snapshots from the last N hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("hours") {
				hours = c.cfg.HistoryHours
			}
			if hours <= 0 {
				return fmt.Errorf("--hours must be > 0")
			}
			return withService(cmd.Context(), c, func(svc *service.Service) error {
				records, err := svc.History(cmd.Context(), hours)
				if err != nil {
					return err
				}
				return printHistory(cmd.OutOrStdout(), views.NewHistoryView(hours, records))
			})
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "size of the history window in hours (default HISTORY_HOURS)")
	return cmd
}

func newInitCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the readings table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeDB, err := app.OpenStore(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			closeDB()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", c.cfg.SQLitePath)
			return err
		},
	}
}

func printCurrent(w io.Writer, v *views.CurrentView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, card := range v.Cards {
		fmt.Fprintf(tw, "%s\t%s %s\n", card.Label, card.Value, card.Unit)
	}
	fmt.Fprintf(tw, "Last updated (UTC)\t%s\n", v.UpdatedAt)
	return tw.Flush()
}

func printHistory(w io.Writer, v *views.HistoryView) error {
	if len(v.Records) == 0 {
		_, err := fmt.Fprintf(w, "%s: no stored data yet.\n", v.Label)
		return err
	}
	fmt.Fprintf(w, "%s (%d snapshots)\n", v.Label, len(v.Records))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "id\tts_utc\tgage_height_ft\twater_temp_c\tair_temp_c\twind_mph\t")
	for _, r := range v.Records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n", r.ID, r.Timestamp, r.GageHeightFt, r.WaterTempC, r.AirTempC, r.WindMph)
	}
	return tw.Flush()
}
