package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	"github.com/dalemusser/roomdesk/internal/app/system/csvutil"
	"github.com/dalemusser/roomdesk/internal/app/system/xlsxexport"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"github.com/spf13/cobra"
)

var (
	historyStart string
	historyEnd   string
	exportFormat string
	exportOut    string
	importDryRun bool
)

var closeDayCmd = &cobra.Command{
	Use:   "close-day",
	Short: "Snapshot every room as today's closure",
	Long: `Reads the stored room set and saves it as today's closure record.
Running it again on the same day replaces that day's record.`,
	Args: cobra.NoArgs,
	RunE: runCloseDay,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List closures in a date range",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var exportCmd = &cobra.Command{
	Use:   "export [date]",
	Short: "Export a closure (or the live rooms when no date is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Replace every room from a CSV file",
	Long: `Parses number,type[,grade] lines. Any bad line rejects the whole file
and nothing is written. Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var fixTypesCmd = &cobra.Command{
	Use:   "fix-types",
	Short: "Rewrite legacy room type codes in the store",
	Args:  cobra.NoArgs,
	RunE:  runFixTypes,
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print the room import template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), csvutil.ImportTemplate)
		return err
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyStart, "start", "", "First date (YYYY-MM-DD); default 30 days ago")
	historyCmd.Flags().StringVar(&historyEnd, "end", "", "Last date (YYYY-MM-DD); default today")

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Output format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Output file (default stdout for csv, the standard file name for xlsx)")

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Parse and report without writing")
}

func runCloseDay(cmd *cobra.Command, args []string) error {
	return withDesk(cmd, func(ctx context.Context, d *desk.Controller) error {
		res, err := d.Close(ctx)
		if err != nil {
			return err
		}
		s := res.Summary
		fmt.Fprintf(cmd.OutOrStdout(), "closed %s: %d rooms, %d occupied, %d available, %d ungraded\n",
			s.Date, s.Total, s.Occupied, s.Available, s.Ungraded)
		if res.ArchivedAt != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "archived to %s\n", res.ArchivedAt)
		}
		return nil
	})
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withDesk(cmd, func(ctx context.Context, d *desk.Controller) error {
		start, end := d.DefaultHistoryRange()
		if historyStart != "" {
			start = historyStart
		}
		if historyEnd != "" {
			end = historyEnd
		}
		records, err := d.History(ctx, start, end)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintf(out, "no closures between %s and %s\n", start, end)
			return nil
		}
		fmt.Fprintf(out, "%-10s  %5s  %8s  %9s  %8s\n", "DATE", "ROOMS", "OCCUPIED", "AVAILABLE", "UNGRADED")
		for _, rec := range records {
			s := rec.Summary()
			fmt.Fprintf(out, "%-10s  %5d  %8d  %9d  %8d\n", s.Date, s.Total, s.Occupied, s.Available, s.Ungraded)
		}
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(exportFormat)
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("unknown format %q", exportFormat)
	}

	return withDesk(cmd, func(ctx context.Context, d *desk.Controller) error {
		date := d.Today()
		var rooms []models.Room
		if len(args) == 1 {
			rec, err := d.Closure(ctx, args[0])
			if err != nil {
				return err
			}
			date, rooms = rec.Date, rec.Rooms
		} else {
			rooms = d.Rooms().Rooms
		}
		models.SortRooms(rooms)

		if format == "csv" {
			w, closeOut, err := output(cmd, exportOut)
			if err != nil {
				return err
			}
			defer closeOut()
			if err := csvutil.WriteRooms(w, rooms); err != nil {
				return err
			}
			_, err = fmt.Fprintln(w)
			return err
		}

		data, err := xlsxexport.RoomsWorkbook(date, rooms)
		if err != nil {
			return err
		}
		path := exportOut
		if path == "" {
			path = xlsxexport.Filename(date)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rooms)\n", path, len(rooms))
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	in, closeIn, err := input(cmd, args[0])
	if err != nil {
		return err
	}
	defer closeIn()

	return withDesk(cmd, func(ctx context.Context, d *desk.Controller) error {
		out := cmd.OutOrStdout()
		if importDryRun {
			res, err := d.PreviewUpload(in)
			if err != nil {
				return err
			}
			for _, msg := range res.Messages() {
				fmt.Fprintln(out, msg)
			}
			if res.HasErrors() {
				return fmt.Errorf("%d lines rejected", len(res.Errors))
			}
			fmt.Fprintf(out, "ok: %d rooms would be loaded\n", len(res.Rooms))
			return nil
		}

		res, err := d.Upload(ctx, in)
		if err != nil {
			if res.Parse != nil {
				for _, msg := range res.Parse.Messages() {
					fmt.Fprintln(out, msg)
				}
			}
			return err
		}
		fmt.Fprintf(out, "loaded %d rooms\n", len(res.Snapshot.Rooms))
		return nil
	})
}

func runFixTypes(cmd *cobra.Command, args []string) error {
	return withDesk(cmd, func(ctx context.Context, d *desk.Controller) error {
		n, err := d.FixRoomTypes(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "fixed %d rooms\n", n)
		return nil
	})
}

func output(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func input(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
