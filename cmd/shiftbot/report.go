package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/workshift/shift-tracker/internal/core/domain"
	"github.com/workshift/shift-tracker/internal/core/ports"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the XLSX shift report to a file",
	Long: `Builds the same report the /export bot command sends. Without --out the
file is written to the current directory under its generated name.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return writeExport(cmd, a.service, exportOut, cmd.OutOrStdout())
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-user shift statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return writeStats(cmd, a.service, cmd.OutOrStdout())
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: generated name)")
}

func writeExport(cmd *cobra.Command, svc ports.ShiftService, out string, w io.Writer) error {
	rep, err := svc.Export(cmd.Context())
	if errors.Is(err, domain.ErrNothingToExport) {
		_, err = fmt.Fprintln(w, "no shift data")
		return err
	}
	if err != nil {
		return err
	}

	if out == "" {
		out = rep.Filename
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, rep.Content, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	_, err = fmt.Fprintf(w, "wrote %d records to %s\n", rep.Rows, out)
	return err
}

func writeStats(cmd *cobra.Command, svc ports.ShiftService, w io.Writer) error {
	stats, err := svc.Statistics(cmd.Context())
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		_, err = fmt.Fprintln(w, "no shift data")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER ID\tNAME\tSHIFTS\tACTIVE\tHOURS")
	for _, s := range stats {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.2f\n", s.UserID, s.UserName, s.ShiftCount, s.ActiveCount, s.TotalHours)
	}
	return tw.Flush()
}
