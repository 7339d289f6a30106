package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"media-translator/internal/domain"
)

var errDiagnosticsFailed = errors.New("diagnostics reported failures")

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Check ffmpeg, service credentials, output directory, font, and microphone",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadServices(cmd.Context())
		if err != nil {
			printError("load services", err)
			return err
		}
		return printDiagnostics(cmd.OutOrStdout(), svc.Diagnose(loadSettings()))
	},
}

func init() {
	rootCmd.AddCommand(diagnosticsCmd)
}

func printDiagnostics(out io.Writer, report domain.DiagnosticReport) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, item := range report.Items {
		fmt.Fprintf(tw, "[%s]\t%s\t%s\n", item.Status, item.Name, item.Message)
		if item.Hint != "" && item.Status != domain.DiagnosticStatusPass {
			fmt.Fprintf(tw, "\t\thint: %s\n", item.Hint)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if n := len(report.Failed()); n > 0 {
		fmt.Fprintf(out, "%d of %d checks need attention\n", n, len(report.Items))
	}
	if report.HasFailures {
		return errDiagnosticsFailed
	}
	return nil
}
