package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"media-translator/internal/domain"
)

var languagesJSON bool

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List transcription and translation languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLanguages(cmd.OutOrStdout(), domain.Languages(), languagesJSON)
	},
}

func init() {
	languagesCmd.Flags().BoolVar(&languagesJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(languagesCmd)
}

func printLanguages(out io.Writer, catalog domain.LanguageCatalog, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRANSCRIPTION\tCODE")
	for _, lang := range catalog.Transcription {
		fmt.Fprintf(tw, "%s\t%s%s\n", lang.Name, lang.Code, defaultMark(lang.Code, catalog.DefaultTranscription))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "TRANSLATION\tCODE")
	for _, lang := range catalog.Translation {
		fmt.Fprintf(tw, "%s\t%s%s\n", lang.Name, lang.Code, defaultMark(lang.Code, catalog.DefaultTranslation))
	}
	return tw.Flush()
}

func defaultMark(code, def string) string {
	if code == def {
		return " (default)"
	}
	return ""
}
