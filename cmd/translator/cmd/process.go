package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"media-translator/internal/domain"
	"media-translator/internal/jobs"
)

var processOpts struct {
	kind         string
	input        string
	from         string
	to           string
	outputDir    string
	chunkMs      int
	showCommands bool
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one input through transcription, translation, and PDF export",
	Long: `Runs one audio, video, document, or microphone input through the pipeline.

Progress lines are printed as they happen. The command exits non-zero when
no PDF was produced.

Examples:
  translator process --kind video --input talk.mp4 --to ta
  translator process --kind document --input notes.docx --to hi
  translator process --kind microphone --to bn`,
	RunE: runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringVarP(&processOpts.kind, "kind", "k", "", "input kind: audio, video, document, microphone")
	f.StringVarP(&processOpts.input, "input", "i", "", "input file (optional for microphone)")
	f.StringVar(&processOpts.from, "from", "", "transcription language code or name")
	f.StringVar(&processOpts.to, "to", "", "translation language code or name")
	f.StringVarP(&processOpts.outputDir, "output-dir", "o", "", "directory for transcript.txt and the PDF")
	f.IntVar(&processOpts.chunkMs, "chunk-ms", 0, "audio chunk length in milliseconds")
	f.BoolVar(&processOpts.showCommands, "show-commands", false, "print external commands as they finish")
	_ = processCmd.MarkFlagRequired("kind")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	kind, ok := domain.ParseInputKind(processOpts.kind)
	if !ok {
		return fmt.Errorf("unsupported input kind %q", processOpts.kind)
	}
	if kind != domain.InputKindMicrophone && strings.TrimSpace(processOpts.input) == "" {
		return fmt.Errorf("--input is required for %s", kind)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := loadServices(ctx)
	if err != nil {
		printError("load services", err)
		return err
	}
	defer func() { _ = svc.Logger.Sync() }()

	settings := loadSettings()
	if processOpts.outputDir != "" {
		settings.OutputDir = processOpts.outputDir
	}
	if processOpts.chunkMs > 0 {
		settings.ChunkLengthMs = processOpts.chunkMs
	}
	svc.ApplySettings(settings)

	input := domain.InputSpec{
		Kind:                  kind,
		Path:                  processOpts.input,
		TranscriptionLanguage: processOpts.from,
		TranslationLanguage:   processOpts.to,
	}
	return processInput(ctx, cmd.OutOrStdout(), svc.Runner, input, settings, processOpts.showCommands)
}

// processInput runs one job in the foreground and streams its events to out.
func processInput(ctx context.Context, out io.Writer, runner *jobs.Runner, input domain.InputSpec, settings domain.Settings, showCommands bool) error {
	unsubscribe := runner.Events().Subscribe(func(event jobs.Event) {
		printEvent(out, event, showCommands)
	})
	defer unsubscribe()

	job, result, err := runner.Process(ctx, input, settings)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("job %s cancelled", job.ID)
		}
		return err
	}

	fmt.Fprintln(out)
	if result.TranscriptPath != "" {
		fmt.Fprintf(out, "Transcript: %s\n", result.TranscriptPath)
	}
	if result.PDFPath == "" {
		return fmt.Errorf("job %s %s: no PDF was produced", job.ID, job.Status)
	}
	fmt.Fprintf(out, "PDF:        %s\n", result.PDFPath)
	return nil
}

func printEvent(out io.Writer, event jobs.Event, showCommands bool) {
	switch event.Type {
	case jobs.EventTypeStatus:
		fmt.Fprintf(out, "[%s] %s\n", event.Status, event.Message)
	case jobs.EventTypeLog:
		fmt.Fprintf(out, "  %s\n", event.Message)
	case jobs.EventTypeError:
		fmt.Fprintf(out, "  ! %s\n", event.Message)
		if event.Stderr != "" {
			fmt.Fprintf(out, "    %s\n", strings.TrimSpace(event.Stderr))
		}
	case jobs.EventTypeCommand:
		if showCommands {
			fmt.Fprintf(out, "  $ %s %s (exit %d)\n", event.Command, strings.Join(event.Args, " "), event.ExitCode)
		}
	}
}
