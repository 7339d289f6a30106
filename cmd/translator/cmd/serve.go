package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"media-translator/internal/web"
)

var serveOpts struct {
	addr      string
	outputDir string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser front end",
	Long: `Starts the HTTP server with the upload form, job API, and websocket event stream.

The listen address defaults to server.addr from the config file.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().StringVarP(&serveOpts.outputDir, "output-dir", "o", "", "directory for transcript.txt and the PDF")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := loadServices(ctx)
	if err != nil {
		printError("load services", err)
		return err
	}
	defer func() { _ = svc.Logger.Sync() }()

	serverCfg := svc.Config.Server
	if serveOpts.addr != "" {
		serverCfg.Addr = serveOpts.addr
	}
	settings := loadSettings()
	if serveOpts.outputDir != "" {
		settings.OutputDir = serveOpts.outputDir
	}
	svc.ApplySettings(settings)

	server := web.NewServer(web.Options{
		Config:   serverCfg,
		Settings: settings,
		Runner:   svc.Runner,
		Text:     svc.Pipeline,
		Diagnose: svc.Diagnose,
		Logger:   svc.Logger,
	})
	return server.ListenAndServe(ctx)
}
