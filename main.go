package main

import (
	"embed"
	"fmt"
	"os"

	"media-translator/internal/bootstrap"
)

// frontend holds the desktop UI served by the Wails asset server.
//
//go:embed frontend/index.html
var frontend embed.FS

func main() {
	app, err := bootstrap.NewWithAssets(frontend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "media-translator: start: %v\n", err)
		os.Exit(1)
	}
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "media-translator: %v\n", err)
		os.Exit(1)
	}
}
