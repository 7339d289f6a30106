package main

import (
	"os"

	"media-translator/cmd/translator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
