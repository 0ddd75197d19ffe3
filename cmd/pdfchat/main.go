// Command pdfchat is the entry point for the PDF chat service.
// It provides a CLI interface (via Cobra) and an HTTP server exposing the
// upload/ask/delete document chat API.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/pdfchat-go/cmd/pdfchat/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
