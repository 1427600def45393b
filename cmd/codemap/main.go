// Command codemap builds and queries a call graph over an
// ECMAScript-family source tree.
package main

import (
	"log/slog"
	"os"
)

var log = slog.New(slog.NewTextHandler(os.Stderr, nil))

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}
