// Command iso8583dump reads a raw ISO 8583 message and a YAML field-table
// file, parses the message against that table, and logs the decoded
// fields as structured output.
//
// Usage:
//
//	iso8583dump --spec fields.yaml --message msg.bin
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/lattice8583/iso8583/pkg/core"
	"github.com/lattice8583/iso8583/pkg/specyaml"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "iso8583dump: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("iso8583dump", flag.ContinueOnError)
	specPath := fs.String("spec", "", "path to YAML field-table file (required)")
	msgPath := fs.String("message", "", "path to raw ISO 8583 message file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *specPath == "" || *msgPath == "" {
		return fmt.Errorf("--spec and --message are both required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ms, err := specyaml.Load(*specPath)
	if err != nil {
		return fmt.Errorf("loading field table: %w", err)
	}

	raw, err := os.ReadFile(*msgPath)
	if err != nil {
		return fmt.Errorf("reading message file: %w", err)
	}

	msg := core.NewMessage(raw, ms)
	if err := msg.Parse(); err != nil {
		return fmt.Errorf("parsing message: %w", err)
	}

	logger.Info("decoded message", slog.Any("msg", msg))
	return nil
}
