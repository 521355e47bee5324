package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/finhub-tools/invoice-qc/internal/common"
	"github.com/finhub-tools/invoice-qc/internal/entity"
	"github.com/finhub-tools/invoice-qc/internal/export"
	"github.com/finhub-tools/invoice-qc/internal/extract"
	"github.com/finhub-tools/invoice-qc/internal/repository"
	"github.com/finhub-tools/invoice-qc/internal/schema"
	"github.com/finhub-tools/invoice-qc/internal/server"
	"github.com/finhub-tools/invoice-qc/internal/validate"
)

// exitInvalid is returned by validate/full-run when the batch contains at
// least one invalid invoice, so scripted pipelines can gate on it.
const exitInvalid = 2

func main() {
	app := &cli.App{
		Name:  "invoiceqc",
		Usage: "extract and validate invoice batches",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json-logs", Usage: "emit JSON logs instead of text"},
		},
		Commands: []*cli.Command{
			extractCommand(),
			validateCommand(),
			fullRunCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			// urfave prints the message; keep the code.
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if c.Bool("json-logs") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "extract structured records from invoice text files in a directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text-dir", Required: true, Usage: "directory containing invoice .txt files"},
			&cli.StringFlag{Name: "output", Value: "output/extracted.json", Usage: "path to write extracted records as JSON"},
		},
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			extractor := extract.NewExtractor(logger)

			records, stats, err := extractor.ExtractDirectory(c.String("text-dir"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if err := writeJSONFile(c.String("output"), records); err != nil {
				return cli.Exit(err.Error(), 1)
			}

			fmt.Printf("Extracted %d invoices to %s\n", len(records), c.String("output"))
			fmt.Printf("- Files scanned: %d\n", stats.Scanned)
			fmt.Printf("- Files matched: %d\n", stats.Matched)
			fmt.Printf("- Records with an invoice number: %d\n", stats.Extracted)
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "validate extracted invoice JSON and write a report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Value: "output/extracted.json", Usage: "JSON file containing extracted invoices"},
			&cli.StringFlag{Name: "report", Value: "output/validation_report.json", Usage: "path to write the validation report as JSON"},
			&cli.StringFlag{Name: "xlsx", Usage: "optional path to also write the report as XLSX"},
		},
		Action: func(c *cli.Context) error {
			logger := newLogger(c)

			data, err := os.ReadFile(c.String("input"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("input JSON not found: %s", c.String("input")), 1)
			}
			records, err := schema.DecodeBatch(data)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			report := validate.ValidateBatch(records)
			return finishRun(c, logger, report)
		},
	}
}

func fullRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "full-run",
		Usage: "extract and validate in a single command",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text-dir", Required: true, Usage: "directory containing invoice .txt files"},
			&cli.StringFlag{Name: "output", Value: "output/extracted.json", Usage: "path to write the intermediate extracted records"},
			&cli.StringFlag{Name: "report", Value: "output/validation_report.json", Usage: "path to write the validation report as JSON"},
			&cli.StringFlag{Name: "xlsx", Usage: "optional path to also write the report as XLSX"},
		},
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			extractor := extract.NewExtractor(logger)

			records, _, err := extractor.ExtractDirectory(c.String("text-dir"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if err := writeJSONFile(c.String("output"), records); err != nil {
				return cli.Exit(err.Error(), 1)
			}

			report := validate.ValidateBatch(records)
			return finishRun(c, logger, report)
		},
	}
}

// finishRun writes the report (JSON, optionally XLSX), echoes the summary
// and sets the exit code contract shared by validate and full-run.
func finishRun(c *cli.Context, logger *slog.Logger, report *entity.BatchReport) error {
	if err := writeJSONFile(c.String("report"), report); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if path := c.String("xlsx"); path != "" {
		data, err := export.NewService(logger).ReportXLSX(report)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		if err := writeFile(path, data); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	summary := report.Summary
	fmt.Printf("Total invoices: %d\n", summary.TotalInvoices)
	fmt.Printf("Valid invoices: %d\n", summary.ValidCount)
	fmt.Printf("Invalid invoices: %d\n", summary.InvalidCount)
	fmt.Printf("Top errors: %s\n", formatTopErrors(summary.TopErrorCategories))

	if summary.InvalidCount > 0 {
		return cli.Exit("", exitInvalid)
	}
	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the validation HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (overrides HTTP_ADDR)"},
		},
		Action: func(c *cli.Context) error {
			logger := newLogger(c)

			cfg, err := common.LoadConfig()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if addr := c.String("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			db, err := repository.Open(ctx, repository.Config{
				Driver:          cfg.Database.Driver,
				DSN:             cfg.Database.DSN,
				MaxConns:        cfg.Database.MaxConns,
				MinConns:        cfg.Database.MinConns,
				MaxConnLifetime: cfg.Database.MaxConnLifetime,
				MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
				DialTimeout:     cfg.Database.DialTimeout,
			}, logger)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer db.Close(logger)

			if err := db.HealthCheck(ctx, cfg.Database.DialTimeout); err != nil {
				return cli.Exit(fmt.Sprintf("database health check failed: %v", err), 1)
			}
			if err := db.Migrate(ctx); err != nil {
				return cli.Exit(err.Error(), 1)
			}

			handler := server.NewHandler(
				extract.NewExtractor(logger),
				export.NewService(logger),
				repository.NewRunRepository(db, logger),
				logger,
			)
			srv := server.New(cfg.Server, logger)
			if err := srv.Run(ctx, handler.Routes()); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

func formatTopErrors(categories []entity.RuleCount) string {
	if len(categories) == 0 {
		return "None"
	}
	parts := make([]string, 0, len(categories))
	for _, cat := range categories {
		parts = append(parts, string(cat.RuleID))
	}
	return strings.Join(parts, ", ")
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
