package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/pflag"

	"github.com/ochairo/depscout/internal/domain/entities"
	"github.com/ochairo/depscout/internal/domain/services"
)

func runInspect(ctx context.Context, args []string) {
	fs := pflag.NewFlagSet("inspect", pflag.ExitOnError)
	var (
		common  commonFlags
		archive = fs.StringP("archive", "a", "", "Archive location (path, file: or jar: URL)")
	)
	common.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: depscout inspect --archive <location> [options]

Resolve and inspect one archive synchronously and print the attributes
its dependency-detected event would carry.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  depscout inspect --archive ~/.m2/repository/org/slf4j/slf4j-api/2.0.9/slf4j-api-2.0.9.jar
  depscout inspect --archive 'jar:file:/srv/app.war!/WEB-INF/lib/jackson-core-2.15.2.jar!/' --algorithms SHA-256
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if *archive == "" {
		fmt.Fprintf(os.Stderr, "Error: --archive is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := common.loadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := executeInspect(ctx, cfg, *archive, common.devLogs, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func executeInspect(ctx context.Context, cfg entities.DetectionConfig, raw string, devLogs bool, out io.Writer) error {
	logger, err := newLogger(cfg, devLogs)
	if err != nil {
		return err
	}
	//nolint:errcheck // stderr sync errors are not actionable
	defer logger.Sync()

	loc, err := services.NewLocationResolver().Resolve(raw)
	if err != nil {
		return fmt.Errorf("cannot inspect %s: %w", raw, err)
	}

	inspector, err := buildInspector(cfg, logger)
	if err != nil {
		return err
	}
	//nolint:errcheck // read-only handles
	defer inspector.Close()

	md, err := inspector.Inspect(ctx, loc)
	if err != nil {
		return err
	}

	event := services.BuildDetectionEvent(loc, md, "")
	printAttributes(out, event)
	return nil
}

func printAttributes(out io.Writer, event entities.DetectionEvent) {
	keys := make([]string, 0, len(event.Attributes))
	for k := range event.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(out, "%s\n", event.Name)
	for _, k := range keys {
		fmt.Fprintf(out, "  %-32s %s\n", k, event.Attributes[k])
	}
}
