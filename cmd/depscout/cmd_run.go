package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ochairo/depscout/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/depscout/internal/domain-orchestrators"
	"github.com/ochairo/depscout/internal/domain/entities"
	"github.com/ochairo/depscout/internal/domain/interfaces"
	ports "github.com/ochairo/depscout/internal/domain/interfaces/gateways"
	"github.com/ochairo/depscout/internal/domain/services"
)

func runDetect(ctx context.Context, args []string) {
	fs := pflag.NewFlagSet("run", pflag.ExitOnError)
	var (
		common commonFlags
		rate   = fs.Float64("rate", 0, "Archives inspected per second (default 10)")
		burst  = fs.Int("burst", 0, "Rate limiter burst (default 1)")
		poll   = fs.Duration("poll", 0, "Queue poll interval (default 100ms)")
		format = fs.String("format", "json", "Event output: json (stdout), log (stderr) or cyclonedx (stdout, on exit)")
	)
	common.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: depscout run [options] < locations

Reads one code-source location per line from stdin, as a class-loading
hook would report them, and emits one dependency-detected event per
distinct archive.

Accepted locations:
  /opt/app/lib/guava-32.1.2-jre.jar
  file:/opt/app/lib/guava-32.1.2-jre.jar
  jar:file:/opt/app/app.war!/WEB-INF/lib/guava-32.1.2-jre.jar!/

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	cfg, err := common.loadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if fs.Changed("rate") {
		cfg.RateLimit = *rate
	}
	if fs.Changed("burst") {
		cfg.Burst = *burst
	}
	if fs.Changed("poll") {
		cfg.PollInterval = *poll
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := executeDetect(ctx, cfg, *format, common.devLogs, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func executeDetect(ctx context.Context, cfg entities.DetectionConfig, format string, devLogs bool, in io.Reader, out io.Writer) error {
	logger, err := newLogger(cfg, devLogs)
	if err != nil {
		return err
	}
	//nolint:errcheck // stderr sync errors are not actionable
	defer logger.Sync()

	sink, flush, err := newSink(format, out, logger)
	if err != nil {
		return err
	}

	inspector, err := buildInspector(cfg, logger)
	if err != nil {
		return err
	}

	engine, err := orchestrators.NewDetectionEngine(
		services.NewLocationResolver(),
		services.NewDetectionQueue(),
		inspector,
		logger,
		cfg,
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(ctx, sink); err != nil {
		return fmt.Errorf("failed to start detection engine: %w", err)
	}

	eof := make(chan error, 1)
	go func() {
		eof <- feedLocations(in, engine.Handle)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case readErr := <-eof:
		if readErr != nil {
			logger.Warn("stopped reading locations", interfaces.Err(readErr))
		}
		if err := engine.WaitIdle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("detection did not finish", interfaces.Err(err))
		}
	}

	if err := engine.Stop(stopTimeoutOrDefault(cfg.StopTimeout)); err != nil {
		return err
	}

	if err := flush(); err != nil {
		return err
	}

	stats := engine.Stats()
	logger.Info("detection summary",
		interfaces.F("offered", stats.Offered),
		interfaces.F("emitted", stats.Emitted),
		interfaces.F("skipped", stats.Skipped),
		interfaces.F("failed", stats.Failed),
	)
	return nil
}

// feedLocations calls handle for every non-empty line of in
func feedLocations(in io.Reader, handle func(string)) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			handle(line)
		}
	}
	return scanner.Err()
}

// newSink returns the sink for format and a flush func run once the engine has stopped
func newSink(format string, out io.Writer, logger interfaces.Logger) (ports.EventSink, func() error, error) {
	noFlush := func() error { return nil }
	switch format {
	case "json":
		return gateways.NewJSONLinesSink(out), noFlush, nil
	case "log":
		return gateways.NewLogSink(logger), noFlush, nil
	case "cyclonedx":
		sink := gateways.NewSBOMSink()
		return sink, func() error { return sink.Flush(out) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown format %q (want json, log or cyclonedx)", format)
	}
}

// stopTimeoutOrDefault keeps Stop bounded even with a zero timeout configured
func stopTimeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return entities.DefaultDetectionConfig().StopTimeout
	}
	return d
}
