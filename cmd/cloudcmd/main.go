// Command cloudcmd encodes, decodes, sends and receives cloud commands, and
// analyzes protocol log captures.
//
// Usage:
//
//	cloudcmd [global flags] <command> [flags] [args]
//
// Commands:
//
//	encode   Encode YAML command documents to CBOR
//	decode   Decode CBOR commands and print them
//	tags     Show the tag table
//	serve    Accept streams and print every received command
//	send     Send YAML command documents to a server
//	shell    Interactive codec console
//	log      Inspect protocol log captures (view, stats, export, filter)
//
// Examples:
//
//	# Encode a Wi-Fi configuration
//	cloudcmd encode wifi.yaml
//
//	# Decode a hex capture
//	cloudcmd decode da0001050080
//
//	# Receive commands, capturing every protocol event
//	cloudcmd --protocol-log server.clog serve --listen :7050
//
//	# Show statistics about a capture
//	cloudcmd log stats server.clog
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/cloudcmd-protocol/cloudcmd-go/cmd/cloudcmd/commands"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/config"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/inspect"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/log"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/metrics"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/transport"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/version"
)

const usage = `cloudcmd - Cloud Command Codec Tool

Usage:
  cloudcmd [global flags] <command> [flags] [args]

Commands:
  encode   Encode YAML command documents to CBOR
  decode   Decode CBOR commands and print them
  tags     Show the tag table
  serve    Accept streams and print every received command
  send     Send YAML command documents to a server
  shell    Interactive codec console
  log      Inspect protocol log captures (view, stats, export, filter)

Global flags:
`

// env is the state shared by all commands.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	protocol log.Logger
	observer transport.Observer
	closers  []io.Closer
	verbose  bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("cloudcmd", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	configPath := fs.StringP("config", "c", "", "Configuration file (.yaml or .toml)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	metricsListen := fs.String("metrics-listen", "", "Serve Prometheus metrics on this address")
	protocolLog := fs.String("protocol-log", "", "Capture protocol events to this file ("+log.FileExtension+", "+log.FileExtension+log.CompressedSuffix+" for zstd)")
	verbose := fs.BoolP("verbose", "v", false, "Also print protocol events to the operational log")
	showVersion := fs.Bool("version", false, "Print the library version")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if *showVersion {
		fmt.Println(version.Library)
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("command required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *metricsListen != "" {
		cfg.Metrics.Listen = *metricsListen
	}
	if *protocolLog != "" {
		cfg.Log.ProtocolFile = *protocolLog
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	e := &env{
		cfg:     cfg,
		logger:  slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		verbose: *verbose,
	}
	defer e.close()

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "encode":
		return runEncode(cmdArgs)
	case "decode":
		return runDecode(cmdArgs)
	case "tags":
		return commands.RunTags(inspect.NewFormatter(nil), os.Stdout)
	case "serve":
		return e.runServe(cmdArgs)
	case "send":
		return e.runSend(cmdArgs)
	case "shell":
		return commands.NewShell(nil).Run()
	case "log":
		return runLog(cmdArgs)
	case "help":
		fs.Usage()
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// setupStreams wires protocol logging and metrics for serve and send.
func (e *env) setupStreams() error {
	var loggers []log.Logger
	if path := e.cfg.Log.ProtocolFile; path != "" {
		fl, err := log.NewFileLogger(path)
		if err != nil {
			return fmt.Errorf("protocol log: %w", err)
		}
		e.closers = append(e.closers, fl)
		loggers = append(loggers, fl)
		e.logger.Info("capturing protocol events", "file", path)
	}
	if e.verbose {
		loggers = append(loggers, log.NewSlogAdapter(e.logger).WithLevel(slog.LevelInfo))
	}
	switch len(loggers) {
	case 0:
	case 1:
		e.protocol = loggers[0]
	default:
		e.protocol = log.NewMultiLogger(loggers...)
	}

	if addr := e.cfg.Metrics.Listen; addr != "" {
		collector := metrics.New()
		e.observer = collector
		go func() {
			if err := collector.Serve(addr); err != nil {
				e.logger.Error("metrics server stopped", "error", err)
			}
		}()
		e.logger.Info("serving metrics", "addr", addr)
	}
	return nil
}

func (e *env) close() {
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			e.logger.Warn("close failed", "error", err)
		}
	}
}

func newFlagSet(name, synopsis string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  cloudcmd %s\n\nFlags:\n", synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags parses args. help reports that usage was already printed.
func parseFlags(fs *pflag.FlagSet, args []string) (rest []string, help bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return fs.Args(), false, nil
}

func runEncode(args []string) error {
	fs := newFlagSet("encode", "encode [flags] <file.yaml|->")
	format := fs.StringP("format", "f", commands.FormatHex, "Output format (hex, bin)")
	output := fs.StringP("output", "o", "", "Output file (default stdout)")
	rest, help, err := parseFlags(fs, args)
	if err != nil || help {
		return err
	}
	if len(rest) != 1 {
		fs.Usage()
		return errors.New("one command document file required")
	}

	if *output == "" {
		return commands.RunEncode(rest[0], *format, os.Stdout)
	}
	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := commands.RunEncode(rest[0], *format, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runDecode(args []string) error {
	fs := newFlagSet("decode", "decode [flags] <hex|file|->")
	format := fs.StringP("format", "f", commands.FormatHex, "Input format (hex, bin)")
	showHex := fs.Bool("hex", false, "Append a hex dump of each command")
	noTags := fs.Bool("no-tags", false, "Omit tags from command headers")
	noClaims := fs.Bool("no-claims", false, "Do not decode provisioning JWT claims")
	rest, help, err := parseFlags(fs, args)
	if err != nil || help {
		return err
	}
	if len(rest) != 1 {
		fs.Usage()
		return errors.New("one input required")
	}

	f := inspect.NewFormatter(nil)
	f.ShowHex = *showHex
	f.ShowTags = !*noTags
	f.ShowClaims = !*noClaims
	return commands.RunDecode(rest[0], *format, f, os.Stdout)
}

func (e *env) runServe(args []string) error {
	fs := newFlagSet("serve", "serve [flags]")
	listen := fs.StringP("listen", "l", e.cfg.Server.Listen, "Listen address")
	quiet := fs.BoolP("quiet", "q", false, "Do not print received commands")
	_, help, err := parseFlags(fs, args)
	if err != nil || help {
		return err
	}
	if err := e.setupStreams(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := commands.ServeOptions{
		Listen:       *listen,
		MaxFrameSize: e.cfg.Transport.MaxFrameSize,
		Protocol:     e.protocol,
		Observer:     e.observer,
		Logger:       e.logger,
	}
	if !*quiet {
		opts.Output = os.Stdout
	}
	return commands.RunServe(ctx, opts)
}

func (e *env) runSend(args []string) error {
	fs := newFlagSet("send", "send [flags] <file.yaml>...")
	address := fs.StringP("address", "a", e.cfg.Client.Address, "Server address")
	timeout := fs.Duration("timeout", e.cfg.Client.ConnectTimeout, "Connect timeout")
	announce := fs.Bool("announce", false, "Send DeviceBegin with the library version first")
	rest, help, err := parseFlags(fs, args)
	if err != nil || help {
		return err
	}
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("at least one command document file required")
	}
	if err := e.setupStreams(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return commands.RunSend(ctx, rest, commands.SendOptions{
		Address:        *address,
		ConnectTimeout: *timeout,
		MaxFrameSize:   e.cfg.Transport.MaxFrameSize,
		Protocol:       e.protocol,
		Observer:       e.observer,
		Announce:       *announce,
	}, os.Stdout)
}

const logUsage = `Usage:
  cloudcmd log <view|stats|export|filter> [flags] <file` + log.FileExtension + `>
`

func runLog(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, logUsage)
		return errors.New("log command required")
	}

	sub, args := args[0], args[1:]
	fs := newFlagSet("log "+sub, "log "+sub+" [flags] <file"+log.FileExtension+">")
	var opts commands.FilterOptions
	fs.StringVar(&opts.ConnID, "conn-id", "", "Filter by connection ID")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Events at or after this time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Events before this time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, wire, dispatch)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (message, state, error)")
	fs.StringVar(&opts.Command, "command", "", "Filter by command name")

	var format, output *string
	switch sub {
	case "view", "stats":
	case "export":
		format = fs.StringP("format", "f", "jsonl", "Output format (jsonl, csv)")
		output = fs.StringP("output", "o", "", "Output file (default stdout)")
	case "filter":
		output = fs.StringP("output", "o", "", "Output capture file")
	default:
		fmt.Fprint(os.Stderr, logUsage)
		return fmt.Errorf("unknown log command: %s", sub)
	}

	rest, help, err := parseFlags(fs, args)
	if err != nil || help {
		return err
	}
	if len(rest) != 1 {
		fs.Usage()
		return errors.New("log file path required")
	}
	path := rest[0]

	switch sub {
	case "view":
		return commands.RunView(path, opts, os.Stdout)
	case "stats":
		return commands.RunStats(path, opts, os.Stdout)
	case "export":
		return commands.RunExport(path, *format, *output, opts)
	default:
		if *output == "" {
			fs.Usage()
			return errors.New("--output is required")
		}
		n, err := commands.RunFilter(path, *output, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d events to %s\n", n, *output)
		return nil
	}
}
