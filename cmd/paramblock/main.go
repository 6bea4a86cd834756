// Command paramblock writes schemas for the sample widget family and
// converts and validates widget documents between markup, JSON, YAML and
// HCL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/reoring/paramblock"
	"github.com/reoring/paramblock/i18n"
	"github.com/reoring/paramblock/internal/config"
	"github.com/reoring/paramblock/internal/ctxlog"
	_ "github.com/reoring/paramblock/source"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitError ends the process with code after printing msg.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func usageError(format string, a ...any) error {
	return &exitError{code: 2, msg: fmt.Sprintf(format, a...)}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		usage(stderr)
		return &exitError{code: 2}
	}
	switch args[0] {
	case "schema":
		return schemaCmd(ctx, args[1:], stdout, stderr)
	case "convert":
		return convertCmd(ctx, args[1:], stdin, stdout, stderr)
	case "validate":
		return validateCmd(ctx, args[1:], stdin, stdout, stderr)
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return nil
	}
	usage(stderr)
	return usageError("unknown command %q", args[0])
}

func usage(w io.Writer) {
	fmt.Fprint(w, `paramblock - widget parameter blocks in markup, JSON, YAML and HCL

Usage:
  paramblock schema   [-format xsd|xui|rng|json] [-type NAME] [-namespace NS] [-o FILE | -dir DIR]
  paramblock convert  [-type NAME] [-from FORMAT] [-to xml|json|yaml] [-stream] [-strict] [-o FILE] [INPUT]
  paramblock validate [-type NAME] [-from FORMAT] [-stream] [INPUT]

INPUT defaults to standard input. FORMAT is xml, json, yaml or hcl and is
guessed from the file extension when omitted.

Every command also accepts -config, -log-level, -log-format, -lang and -v.
`)
}

// common holds the flags every subcommand accepts.
type common struct {
	configPath string
	logLevel   string
	logFormat  string
	lang       string
	verbose    bool

	cfg    config.File
	logger *slog.Logger
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to an HCL config file (default "+config.DefaultPath+" when present).")
	fs.StringVar(&c.logLevel, "log-level", "", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	fs.StringVar(&c.logFormat, "log-format", "", "Log output format: 'text' or 'json'.")
	fs.StringVar(&c.lang, "lang", "en", "Language of issue messages: 'en' or 'ja'.")
	fs.BoolVar(&c.verbose, "v", false, "Log skipped content at debug level.")
}

// setup loads the config file, applies the flags that were set on top of
// it, and returns a context carrying the resulting logger.
func (c *common) setup(ctx context.Context, fs *flag.FlagSet, stderr io.Writer) (context.Context, error) {
	boot := newLogger("warn", "text", stderr)
	cfg, err := config.Load(ctxlog.WithLogger(ctx, boot), c.configPath)
	if err != nil {
		return ctx, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = c.logLevel
		case "log-format":
			cfg.LogFormat = c.logFormat
		case "v":
			cfg.Verbose = c.verbose
		}
	})
	level := strings.ToLower(cfg.LogLevel)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return ctx, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	format := strings.ToLower(cfg.LogFormat)
	if format != "text" && format != "json" {
		return ctx, usageError("invalid log-format: must be 'text' or 'json'")
	}
	i18n.SetLanguage(c.lang)
	c.cfg = cfg
	c.logger = newLogger(level, format, stderr)
	c.logger.Debug("Logger configured.", "level", level, "format", format)
	return ctxlog.WithLogger(ctx, c.logger), nil
}

// parseOpt returns the parser options for this invocation.
func (c *common) parseOpt() paramblock.ParseOpt {
	return c.cfg.ParseOpt(c.logger)
}

// newLogger returns a logger writing to w. Unknown levels mean info.
func newLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseFlags parses args into fs, treating -h as a clean exit.
func parseFlags(fs *flag.FlagSet, args []string) (help bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, &exitError{code: 2, msg: err.Error()}
	}
	return false, nil
}
