// Package config loads the optional paramblock.hcl file that supplies
// defaults to the command line tool. Flags given on the command line
// override it.
//
//	log_level  = "debug"
//	log_format = "json"
//	namespace  = "urn:example:widgets"
//
//	limits {
//	  max_depth      = 64
//	  duplicate_keys = "error"
//	}
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/reoring/paramblock"
	"github.com/reoring/paramblock/internal/ctxlog"
)

// DefaultPath is the file Load reads when given an empty path.
const DefaultPath = "paramblock.hcl"

// File is the decoded configuration file.
type File struct {
	LogLevel  string  `hcl:"log_level,optional"`
	LogFormat string  `hcl:"log_format,optional"`
	Namespace string  `hcl:"namespace,optional"`
	Verbose   bool    `hcl:"verbose,optional"`
	Limits    *Limits `hcl:"limits,block"`
}

// Limits configures enforcement for structured token input.
type Limits struct {
	MaxDepth      int    `hcl:"max_depth,optional"`
	MaxBytes      int64  `hcl:"max_bytes,optional"`
	DuplicateKeys string `hcl:"duplicate_keys,optional"`
	FailFast      bool   `hcl:"fail_fast,optional"`
}

// Default returns the configuration used when no file exists.
func Default() File {
	return File{LogLevel: "info", LogFormat: "text"}
}

// Load reads path, or DefaultPath when path is empty. A missing DefaultPath
// is not an error; a missing explicit path is.
func Load(ctx context.Context, path string) (File, error) {
	logger := ctxlog.FromContext(ctx)
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		logger.Debug("No config file, using defaults.", "path", path)
		return Default(), nil
	}
	if err != nil {
		return File{}, fmt.Errorf("config: %w", err)
	}
	f, err := Parse(src, path)
	if err != nil {
		return File{}, err
	}
	logger.Debug("Config file loaded.", "path", path)
	return f, nil
}

// Parse decodes src, naming it filename in diagnostics. Unset fields keep
// their Default values.
func Parse(src []byte, filename string) (File, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return File{}, fmt.Errorf("config: failed to parse %s: %w", filename, diags)
	}
	f := Default()
	if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
		return File{}, fmt.Errorf("config: failed to decode %s: %w", filename, diags)
	}
	if err := f.check(); err != nil {
		return File{}, fmt.Errorf("config: %s: %w", filename, err)
	}
	return f, nil
}

func (f File) check() error {
	switch strings.ToLower(f.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be 'debug', 'info', 'warn', or 'error'", f.LogLevel)
	}
	switch strings.ToLower(f.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", f.LogFormat)
	}
	if f.Limits != nil {
		if _, err := severity(f.Limits.DuplicateKeys); err != nil {
			return err
		}
	}
	return nil
}

func severity(s string) (paramblock.Severity, error) {
	switch strings.ToLower(s) {
	case "", "warn":
		return paramblock.Warn, nil
	case "ignore":
		return paramblock.Ignore, nil
	case "error":
		return paramblock.Error, nil
	}
	return 0, fmt.Errorf("invalid duplicate_keys %q: must be 'warn', 'ignore', or 'error'", s)
}

// ParseOpt returns the parser options the file describes, logging through
// logger.
func (f File) ParseOpt(logger *slog.Logger) paramblock.ParseOpt {
	opt := paramblock.ParseOpt{Verbose: f.Verbose, Logger: logger}
	if l := f.Limits; l != nil {
		opt.MaxDepth = l.MaxDepth
		opt.MaxBytes = l.MaxBytes
		opt.FailFast = l.FailFast
		opt.Strictness.OnDuplicateKey, _ = severity(l.DuplicateKeys)
	}
	return opt
}
