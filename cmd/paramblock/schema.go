package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/paramblock/internal/ctxlog"
	"github.com/reoring/paramblock/internal/widgets"
	"github.com/reoring/paramblock/markup"
	"github.com/reoring/paramblock/schema"
)

var schemaExt = map[string]string{"xsd": ".xsd", "xui": ".xsd", "rng": ".rng", "json": ".schema.json"}

func schemaCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	format := fs.String("format", "xui", "Schema language: 'xsd', 'xui', 'rng' or 'json'.")
	typeName := fs.String("type", "panel", "Widget to describe.")
	namespace := fs.String("namespace", "", "Target namespace (default from config, then "+widgets.Namespace+").")
	out := fs.String("o", "", "Output file (default standard output).")
	dir := fs.String("dir", "", "Write one schema per registered widget into this directory.")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	ctx, err := c.setup(ctx, fs, stderr)
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)

	if _, ok := schemaExt[*format]; !ok {
		return usageError("invalid format %q: must be 'xsd', 'xui', 'rng' or 'json'", *format)
	}
	ns := *namespace
	if ns == "" {
		ns = c.cfg.Namespace
	}
	if ns == "" {
		ns = widgets.Namespace
	}
	reg := widgets.Registry()
	gen := func(w io.Writer, name string) error {
		return writeSchema(w, &c, *format, name, reg, ns)
	}

	if *dir != "" {
		if err := os.MkdirAll(*dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		for _, name := range reg.Names() {
			path := filepath.Join(*dir, name+schemaExt[*format])
			if err := writeFile(path, func(w io.Writer) error { return gen(w, name) }); err != nil {
				return err
			}
			logger.Info("Schema written.", "widget", name, "path", path)
		}
		return nil
	}

	if _, ok := reg.Block(*typeName); !ok {
		return usageError("unknown widget %q", *typeName)
	}
	if *out == "" {
		return gen(stdout, *typeName)
	}
	if err := writeFile(*out, func(w io.Writer) error { return gen(w, *typeName) }); err != nil {
		return err
	}
	logger.Info("Schema written.", "widget", *typeName, "path", *out)
	return nil
}

func writeSchema(w io.Writer, c *common, format, name string, reg *schema.MapRegistry, ns string) error {
	opt := c.parseOpt()
	switch format {
	case "xsd":
		blk, _ := reg.Block(name)
		return markup.Encode(w, schema.NewXSDWriter(opt).Write(name, blk, ns))
	case "xui":
		return markup.Encode(w, schema.NewXSDWriter(opt).WriteXUI(name, reg, ns))
	case "rng":
		return markup.Encode(w, schema.NewRNGWriter(opt).Write(name, reg, ns))
	}
	blk, _ := reg.Block(name)
	b, err := gojson.MarshalIndent(schema.NewJSONSchemaWriter(opt).Write(blk), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

// writeFile creates path and fills it with fn.
func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
