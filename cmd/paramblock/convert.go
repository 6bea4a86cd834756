package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/paramblock"
	"github.com/reoring/paramblock/i18n"
	"github.com/reoring/paramblock/internal/ctxlog"
	"github.com/reoring/paramblock/internal/widgets"
	"github.com/reoring/paramblock/markup"
	"github.com/reoring/paramblock/structured"
)

// input is a document read from a file or standard input.
type input struct {
	name   string
	format string
	data   []byte
}

func readInput(args []string, stdin io.Reader, format string) (input, error) {
	if len(args) > 1 {
		return input{}, usageError("want at most one input, got %d", len(args))
	}
	in := input{name: "-", format: strings.ToLower(format)}
	var err error
	if len(args) == 0 || args[0] == "-" {
		in.data, err = io.ReadAll(stdin)
	} else {
		in.name = args[0]
		in.data, err = os.ReadFile(in.name)
	}
	if err != nil {
		return input{}, fmt.Errorf("reading input: %w", err)
	}
	if in.format == "" {
		in.format = formatOf(in.name)
	}
	switch in.format {
	case "xml", "json", "yaml", "hcl":
		return in, nil
	case "":
		return input{}, usageError("cannot tell the input format of %s: use -from", in.name)
	}
	return input{}, usageError("invalid input format %q: must be 'xml', 'json', 'yaml' or 'hcl'", in.format)
}

func formatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xml", ".xui":
		return "xml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".hcl":
		return "hcl"
	}
	return ""
}

// decode reads in into a new block for typeName. For markup read through
// the document parser typeName may be empty; the root element names the
// widget. The returned Issues are the values that were skipped.
func decode(c *common, in input, typeName string, stream bool) (any, string, paramblock.Issues, error) {
	opt := c.parseOpt()
	reg := widgets.Registry()
	var doc *markup.Document
	if in.format == "xml" && !stream {
		var err error
		if doc, err = markup.Decode(bytes.NewReader(in.data)); err != nil {
			return nil, "", nil, err
		}
		if typeName == "" {
			typeName = doc.Name(doc.Root())
		}
	}
	if typeName == "" {
		return nil, "", nil, usageError("-type is required for %s input", in.format)
	}
	blk, ok := reg.Block(typeName)
	if !ok {
		return nil, "", nil, usageError("unknown widget %q", typeName)
	}

	var err error
	switch {
	case doc != nil:
		err = markup.NewParser(opt).Read(doc, doc.Root(), blk)
	case in.format == "xml":
		err = markup.NewStreamParser(nil, opt).Read(bytes.NewReader(in.data), blk)
	case in.format == "json":
		err = structured.NewParser(opt).ReadJSON(bytes.NewReader(in.data), blk)
	case in.format == "yaml":
		err = structured.NewParser(opt).ReadYAML(bytes.NewReader(in.data), blk)
	case in.format == "hcl":
		err = structured.NewParser(opt).ReadHCL(in.data, in.name, nil, blk)
	}
	if iss, ok := err.(paramblock.Issues); ok {
		return blk, typeName, iss, nil
	}
	return blk, typeName, nil, err
}

// encode writes block in the given format.
func encode(w io.Writer, c *common, format, typeName string, block any) error {
	opt := c.parseOpt()
	switch format {
	case "xml":
		doc := markup.NewDocument(typeName)
		if err := markup.NewParser(opt).Write(doc, doc.Root(), block, nil); err != nil {
			return err
		}
		return markup.Encode(w, doc)
	case "json", "yaml":
	default:
		return usageError("invalid output format %q: must be 'xml', 'json' or 'yaml'", format)
	}
	obj, err := structured.NewParser(opt).Write(block, nil)
	if err != nil {
		return err
	}
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(obj); err != nil {
			return err
		}
		return enc.Close()
	}
	b, err := gojson.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func convertCmd(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	typeName := fs.String("type", "", "Widget the input describes (default: the markup root element).")
	from := fs.String("from", "", "Input format: 'xml', 'json', 'yaml' or 'hcl' (default from the file extension).")
	to := fs.String("to", "json", "Output format: 'xml', 'json' or 'yaml'.")
	stream := fs.Bool("stream", false, "Read markup with the streaming parser.")
	strict := fs.Bool("strict", false, "Exit with status 1 when any value was skipped.")
	out := fs.String("o", "", "Output file (default standard output).")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	ctx, err := c.setup(ctx, fs, stderr)
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)

	in, err := readInput(fs.Args(), stdin, *from)
	if err != nil {
		return err
	}
	blk, name, iss, err := decode(&c, in, *typeName, *stream)
	if err != nil {
		return err
	}
	logger.Debug("Input read.", "input", in.name, "format", in.format, "widget", name, "skipped", len(iss))

	if *out == "" {
		err = encode(stdout, &c, *to, name, blk)
	} else {
		err = writeFile(*out, func(w io.Writer) error { return encode(w, &c, *to, name, blk) })
	}
	if err != nil {
		return err
	}
	if *strict && len(iss) > 0 {
		return &exitError{code: 1, msg: fmt.Sprintf("%d value(s) skipped: %v", len(iss), iss)}
	}
	return nil
}

// finding is one problem reported by validate.
type finding struct {
	element string
	issue   paramblock.Issue
}

func (f finding) String() string {
	msg := f.issue.Message
	if msg == "" {
		data := make(map[string]string, len(f.issue.Params))
		for k, v := range f.issue.Params {
			data[k] = fmt.Sprint(v)
		}
		msg = i18n.T(f.issue.Code, data)
	}
	path := f.issue.Path
	if path == "" {
		path = "<root>"
	}
	s := fmt.Sprintf("%s: %s: %s (%s)", f.element, path, msg, f.issue.Code)
	if f.issue.Hint != "" {
		s += ": " + f.issue.Hint
	}
	return s
}

func validateCmd(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c common
	c.register(fs)
	typeName := fs.String("type", "", "Widget the input describes (default: the markup root element).")
	from := fs.String("from", "", "Input format: 'xml', 'json', 'yaml' or 'hcl' (default from the file extension).")
	stream := fs.Bool("stream", false, "Read markup with the streaming parser.")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	ctx, err := c.setup(ctx, fs, stderr)
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)

	in, err := readInput(fs.Args(), stdin, *from)
	if err != nil {
		return err
	}
	var found []finding
	switch {
	case in.format == "xml" && *stream:
		found, err = validateStream(&c, in, *typeName)
	case in.format == "xml":
		found, err = validateTree(&c, in, *typeName)
	default:
		var (
			blk  any
			name string
			iss  paramblock.Issues
		)
		blk, name, iss, err = decode(&c, in, *typeName, false)
		if err == nil {
			found = check(name, blk, iss)
		}
	}
	if err != nil {
		return err
	}

	for _, f := range found {
		fmt.Fprintln(stdout, f)
	}
	if len(found) > 0 {
		return &exitError{code: 1, msg: fmt.Sprintf("%d problem(s) found", len(found))}
	}
	logger.Info("Input is valid.", "input", in.name)
	fmt.Fprintln(stdout, "ok")
	return nil
}

// check pairs read issues with the block's own validation.
func check(element string, blk any, read paramblock.Issues) []finding {
	var out []finding
	for _, it := range read {
		out = append(out, finding{element: element, issue: it})
	}
	var iss paramblock.Issues
	if errors.As(paramblock.MustBlockOf(blk).Validate(), &iss) {
		for _, it := range iss {
			out = append(out, finding{element: element, issue: it})
		}
	}
	return out
}

// validateTree reads a markup document with the document parser and
// validates the root widget and every nested widget it contains.
func validateTree(c *common, in input, typeName string) ([]finding, error) {
	doc, err := markup.Decode(bytes.NewReader(in.data))
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if typeName == "" {
		typeName = doc.Name(root)
	}
	reg := widgets.Registry()
	if _, ok := reg.Block(typeName); !ok {
		return nil, usageError("unknown widget %q", typeName)
	}
	p := markup.NewParser(c.parseOpt())

	var out []finding
	var walk func(n markup.NodeID, name, path string)
	walk = func(n markup.NodeID, name, path string) {
		blk, ok := reg.Block(name)
		if !ok {
			p.Debug("skipping element that is not a widget", "element", path)
			return
		}
		err := p.Read(doc, n, blk)
		iss, _ := err.(paramblock.Issues)
		out = append(out, check(path, blk, iss)...)
		for _, k := range doc.Children(n) {
			walk(k, doc.Name(k), path+"/"+doc.Name(k))
		}
	}
	walk(root, typeName, doc.Name(root))
	return out, nil
}

// validateStream is validateTree for the streaming parser: nested widgets
// are redirected into their own blocks by the element hook.
func validateStream(c *common, in input, typeName string) ([]finding, error) {
	if typeName == "" {
		return nil, usageError("-type is required with -stream")
	}
	reg := widgets.Registry()
	root, ok := reg.Block(typeName)
	if !ok {
		return nil, usageError("unknown widget %q", typeName)
	}
	type nested struct {
		name string
		blk  any
	}
	var kids []nested
	hook := func(p *markup.StreamParser, name string) any {
		if p.Depth() == 0 {
			return nil
		}
		blk, ok := reg.Block(name)
		if !ok {
			return nil
		}
		kids = append(kids, nested{name: name, blk: blk})
		return blk
	}
	err := markup.NewStreamParser(hook, c.parseOpt()).Read(bytes.NewReader(in.data), root)
	iss, isIssues := err.(paramblock.Issues)
	if err != nil && !isIssues {
		return nil, err
	}
	out := check(typeName, root, iss)
	for _, k := range kids {
		out = append(out, check(typeName+"/"+k.name, k.blk, nil)...)
	}
	return out, nil
}
