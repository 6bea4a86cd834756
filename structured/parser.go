// Package structured reads blocks from nested map and array data and writes
// them back, promoting repeated values to arrays.
//
// Input can be an in-memory tree (Read), a token stream (ReadSource,
// ReadJSON), a YAML document (ReadYAML) or an HCL body (ReadHCL). Write
// returns an *Object that keeps declaration order and marshals to JSON and
// YAML.
package structured

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/paramblock"
	eng "github.com/reoring/paramblock/internal/engine"
)

// Parser maps structured data onto a block and back. Use one Parser per
// goroutine.
type Parser struct {
	paramblock.Base

	blk paramblock.Block
	cur any

	// write state
	root  *Object
	prev  paramblock.NameStack
	trail []*Object
}

// NewParser returns a Parser using the default structured Registry.
func NewParser(opts ...paramblock.ParseOpt) *Parser {
	return &Parser{Base: paramblock.NewBase(defaultRegistry(), opts...)}
}

func (p *Parser) start(block any) error {
	blk, err := paramblock.BlockOf(block)
	if err != nil {
		return err
	}
	p.Begin()
	p.blk = blk
	return nil
}

// Read fills block from tree. Maps (map[string]any, *Object or any map with
// keys that print as names) push their keys; sorted order is used for plain
// maps. Slices repeat the enclosing name with a new generation per entry.
// nil is the flag state.
//
// The returned error is nil or paramblock.Issues.
func (p *Parser) Read(tree any, block any) error {
	if err := p.start(block); err != nil {
		return err
	}
	p.walk(tree, nil)
	return p.Err()
}

func (p *Parser) walk(v any, stack paramblock.NameStack) {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			p.leaf(nil, stack)
			return
		}
		for _, k := range t.keys {
			p.walkKey(k, t.vals[k], stack)
		}
		return
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			p.walkKey(k, t[k], stack)
		}
		return
	case []any:
		for _, e := range t {
			p.walk(e, stack.Regenerate(p.NextGeneration()))
		}
		return
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8:
		for i := range rv.Len() {
			p.walk(rv.Index(i).Interface(), stack.Regenerate(p.NextGeneration()))
		}
	case rv.Kind() == reflect.Map:
		byName := map[string]reflect.Value{}
		for _, k := range rv.MapKeys() {
			byName[fmt.Sprint(k.Interface())] = k
		}
		keys := make([]string, 0, len(byName))
		for k := range byName {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			p.walkKey(k, rv.MapIndex(byName[k]).Interface(), stack)
		}
	default:
		p.leaf(v, stack)
	}
}

func (p *Parser) walkKey(key string, v any, stack paramblock.NameStack) {
	tokens := paramblock.SplitName(key)
	if len(tokens) == 0 {
		return
	}
	p.walk(v, stack.WithNames(p.NextGeneration(), tokens...))
}

func (p *Parser) leaf(v any, stack paramblock.NameStack) {
	if len(stack) == 0 {
		p.Debug("ignoring value outside any key", "value", v)
		return
	}
	p.cur = v
	p.blk.SubmitValue(stack, p, false)
}

// value implements cursor.
func (p *Parser) value() any { return p.cur }

// ReadSource fills block from a token stream in document order. The stream
// is checked against the parser's MaxDepth, MaxBytes and duplicate key
// options.
//
// Syntax errors stop the read and are returned wrapped; enforcement
// failures stop it and are returned as paramblock.Issues. Values read
// before either stay in the block.
func (p *Parser) ReadSource(src TokenSource, block any) error {
	if err := p.start(block); err != nil {
		return err
	}
	opt := p.Options()
	es := eng.WrapWithEnforcement(src, eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink:   p.engineIssue,
		FailFast:    opt.FailFast,
	})
	tok, err := es.NextToken()
	if errors.Is(err, io.EOF) {
		return p.Err()
	}
	if err == nil {
		err = p.stream(es, tok, nil)
	}
	if err != nil {
		return p.fail(err)
	}
	return p.Err()
}

// ReadJSON is ReadSource over the current JSON driver.
func (p *Parser) ReadJSON(r io.Reader, block any) error {
	return p.ReadSource(getJSONDriver().NewReader(r), block)
}

func (p *Parser) stream(src TokenSource, tok Token, stack paramblock.NameStack) error {
	switch tok.Kind {
	case KindBeginObject:
		for {
			kt, err := eng.Next(src)
			if err != nil {
				return err
			}
			if kt.Kind == KindEndObject {
				return nil
			}
			if kt.Kind != KindKey {
				return fmt.Errorf("%w: %s inside an object", eng.ErrUnexpectedToken, kt.Kind)
			}
			vt, err := eng.Next(src)
			if err != nil {
				return err
			}
			tokens := paramblock.SplitName(kt.String)
			if len(tokens) == 0 {
				if err := eng.Skip(src, vt); err != nil {
					return err
				}
				continue
			}
			if err := p.stream(src, vt, stack.WithNames(p.NextGeneration(), tokens...)); err != nil {
				return err
			}
		}
	case KindBeginArray:
		for {
			et, err := eng.Next(src)
			if err != nil {
				return err
			}
			if et.Kind == KindEndArray {
				return nil
			}
			if err := p.stream(src, et, stack.Regenerate(p.NextGeneration())); err != nil {
				return err
			}
		}
	case KindString:
		p.leaf(tok.String, stack)
	case KindNumber:
		p.leaf(gojson.Number(tok.Number), stack)
	case KindBool:
		p.leaf(tok.Bool, stack)
	case KindNull:
		p.leaf(nil, stack)
	default:
		return fmt.Errorf("%w: %s", eng.ErrUnexpectedToken, tok.Kind)
	}
	return nil
}

func (p *Parser) engineIssue(si eng.SimpleIssue) {
	p.AddIssue(paramblock.Issue{
		Path:   si.Path,
		Code:   si.Code,
		Hint:   si.Message,
		Offset: si.Offset,
	})
}

func (p *Parser) fail(err error) error {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return p.Err()
	}
	if iss := p.Issues(); len(iss) > 0 {
		return fmt.Errorf("structured: %w (%w)", err, iss)
	}
	return fmt.Errorf("structured: %w", err)
}

func toEngineDup(s paramblock.Severity) eng.DuplicateStrictness {
	switch s {
	case paramblock.Ignore:
		return eng.DupIgnore
	case paramblock.Error:
		return eng.DupError
	}
	return eng.DupWarn
}

// Write serializes block into a new Object. When diff is non-nil, values
// equal to its provided values are skipped.
//
// A slot written more than once under the same parent becomes an array; a
// slot written once stays a plain value.
func (p *Parser) Write(block, diff any) (*Object, error) {
	if err := p.start(block); err != nil {
		return nil, err
	}
	p.root = NewObject()
	p.prev = nil
	p.trail = []*Object{p.root}
	p.blk.Serialize(p, nil, diff)
	return p.root, p.Err()
}

// WriteValue stores v for the leaf at stack. Custom write functions call it
// after converting their value.
//
// Consecutive writes usually share a prefix with the previous stack; the
// containers along that prefix are reused without a lookup.
func (p *Parser) WriteValue(stack paramblock.NameStack, v any) bool {
	if len(stack) == 0 || p.root == nil {
		return false
	}
	k := 0
	for k < len(stack)-1 && k < len(p.prev)-1 && k < len(p.trail)-1 && stack[k] == p.prev[k] {
		k++
	}
	trail := p.trail[:k+1]
	cur := trail[k]
	for _, e := range stack[k : len(stack)-1] {
		cur = cur.child(e)
		trail = append(trail, cur)
	}
	cur.put(stack[len(stack)-1], v)
	p.prev, p.trail = stack, trail
	return true
}
