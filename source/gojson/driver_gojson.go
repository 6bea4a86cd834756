// Package gojson is the goccy/go-json token driver.
package gojson

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/paramblock/internal/engine"
	"github.com/reoring/paramblock/structured"
)

// Driver returns a structured.JSONDriver backed by goccy/go-json.
func Driver() structured.JSONDriver { return driverGoJSON{} }

type driverGoJSON struct{}

func (driverGoJSON) NewReader(r io.Reader) eng.TokenSource { return NewReader(r) }
func (driverGoJSON) Name() string                          { return "go-json" }

type frame struct {
	object       bool
	expectingKey bool
}

type source struct {
	dec   *j.Decoder
	stack []frame
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON using go-json.
func NewReader(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON using go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return eng.Token{}, io.EOF
		}
		return eng.Token{}, err
	}
	t := eng.Token{Offset: -1}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{object: true, expectingKey: true})
			t.Kind = eng.KindBeginObject
		case '[':
			s.stack = append(s.stack, frame{})
			t.Kind = eng.KindBeginArray
		case '}', ']':
			if n := len(s.stack); n > 0 {
				s.stack = s.stack[:n-1]
			}
			s.valueDone()
			t.Kind = eng.KindEndArray
			if v == '}' {
				t.Kind = eng.KindEndObject
			}
		}
		return t, nil
	case string:
		if n := len(s.stack); n > 0 && s.stack[n-1].object && s.stack[n-1].expectingKey {
			s.stack[n-1].expectingKey = false
			t.Kind, t.String = eng.KindKey, v
			return t, nil
		}
		t.Kind, t.String = eng.KindString, v
	case bool:
		t.Kind, t.Bool = eng.KindBool, v
	case j.Number:
		t.Kind, t.Number = eng.KindNumber, string(v)
	case float64:
		t.Kind, t.Number = eng.KindNumber, strconv.FormatFloat(v, 'g', -1, 64)
	default:
		t.Kind = eng.KindNull
	}
	s.valueDone()
	return t, nil
}

func (s *source) valueDone() {
	if n := len(s.stack); n > 0 && s.stack[n-1].object {
		s.stack[n-1].expectingKey = true
	}
}

// Location is unknown: go-json's stream decoder does not expose an offset.
func (s *source) Location() int64 { return -1 }
