// Package engine is the token layer shared by the structured-data readers:
// a small token model, the driver-facing TokenSource interface and an
// enforcement wrapper for untrusted input.
package engine

import (
	"errors"
	"fmt"
	"io"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

var kindNames = [...]string{"{", "}", "[", "]", "key", "string", "number", "bool", "null"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Scalar reports whether k is a value token that is not a container.
func (k Kind) Scalar() bool { return k >= KindString }

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string // key or string value
	Number string // number text, uninterpreted
	Bool   bool
	Offset int64 // -1 when unknown
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// ErrUnexpectedToken is returned when a source yields a token that cannot
// appear at its position.
var ErrUnexpectedToken = errors.New("engine: unexpected token")

// Next reads one token, turning a premature EOF inside a value into
// io.ErrUnexpectedEOF.
func Next(src TokenSource) (Token, error) {
	tok, err := src.NextToken()
	if errors.Is(err, io.EOF) {
		return Token{}, io.ErrUnexpectedEOF
	}
	return tok, err
}

// Skip consumes the rest of the value that starts with tok.
func Skip(src TokenSource, tok Token) error {
	depth := 0
	for {
		switch tok.Kind {
		case KindBeginObject, KindBeginArray:
			depth++
		case KindEndObject, KindEndArray:
			depth--
		case KindKey:
			if depth == 0 {
				return fmt.Errorf("%w: key %q outside an object", ErrUnexpectedToken, tok.String)
			}
		}
		if depth <= 0 {
			return nil
		}
		var err error
		if tok, err = Next(src); err != nil {
			return err
		}
	}
}
