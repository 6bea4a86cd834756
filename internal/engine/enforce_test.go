package engine_test

import (
	"errors"
	"io"
	"testing"

	eng "github.com/reoring/paramblock/internal/engine"
	jsonsrc "github.com/reoring/paramblock/source/json"
)

func drain(src eng.TokenSource) ([]eng.Token, error) {
	var out []eng.Token
	for {
		tok, err := src.NextToken()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, tok)
	}
}

func TestEnforce_DuplicateKeys(t *testing.T) {
	in := `{"a":1,"b":{"c":true,"c":false},"a":2}`

	var seen []eng.SimpleIssue
	src := eng.WrapWithEnforcement(jsonsrc.NewBytes([]byte(in)), eng.EnforceOptions{
		IssueSink: func(si eng.SimpleIssue) { seen = append(seen, si) },
	})
	if _, err := drain(src); err != nil {
		t.Fatalf("warn mode must not fail: %v", err)
	}
	if len(seen) != 2 || seen[0].Path != "b.c" || seen[1].Path != "a" {
		t.Fatalf("unexpected issues: %+v", seen)
	}

	src = eng.WrapWithEnforcement(jsonsrc.NewBytes([]byte(in)), eng.EnforceOptions{OnDuplicate: eng.DupError})
	_, err := drain(src)
	var ie eng.IssueError
	if !errors.As(err, &ie) || ie.Code != "duplicate_key" || ie.Path != "b.c" {
		t.Fatalf("want duplicate_key at b.c, got %v", err)
	}

	src = eng.WrapWithEnforcement(jsonsrc.NewBytes([]byte(in)), eng.EnforceOptions{OnDuplicate: eng.DupIgnore, FailFast: true})
	if _, err := drain(src); err != nil {
		t.Fatalf("ignore mode must not fail: %v", err)
	}
}

func TestEnforce_MaxDepth(t *testing.T) {
	src := eng.WrapWithEnforcement(jsonsrc.NewBytes([]byte(`{"a":[{"b":[1]}]}`)), eng.EnforceOptions{MaxDepth: 3})
	_, err := drain(src)
	var ie eng.IssueError
	if !errors.As(err, &ie) || ie.Code != "parse_error" || ie.Path != "a[0].b" {
		t.Fatalf("want parse_error at a[0].b, got %v", err)
	}
}

func TestEnforce_MaxBytes(t *testing.T) {
	src := eng.WrapWithEnforcement(jsonsrc.NewBytes([]byte(`{"label":"a rather long value"}`)), eng.EnforceOptions{MaxBytes: 10})
	_, err := drain(src)
	var ie eng.IssueError
	if !errors.As(err, &ie) || ie.Code != "truncated" {
		t.Fatalf("want truncated, got %v", err)
	}
}

func TestSkip(t *testing.T) {
	src := jsonsrc.NewBytes([]byte(`[{"a":[1,2]},"next"]`))
	if _, err := src.NextToken(); err != nil {
		t.Fatal(err)
	}
	first, err := src.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Skip(src, first); err != nil {
		t.Fatal(err)
	}
	tok, err := src.NextToken()
	if err != nil || tok.Kind != eng.KindString || tok.String != "next" {
		t.Fatalf("want next string, got %+v %v", tok, err)
	}

	src = jsonsrc.NewBytes([]byte(`{"a":`))
	for range 2 {
		if _, err := src.NextToken(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := eng.Next(src); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("want unexpected EOF, got %v", err)
	}
}
