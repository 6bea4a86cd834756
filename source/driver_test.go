package source_test

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	eng "github.com/reoring/paramblock/internal/engine"
	_ "github.com/reoring/paramblock/source"
	drvgojson "github.com/reoring/paramblock/source/gojson"
	jsonsrc "github.com/reoring/paramblock/source/json"
	"github.com/reoring/paramblock/structured"
)

func kinds(t *testing.T, src eng.TokenSource) []string {
	t.Helper()
	var out []string
	for {
		tok, err := src.NextToken()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("NextToken: %v", err)
		}
		s := tok.Kind.String()
		switch tok.Kind {
		case eng.KindKey, eng.KindString:
			s += ":" + tok.String
		case eng.KindNumber:
			s += ":" + tok.Number
		}
		out = append(out, s)
	}
}

func TestInstallsGoJSON(t *testing.T) {
	if got := structured.JSONDriverName(); got != "go-json" {
		t.Fatalf("driver = %q, want go-json", got)
	}
}

func TestDriversAgree(t *testing.T) {
	in := []byte(`{"name":"ok","rect":{"left":1.5,"top":-2},"item":[{"label":"a"},"b"],"on":true,"off":null}`)
	want := kinds(t, jsonsrc.NewBytes(in))
	got := kinds(t, drvgojson.NewBytes(in))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("token mismatch (-encoding/json +go-json):\n%s", diff)
	}
	if want[1] != "key:name" || want[2] != "string:ok" || want[6] != "number:1.5" {
		t.Fatalf("unexpected tokens: %v", want)
	}
}
