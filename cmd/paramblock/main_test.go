package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

const panelXML = `<panel name="main" title="Main" layout="topleft">
	<button name="ok" label="OK" halign="right"/>
	<button label="nameless"/>
</panel>
`

// runCLI runs the command in a fresh working directory holding files.
func runCLI(t *testing.T, files map[string]string, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	var out, errOut bytes.Buffer
	err = run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), err
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if err != nil {
		return 1
	}
	return 0
}

func TestRun_Usage(t *testing.T) {
	_, stderr, err := runCLI(t, nil, "")
	require.Equal(t, 2, exitCode(err))
	require.Contains(t, stderr, "Usage:")

	_, _, err = runCLI(t, nil, "", "frobnicate")
	require.Equal(t, 2, exitCode(err))

	stdout, _, err := runCLI(t, nil, "", "help")
	require.NoError(t, err)
	require.Contains(t, stdout, "paramblock schema")
}

func TestSchema_Stdout(t *testing.T) {
	stdout, _, err := runCLI(t, nil, "", "schema", "-format", "xsd", "-type", "button", "-namespace", "urn:t")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stdout, `<?xml version="1.0"`), stdout)
	require.Contains(t, stdout, `<xs:complexType name="button" mixed="true">`)
	require.Contains(t, stdout, `targetNamespace="urn:t"`)

	stdout, _, err = runCLI(t, nil, "", "schema", "-format", "json", "-type", "text_box")
	require.NoError(t, err)
	var js map[string]any
	require.NoError(t, gojson.Unmarshal([]byte(stdout), &js))
	require.Equal(t, "TextBox", js["title"])

	_, _, err = runCLI(t, nil, "", "schema", "-type", "slider")
	require.Equal(t, 2, exitCode(err))
	_, _, err = runCLI(t, nil, "", "schema", "-format", "dtd")
	require.Equal(t, 2, exitCode(err))
}

func TestSchema_Dir(t *testing.T) {
	_, _, err := runCLI(t, nil, "", "schema", "-format", "rng", "-dir", "out")
	require.NoError(t, err)
	entries, err := os.ReadDir("out")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"panel.rng", "button.rng", "combo_box.rng", "text_box.rng"}, names)
}

func TestConvert_MarkupToJSON(t *testing.T) {
	stdout, _, err := runCLI(t, map[string]string{"panel.xml": panelXML}, "", "convert", "panel.xml")
	require.NoError(t, err, "deprecated names are skipped, not fatal")
	var got map[string]any
	require.NoError(t, gojson.Unmarshal([]byte(stdout), &got))
	require.Equal(t, map[string]any{"name": "main", "title": "Main"}, got)

	_, _, err = runCLI(t, map[string]string{"panel.xml": panelXML}, "", "convert", "-strict", "panel.xml")
	require.Equal(t, 1, exitCode(err))
}

func TestConvert_JSONToMarkup(t *testing.T) {
	stdout, _, err := runCLI(t, nil, `{"name":"ok","halign":"right","rect":{"left":4}}`,
		"convert", "-type", "button", "-from", "json", "-to", "xml")
	require.NoError(t, err)
	require.Contains(t, stdout, `<button name="ok"`)
	require.Contains(t, stdout, `halign="right"`)
	require.Contains(t, stdout, `left="4"`)

	_, _, err = runCLI(t, nil, `{}`, "convert", "-from", "json")
	require.Equal(t, 2, exitCode(err), "structured input needs -type")
}

func TestConvert_HCLToYAML(t *testing.T) {
	src := `
name = "combo"
combo_item {
  label = "First"
}
combo_item {
  label = "Second"
  value = "2"
}
`
	stdout, _, err := runCLI(t, map[string]string{"combo.hcl": src}, "", "convert", "-type", "combo_box", "-to", "yaml", "combo.hcl")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stdout, "name: combo\ncombo_item:\n"), stdout)
	require.Contains(t, stdout, "label: First")
}

func TestValidate_Tree(t *testing.T) {
	stdout, _, err := runCLI(t, map[string]string{"panel.xml": panelXML}, "", "validate", "panel.xml")
	require.Equal(t, 1, exitCode(err))
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Equal(t, []string{
		"panel: layout: parameter is deprecated and ignored (deprecated)",
		"panel/button: name: mandatory parameter missing (required)",
	}, lines)
}

func TestValidate_Stream(t *testing.T) {
	stdout, _, err := runCLI(t, map[string]string{"panel.xml": panelXML}, "", "validate", "-stream", "-type", "panel", "panel.xml")
	require.Equal(t, 1, exitCode(err))
	require.Contains(t, stdout, "panel/button: name: mandatory parameter missing (required)")

	_, _, err = runCLI(t, map[string]string{"panel.xml": panelXML}, "", "validate", "-stream", "panel.xml")
	require.Equal(t, 2, exitCode(err))
}

func TestValidate_ConfigFile(t *testing.T) {
	files := map[string]string{
		"paramblock.hcl": "log_level = \"info\"\nlog_format = \"json\"\n",
		"ok.yaml":        "name: fine\ntitle: Fine\n",
	}
	stdout, stderr, err := runCLI(t, files, "", "validate", "-type", "panel", "ok.yaml")
	require.NoError(t, err)
	require.Equal(t, "ok\n", stdout)
	require.Contains(t, stderr, `"msg":"Input is valid."`)

	_, _, err = runCLI(t, map[string]string{"paramblock.hcl": `log_level = "loud"`}, "", "validate", "ok.yaml")
	require.Error(t, err)

	_, stderr, err = runCLI(t, files, "", "validate", "-type", "panel", "-log-format", "text", "ok.yaml")
	require.NoError(t, err)
	require.Contains(t, stderr, `msg="Input is valid."`, "flags override the config file")
}
