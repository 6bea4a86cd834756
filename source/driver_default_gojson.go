// Package source installs go-json as the structured JSON driver when
// imported for its side effect.
package source

import (
	drvgojson "github.com/reoring/paramblock/source/gojson"
	"github.com/reoring/paramblock/structured"
)

// init in a separate package to avoid an import cycle with structured.
func init() { structured.SetJSONDriver(drvgojson.Driver()) }
