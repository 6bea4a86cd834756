package structured

import (
	"io"
	"sync"

	eng "github.com/reoring/paramblock/internal/engine"
	jsonsrc "github.com/reoring/paramblock/source/json"
)

// Token model shared with the drivers under source/.
type (
	TokenSource = eng.TokenSource
	Token       = eng.Token
	Kind        = eng.Kind
)

const (
	KindBeginObject = eng.KindBeginObject
	KindEndObject   = eng.KindEndObject
	KindBeginArray  = eng.KindBeginArray
	KindEndArray    = eng.KindEndArray
	KindKey         = eng.KindKey
	KindString      = eng.KindString
	KindNumber      = eng.KindNumber
	KindBool        = eng.KindBool
	KindNull        = eng.KindNull
)

// JSONDriver turns JSON input into a TokenSource. The default driver is
// based on encoding/json; importing github.com/reoring/paramblock/source
// switches to goccy/go-json.
type JSONDriver interface {
	NewReader(r io.Reader) TokenSource
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = defaultJSONDriver{}
)

// SetJSONDriver replaces the global JSON driver; nil values are ignored.
func SetJSONDriver(d JSONDriver) {
	if d == nil {
		return
	}
	jsonDriverMu.Lock()
	currentJSONDriver = d
	jsonDriverMu.Unlock()
}

// UseDefaultJSONDriver restores the encoding/json driver.
func UseDefaultJSONDriver() { SetJSONDriver(defaultJSONDriver{}) }

// JSONDriverName returns the name of the driver ReadJSON uses.
func JSONDriverName() string { return getJSONDriver().Name() }

func getJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	d := currentJSONDriver
	jsonDriverMu.RUnlock()
	return d
}

type defaultJSONDriver struct{}

func (defaultJSONDriver) NewReader(r io.Reader) TokenSource { return jsonsrc.NewReader(r) }
func (defaultJSONDriver) Name() string                      { return "encoding/json" }
