package i18n

import "sync/atomic"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "min" or "got").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dict = map[string]map[string]string{
	"en": {
		"invalid_value": "value does not convert to the field type",
		"invalid_enum":  "value is not one of the allowed values",
		"unknown_key":   "name is not a parameter of this block",
		"duplicate_key": "duplicate key",
		"required":      "mandatory parameter missing",
		"too_small":     "too few values",
		"too_big":       "too many values",
		"deprecated":    "parameter is deprecated and ignored",
		"parse_error":   "parse error",
		"truncated":     "truncated",
	},
	"ja": {
		"invalid_value": "値をフィールドの型に変換できません",
		"invalid_enum":  "許可されていない値です",
		"unknown_key":   "このブロックのパラメータではありません",
		"duplicate_key": "キーが重複しています",
		"required":      "必須パラメータが不足しています",
		"too_small":     "値が少なすぎます",
		"too_big":       "値が多すぎます",
		"deprecated":    "非推奨のパラメータのため無視されました",
		"parse_error":   "解析エラー",
		"truncated":     "打ち切られました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	if m, ok := dict[t.lang][code]; ok {
		if got := data["got"]; got != "" {
			return m + " (" + got + ")"
		}
		return m
	}
	return code
}

var current atomic.Value // Translator

func init() { current.Store(Translator(dictTranslator{lang: "en"})) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := dict[lang]; !ok {
		lang = "en"
	}
	current.Store(Translator(dictTranslator{lang: lang}))
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(tr)
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	return current.Load().(Translator).Message(code, data)
}
