// Package gettext defines the translation backend the engine's gettext and
// gettextornull built-ins resolve against.
package gettext

// Translator looks up a translated string for a source message. It backs
// the gettext/gettextornull built-ins; with no Translator configured
// (None), gettext returns the msgid unchanged and gettextornull returns
// nothing.
type Translator interface {
	// Translate returns the translation of msgid in the given locale, and
	// false if none is available (the caller falls back to msgid or to
	// empty, depending on which built-in was called).
	Translate(locale, msgid string) (string, bool)
}

// None is a Translator with no messages, used as the zero-value backend.
var None Translator = noneTranslator{}

type noneTranslator struct{}

func (noneTranslator) Translate(locale, msgid string) (string, bool) { return "", false }
