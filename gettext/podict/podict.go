// Package podict implements gettext.Translator by loading GNU gettext .po
// catalogs, one per locale, with locale-fallback lookup.
package podict

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"strings"

	"github.com/robfig/gettext/po"
	"golang.org/x/text/language"
)

// Dict is a gettext.Translator backed by a set of loaded .po catalogs.
type Dict struct {
	catalogs map[string]map[string]string // locale -> msgid -> msgstr
}

// Translate implements gettext.Translator, falling back from a fully
// specified locale (language_script_region) to increasingly general tags
// when the exact locale has no catalog or the catalog lacks msgid.
func (d *Dict) Translate(locale, msgid string) (string, bool) {
	if cat, ok := d.catalogs[locale]; ok {
		if str, ok := cat[msgid]; ok {
			return str, true
		}
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", false
	}
	for _, fb := range fallbacks(tag) {
		cat, ok := d.catalogs[fb.String()]
		if !ok {
			continue
		}
		if str, ok := cat[msgid]; ok {
			return str, true
		}
	}
	return "", false
}

// fallbacks returns tags substitutable for tag, ordered by increasing
// generality: language_script_region, language_script, language.
func fallbacks(tag language.Tag) []language.Tag {
	var result []language.Tag
	lang, script, region := tag.Raw()
	if region.String() != "ZZ" {
		if t, err := language.Compose(lang, script, region); err == nil {
			result = append(result, t)
		}
	}
	if script.String() != "Zzzz" {
		if t, err := language.Compose(lang, script); err == nil {
			result = append(result, t)
		}
	}
	if t, err := language.Compose(lang); err == nil {
		result = append(result, t)
	}
	return result
}

// FileOpener abstracts where .po files for a locale come from.
type FileOpener interface {
	// Open returns the reader for the given locale's catalog, or nil if
	// the locale has no file.
	Open(locale string) (io.ReadCloser, error)
}

// Load reads the named locales' catalogs through opener and builds a Dict.
// A locale with no catalog of its own is simply absent; Translate resolves
// it through fallback at lookup time instead.
func Load(opener FileOpener, locales []string) (*Dict, error) {
	d := &Dict{catalogs: make(map[string]map[string]string)}
	for _, locale := range locales {
		r, err := opener.Open(locale)
		if err != nil {
			return nil, fmt.Errorf("podict: opening %s: %w", locale, err)
		}
		if r == nil {
			continue
		}
		file, err := po.Parse(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("podict: parsing %s: %w", locale, err)
		}
		cat := make(map[string]string, len(file.Messages))
		for _, msg := range file.Messages {
			if len(msg.Str) == 0 || msg.Str[0] == "" {
				continue
			}
			cat[msg.Id] = msg.Str[0]
		}
		d.catalogs[locale] = cat
	}
	return d, nil
}

// Dir loads every "<locale>.po" file directly inside dirname into a Dict.
func Dir(dirname string) (*Dict, error) {
	files, err := ioutil.ReadDir(dirname)
	if err != nil {
		return nil, err
	}
	var locales []string
	for _, fi := range files {
		if !fi.IsDir() && strings.HasSuffix(fi.Name(), ".po") {
			locales = append(locales, strings.TrimSuffix(fi.Name(), ".po"))
		}
	}
	return Load(fsFileOpener{dirname}, locales)
}

type fsFileOpener struct{ dirname string }

func (o fsFileOpener) Open(locale string) (io.ReadCloser, error) {
	f, err := os.Open(path.Join(o.dirname, locale+".po"))
	switch {
	case os.IsNotExist(err):
		return nil, nil
	case err != nil:
		return nil, err
	default:
		return f, nil
	}
}
