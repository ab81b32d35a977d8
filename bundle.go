package interpolate

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type patternFile struct{ name, text string }

// Bundle is a named collection of pattern text, loaded from strings, files,
// or a directory tree. Compile parses every pattern into an Interpolator
// and returns a Registry for looking them up by name.
type Bundle struct {
	opts    Options
	files   []patternFile
	err     error
	watcher *fsnotify.Watcher
}

// NewBundle starts a bundle whose patterns are all compiled with opts.
func NewBundle(opts Options) *Bundle {
	return &Bundle{opts: opts}
}

// WatchFiles tells the bundle to watch any pattern files added to it and
// recompile the registry returned by Compile whenever one changes. It must
// be called before adding files whose changes should be watched.
func (b *Bundle) WatchFiles(watch bool) *Bundle {
	if watch && b.err == nil && b.watcher == nil {
		b.watcher, b.err = fsnotify.NewWatcher()
	}
	return b
}

// AddPatternDir adds every ".pattern" file found under root, including
// subdirectories, using each file's path relative to root (minus the
// extension) as its registry name.
func (b *Bundle) AddPatternDir(root string) *Bundle {
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".pattern") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(rel, ".pattern")
		return b.addPatternFile(name, path)
	})
	if err != nil {
		b.err = err
	}
	return b
}

// AddPatternFile adds the named file's content under name, derived from
// its basename with the ".pattern" extension stripped.
func (b *Bundle) AddPatternFile(filename string) *Bundle {
	name := strings.TrimSuffix(filepath.Base(filename), ".pattern")
	if err := b.addPatternFile(name, filename); err != nil {
		b.err = err
	}
	return b
}

func (b *Bundle) addPatternFile(name, filename string) error {
	content, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}
	if b.watcher != nil {
		if err := b.watcher.Add(filename); err != nil {
			return err
		}
	}
	b.files = append(b.files, patternFile{name, string(content)})
	return nil
}

// AddPatternString adds a pattern given directly as text.
func (b *Bundle) AddPatternString(name, text string) *Bundle {
	b.files = append(b.files, patternFile{name, text})
	return b
}

// Compile parses every added pattern and returns a Registry. If watching
// was requested, changes to any watched file trigger a background
// recompile that atomically replaces the registry's contents.
func (b *Bundle) Compile() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	m, err := b.compileAll()
	if err != nil {
		return nil, err
	}
	reg := &Registry{interpolators: m}
	if b.watcher != nil {
		go b.recompile(reg)
	}
	return reg, nil
}

func (b *Bundle) compileAll() (map[string]*Interpolator, error) {
	m := make(map[string]*Interpolator, len(b.files))
	for _, f := range b.files {
		if _, exists := m[f.name]; exists {
			return nil, fmt.Errorf("interpolate: pattern %q already defined", f.name)
		}
		in := New(b.opts)
		if err := in.SetPattern(f.text); err != nil {
			return nil, fmt.Errorf("interpolate: pattern %q: %w", f.name, err)
		}
		m[f.name] = in
	}
	return m, nil
}

func (b *Bundle) recompile(reg *Registry) {
	for {
		select {
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(10 * time.Millisecond)
				if err := b.watcher.Add(ev.Name); err != nil {
					Logger.Println(err)
				}
			}

			m, err := b.compileAll()
			if err != nil {
				Logger.Println(err)
				continue
			}
			reg.replace(m)
			Logger.Printf("reloaded patterns (%s)", ev)

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			Logger.Println(err)
		}
	}
}

// Registry holds a set of compiled Interpolators keyed by name. It is
// safe for concurrent use, including while a Bundle's watcher reloads it
// in the background.
type Registry struct {
	mu            sync.RWMutex
	interpolators map[string]*Interpolator
}

// Get returns the named Interpolator, or false if no such pattern was
// compiled into this registry.
func (r *Registry) Get(name string) (*Interpolator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.interpolators[name]
	return in, ok
}

func (r *Registry) replace(m map[string]*Interpolator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interpolators = m
}
