package config

import (
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Loader polls a settings file's mtime and, on change, decodes a fresh Settings and
// atomically swaps it in, so readers (the queue manager's tick loop) always observe a
// consistent snapshot without holding a lock across a whole tick (spec.md section 5).
type Loader struct {
	path    string
	current atomic.Pointer[Settings]
	modTime int64
}

// NewLoader reads path once synchronously and returns a ready Loader, or an error if the
// initial load fails or fails Validate.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Current returns the most recently loaded Settings snapshot.
func (l *Loader) Current() *Settings {
	return l.current.Load()
}

// Poll checks the file's mtime and reloads if it changed since the last successful
// load, returning whether a reload happened and any error from a failed attempt (a
// failed reload leaves the previous snapshot in place).
func (l *Loader) Poll() (bool, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return false, err
	}
	mtime := info.ModTime().UnixNano()
	if mtime == l.modTime {
		return false, nil
	}
	if err := l.reload(); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Loader) reload() error {
	f, err := os.Open(l.path)
	if err != nil {
		return err
	}
	defer f.Close()

	var parsed Settings
	if err := yaml.NewDecoder(f).Decode(&parsed); err != nil {
		return err
	}
	if err := parsed.Validate(); err != nil {
		return err
	}

	info, err := os.Stat(l.path)
	if err != nil {
		return err
	}
	l.modTime = info.ModTime().UnixNano()
	l.current.Store(&parsed)
	return nil
}
