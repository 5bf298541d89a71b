package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrChecksDirMissing = errors.New(`le dossier sélectionné ne contient pas de sous-dossier "checks"`)
	ErrNotGranted       = errors.New("l'accès au dossier n'a pas été accordé")
)

// Workspace guards file-system access to one catalog root. A Workspace is
// immutable: Grant returns a granted copy, and Verify re-probes that copy
// before each batch of writes.
type Workspace struct {
	checksDir    string
	manifestPath string
	granted      bool
}

// OpenWorkspace checks that the catalog layout is present. The manifest may
// be missing; it is created on first save.
func OpenWorkspace(checksDir, manifestPath string) (*Workspace, error) {
	info, err := os.Stat(checksDir)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("%s is not a directory", checksDir)
	}
	if err != nil {
		return nil, accessError(fmt.Errorf("%w: %v", ErrChecksDirMissing, err), "cannot open catalog")
	}
	return &Workspace{checksDir: checksDir, manifestPath: manifestPath}, nil
}

func (w *Workspace) ChecksDir() string { return w.checksDir }
func (w *Workspace) ManifestPath() string { return w.manifestPath }

// Grant requests read/write access and returns a granted copy of w. It
// succeeds only when both stores are writable.
func (w *Workspace) Grant() (*Workspace, error) {
	if err := w.probe(); err != nil {
		return nil, err
	}
	return w.withGrant(), nil
}

// withGrant marks a copy of w granted without probing.
func (w *Workspace) withGrant() *Workspace {
	granted := *w
	granted.granted = true
	return &granted
}

func (w *Workspace) Granted() bool { return w.granted }

// Verify re-checks a previous grant without requesting a new one.
func (w *Workspace) Verify() error {
	if !w.granted {
		return accessError(ErrNotGranted, "workspace access not granted")
	}
	return w.probe()
}

func (w *Workspace) probe() error {
	if err := dirWritable(w.checksDir); err != nil {
		return accessError(err, "checks directory is not writable")
	}
	if f, err := os.OpenFile(w.manifestPath, os.O_WRONLY, 0); err == nil {
		f.Close()
	} else if !os.IsNotExist(err) {
		return accessError(err, "manifest.json is not writable")
	} else if err := dirWritable(filepath.Dir(w.manifestPath)); err != nil {
		return accessError(err, "cannot create manifest.json")
	}
	return nil
}

// dirWritable proves dir accepts new files by creating and removing one.
func dirWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	f, err := os.CreateTemp(dir, ".checkdocs-grant-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
