package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// CyclistFS is an Afero FS with the few OS lookups config loading needs,
// so tests can run entirely in memory.
type CyclistFS interface {
	afero.Fs
	Abs(string) (string, error)
	HomeDir() (string, error)
}

type cyclistOSFS struct {
	afero.Fs
}

func newCyclistOSFS() CyclistFS {
	return &cyclistOSFS{
		afero.NewOsFs(),
	}
}

func (c *cyclistOSFS) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

func (c *cyclistOSFS) HomeDir() (string, error) {
	return os.UserHomeDir()
}

type cyclistMemFS struct {
	afero.Fs
}

func NewCyclistMemFS() CyclistFS {
	return &cyclistMemFS{
		afero.NewMemMapFs(),
	}
}

func (c *cyclistMemFS) Abs(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join("/", path), nil
}

func (c *cyclistMemFS) HomeDir() (string, error) {
	return "/", nil
}

// readOptionalFile returns the file's contents, or ok == false if it does
// not exist.
func readOptionalFile(fsys afero.Fs, path string) (data []byte, ok bool, err error) {
	data, err = afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}
