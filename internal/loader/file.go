package loader

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileLoader reads playlists and subresources from the local filesystem,
// supporting both file:// URLs and bare relative paths rooted at
// RootPath — the engine's rootPath option (spec §6).
type FileLoader struct {
	RootPath string
}

// NewFileLoader builds a FileLoader rooted at root. An empty root
// defaults to the process working directory, matching spec §6's
// "defaults to the process working directory".
func NewFileLoader(root string) *FileLoader {
	return &FileLoader{RootPath: root}
}

// Load implements Loader.
func (f *FileLoader) Load(_ context.Context, url string, _ Options, cb func(Result, error)) {
	p, err := f.resolve(url)
	if err != nil {
		cb(Result{}, err)
		return
	}

	data, err := os.ReadFile(p)
	if err != nil {
		cb(Result{}, fmt.Errorf("read %s: %w", p, err))
		return
	}

	cb(Result{Data: data, MimeType: guessFileMimeType(p)}, nil)
}

func (f *FileLoader) resolve(url string) (string, error) {
	p := strings.TrimPrefix(url, "file://")
	if filepath.IsAbs(p) {
		return p, nil
	}
	root := f.RootPath
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory for %s: %w", url, err)
		}
		root = wd
	}
	return filepath.Join(root, p), nil
}

func guessFileMimeType(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}
