// Package pages maps request paths onto page files and loads them.
package pages

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/indigo-web/pages/internal/pathlib"
	"github.com/spf13/afero"
)

var ErrNotFound = errors.New("pages: page not found")

type Layout struct {
	// Root is the directory every page is looked up in.
	Root string
	// Index is the page served for the "/" path.
	Index string
	// Extension is appended to every other request path.
	Extension string
	// NotFound is the page served when the requested one is missing.
	NotFound string
}

// Resolver is the only entity touching the filesystem. All reads go through an
// afero.BasePathFs rooted at Layout.Root, so nothing outside of the root is reachable
// even if a name slips through the path checks
type Resolver struct {
	fs     afero.Fs
	layout Layout
	logger *slog.Logger
}

func NewResolver(base afero.Fs, layout Layout, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		fs:     afero.NewBasePathFs(base, layout.Root),
		layout: layout,
		logger: logger,
	}
}

// Resolve maps a request path to a page name relative to the root. "/" is the index
// page, anything else gets the extension appended after the path is cleaned. Traversal
// attempts result in ErrNotFound
func (r *Resolver) Resolve(path string) (string, error) {
	if path == "/" {
		return "/" + r.layout.Index, nil
	}

	name, ok := pathlib.Clean(path)
	if !ok {
		return "", ErrNotFound
	}

	return name + r.layout.Extension, nil
}

// NotFoundPage returns the name of the fallback page
func (r *Resolver) NotFoundPage() string {
	return "/" + r.layout.NotFound
}

// Load reads the page. Every failure is reported as ErrNotFound, however errors other
// than a missing file are logged, as they usually point at a misconfiguration
func (r *Resolver) Load(name string) ([]byte, error) {
	content, err := afero.ReadFile(r.fs, name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("an error has occurred when reading a page", "page", name, "error", err)
		}

		return nil, errors.Join(ErrNotFound, err)
	}

	return content, nil
}
