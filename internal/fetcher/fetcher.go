// Package fetcher retrieves knowledge-base snapshots and price sheets from
// local files, HTTP(S) and FTP sources.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher defines the interface for downloading a source.
type Fetcher interface {
	// Download fetches the source and returns its body.
	Download(ctx context.Context, source string) (io.ReadCloser, error)
}

// FileFetcher reads local paths and file:// URLs.
type FileFetcher struct{}

// Download opens the local file named by source.
func (FileFetcher) Download(_ context.Context, source string) (io.ReadCloser, error) {
	path := source
	if strings.HasPrefix(source, "file://") {
		u, err := url.Parse(source)
		if err != nil {
			return nil, eris.Wrap(err, "parse file url")
		}
		path = u.Path
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	return f, nil
}

// Opener dispatches a source to the fetcher for its scheme.
type Opener struct {
	HTTP Fetcher
	FTP  Fetcher
	File Fetcher
}

// Options configures NewOpener.
type Options struct {
	HTTP HTTPOptions
	FTP  FTPOptions
}

// NewOpener returns an Opener backed by the HTTP, FTP and file fetchers.
func NewOpener(opts Options) *Opener {
	return &Opener{
		HTTP: NewHTTPFetcher(opts.HTTP),
		FTP:  NewFTPFetcher(opts.FTP),
		File: FileFetcher{},
	}
}

// Open fetches source with the fetcher registered for its scheme. Sources
// without a scheme are local paths.
func (o *Opener) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	var f Fetcher
	switch Scheme(source) {
	case "http", "https":
		f = o.HTTP
	case "ftp":
		f = o.FTP
	case "", "file":
		f = o.File
	default:
		return nil, eris.Errorf("fetcher: unsupported source %q", source)
	}
	if f == nil {
		return nil, eris.Errorf("fetcher: no fetcher configured for %q", source)
	}
	return f.Download(ctx, source)
}

// Scheme returns the lowercase URL scheme of source, or "" for a plain path.
func Scheme(source string) string {
	i := strings.Index(source, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(source[:i])
}
