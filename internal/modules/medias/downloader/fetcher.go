package downloader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/valyala/fasthttp"

	"github.com/ruizlenato/mediasaver/internal/utils"
)

const (
	fetchRedirects = 10
	removedMarker  = "i.imgur.com/removed"
)

// Fetcher performs one GET per call and streams the body to disk.
type Fetcher struct {
	fs afero.Fs
}

func NewFetcher(fs afero.Fs) *Fetcher {
	return &Fetcher{fs: fs}
}

func (f *Fetcher) Fetch(path, url string) error {
	if err := f.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDirectory, err)
	}

	request, response, err := utils.Request(url, utils.RequestParams{
		Method:    fasthttp.MethodGet,
		Redirects: fetchRedirects,
		Headers:   GenericHeaders,
	})
	if err != nil {
		return err
	}
	defer utils.ReleaseRequestResources(request, response)

	// DoRedirects leaves the request pointing at the last hop.
	final := string(request.URI().Host()) + string(request.URI().Path())
	if strings.Contains(final, removedMarker) {
		return ErrContentRemoved
	}

	if status := response.StatusCode(); status < 200 || status > 299 {
		return fmt.Errorf("unexpected status %d from %s", status, url)
	}

	file, err := f.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := response.BodyWriteTo(file); err != nil {
		file.Close()
		f.fs.Remove(path)
		return fmt.Errorf("save %s: %w", url, err)
	}

	if err := file.Close(); err != nil {
		f.fs.Remove(path)
		return fmt.Errorf("save %s: %w", url, err)
	}

	slog.Debug("Saved media",
		"Path", path,
		"URL", url)
	return nil
}
