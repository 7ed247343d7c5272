package imgur

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader"
	"github.com/ruizlenato/mediasaver/internal/reddit"
	"github.com/ruizlenato/mediasaver/internal/utils"
)

var ErrUnknownType = errors.New("cannot determine imgur image type")

// probes are tried in order against extensionless imgur links.
var probes = []struct {
	extension string
	mime      string
}{
	{downloader.JPG, "image/jpeg"},
	{downloader.PNG, "image/png"},
}

func Image(post *reddit.Post) (*downloader.Resolution, error) {
	url := post.URL()
	return downloader.Single(downloader.NewTask(post, url, utils.Extension(url), 0)), nil
}

// GifVideo points gif and gifv links at the mp4 imgur serves for them.
func GifVideo(post *reddit.Post) (*downloader.Resolution, error) {
	url := post.URL()
	url = utils.SwapExtension(url, downloader.GIFV, downloader.MP4)
	url = utils.SwapExtension(url, downloader.GIF, downloader.MP4)
	return downloader.Single(downloader.NewTask(post, url, downloader.MP4, 0)), nil
}

// Album downloads the whole album as one archive.
func Album(post *reddit.Post) (*downloader.Resolution, error) {
	url := post.URL() + "/zip"
	return downloader.Single(downloader.NewTask(post, url, downloader.ZIP, 0)), nil
}

// Unknown guesses the type of an extensionless link by asking the server
// for each candidate.
func Unknown(post *reddit.Post) (*downloader.Resolution, error) {
	base := post.URL()
	for _, probe := range probes {
		url := base + "." + probe.extension
		if hasMimeType(url, probe.mime) {
			return downloader.Single(downloader.NewTask(post, url, probe.extension, 0)), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, base)
}

func hasMimeType(url, want string) bool {
	contentType, err := utils.ContentType(url)
	if err != nil {
		slog.Debug("Probe failed",
			"URL", url,
			"Error", err.Error())
		return false
	}

	mtype := mimetype.Lookup(contentType)
	return mtype != nil && mtype.Is(want)
}
