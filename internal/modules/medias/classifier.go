package medias

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader"
	"github.com/ruizlenato/mediasaver/internal/reddit"
	"github.com/ruizlenato/mediasaver/internal/utils"
)

type MediaType int

const (
	Unsupported MediaType = iota
	Gallery
	PrimaryImage
	AnimatedImage
	NativeVideo
	HostedGif
	ThirdPartyGif
	ThirdPartyImage
	ThirdPartyGifVideo
	ThirdPartyAlbum
	ThirdPartyUnknown
	ExternalVideoHost
)

var mediaTypeNames = map[MediaType]string{
	Unsupported:        "Unsupported",
	Gallery:            "Gallery",
	PrimaryImage:       "PrimaryImage",
	AnimatedImage:      "AnimatedImage",
	NativeVideo:        "NativeVideo",
	HostedGif:          "HostedGif",
	ThirdPartyGif:      "ThirdPartyGif",
	ThirdPartyImage:    "ThirdPartyImage",
	ThirdPartyGifVideo: "ThirdPartyGifVideo",
	ThirdPartyAlbum:    "ThirdPartyAlbum",
	ThirdPartyUnknown:  "ThirdPartyUnknown",
	ExternalVideoHost:  "ExternalVideoHost",
}

func (m MediaType) String() string {
	if name, ok := mediaTypeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MediaType(%d)", int(m))
}

// signature matches one host. classify returns false when the host matched
// but the link is not one it understands, and later signatures get a try.
type signature struct {
	host     string
	classify func(link *url.URL, post *reddit.Post) (MediaType, bool)
}

var signatures = []signature{
	{"i.redd.it", func(link *url.URL, _ *reddit.Post) (MediaType, bool) {
		switch utils.Extension(link.Path) {
		case downloader.JPG, downloader.JPEG, downloader.PNG:
			return PrimaryImage, true
		case downloader.GIF:
			return AnimatedImage, true
		}
		return Unsupported, false
	}},
	{"v.redd.it", func(_ *url.URL, post *reddit.Post) (MediaType, bool) {
		if post.RedditVideo() == nil {
			return Unsupported, true
		}
		return NativeVideo, true
	}},
	{"redgifs.com", func(*url.URL, *reddit.Post) (MediaType, bool) {
		return HostedGif, true
	}},
	{"giphy.com", func(*url.URL, *reddit.Post) (MediaType, bool) {
		return ThirdPartyGif, true
	}},
	{"imgur.com", func(link *url.URL, _ *reddit.Post) (MediaType, bool) {
		if strings.HasPrefix(link.Path, "/a/") {
			return ThirdPartyAlbum, true
		}
		if !strings.EqualFold(link.Hostname(), "i.imgur.com") {
			return ThirdPartyUnknown, true
		}
		switch utils.Extension(link.Path) {
		case downloader.GIFV, downloader.GIF, downloader.MP4:
			return ThirdPartyGifVideo, true
		case downloader.JPG, downloader.JPEG, downloader.PNG:
			return ThirdPartyImage, true
		}
		return Unsupported, false
	}},
	{"streamable.com", func(*url.URL, *reddit.Post) (MediaType, bool) {
		return ExternalVideoHost, true
	}},
}

// Classify decides which resolver handles post. It does no I/O.
func Classify(post *reddit.Post) MediaType {
	if post.IsGallery() {
		return Gallery
	}

	link, err := url.Parse(post.URL())
	if err != nil || link.Host == "" {
		return Unsupported
	}

	host := strings.ToLower(link.Hostname())
	for _, sig := range signatures {
		if host != sig.host && !strings.HasSuffix(host, "."+sig.host) {
			continue
		}
		if mediaType, ok := sig.classify(link, post); ok {
			return mediaType
		}
		slog.Warn("Unrecognised media link",
			"Host", sig.host,
			"URL", link.String())
	}

	return Unsupported
}
