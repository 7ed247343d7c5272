package reddit

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/manifest"
	"github.com/ruizlenato/mediasaver/internal/reddit"
	"github.com/ruizlenato/mediasaver/internal/utils"
)

const (
	imageHost        = "https://i.redd.it"
	dashPlaylistName = "DASHPlaylist.mpd"
	dashMarker       = "DASH"
)

var (
	ErrNoFallback = errors.New("reddit video has no fallback url")
	ErrNoVideo    = errors.New("could not find video in manifest")
)

// Gallery turns every gallery item into its own task, indexed by position.
func Gallery(post *reddit.Post) (*downloader.Resolution, error) {
	if !post.IsGallery() {
		return nil, fmt.Errorf("%w: %s is not a gallery", downloader.ErrUnsupportedURL, post.Data.Name)
	}

	resolution := &downloader.Resolution{}
	for index, item := range post.Data.GalleryData.Items {
		extension := downloader.JPG
		if media, ok := post.Data.MediaMetadata[item.MediaID]; ok && media.M != "" {
			extension = utils.LastSegment(media.M)
		}

		url := fmt.Sprintf("%s/%s.%s", imageHost, item.MediaID, extension)
		resolution.Tasks = append(resolution.Tasks, downloader.NewTask(post, url, extension, index))
	}

	return resolution, nil
}

// Image handles direct i.redd.it links.
func Image(post *reddit.Post) (*downloader.Resolution, error) {
	url := post.URL()
	extension := utils.Extension(url)
	if extension == "" {
		return nil, fmt.Errorf("%w: %s", downloader.ErrUnsupportedURL, url)
	}
	return downloader.Single(downloader.NewTask(post, url, extension, 0)), nil
}

// Video resolves a v.redd.it post into its best video stream and, when
// one exists, the separate audio stream that has to be muxed back in.
func Video(post *reddit.Post) (*downloader.Resolution, error) {
	metadata := post.RedditVideo()
	if metadata == nil {
		return nil, fmt.Errorf("%w: %s has no video metadata", downloader.ErrUnsupportedURL, post.Data.Name)
	}

	base := post.URL()
	if !utils.HasExtension(base, downloader.MP4) {
		if metadata.FallbackURL == "" {
			return nil, ErrNoFallback
		}
		base = strings.Replace(metadata.FallbackURL, "?source=fallback", "", 1)
	}
	baseIsRendition := strings.Contains(utils.LastSegment(base), dashMarker)

	var videoURL, audioURL string
	if baseIsRendition || metadata.DashURL != "" {
		manifestURL := metadata.DashURL
		if manifestURL == "" {
			manifestURL = utils.BaseDir(base) + "/" + dashPlaylistName
		}

		video, audio, err := manifest.SelectBest(manifestURL)
		if err != nil {
			slog.Warn("Could not read video manifest",
				"Post", post.Data.Name,
				"URL", manifestURL,
				"Error", err.Error())
		}
		if video != "" {
			videoURL = manifest.Resolve(base, video)
		}
		if audio != "" {
			audioURL = manifest.Resolve(base, audio)
		}
	}

	if videoURL == "" {
		if !baseIsRendition {
			return nil, ErrNoVideo
		}
		videoURL = base
	}

	if audioURL == "" && metadata.HlsURL != "" {
		_, audio, err := manifest.SelectBestHLS(metadata.HlsURL)
		if err != nil {
			slog.Debug("Could not read HLS playlist",
				"Post", post.Data.Name,
				"Error", err.Error())
		}
		audioURL = audio
	}

	video := downloader.NewTask(post, videoURL, downloader.MP4, 0)
	if audioURL == "" {
		return downloader.Single(video), nil
	}

	audioExtension := utils.Extension(audioURL)
	if audioExtension == "" {
		audioExtension = downloader.MP4
	}

	return &downloader.Resolution{
		Tasks:  []downloader.Task{video, downloader.NewTask(post, audioURL, audioExtension, 1)},
		Stitch: true,
	}, nil
}
