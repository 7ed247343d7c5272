package medias

import (
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader/giphy"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader/imgur"
	redditmedia "github.com/ruizlenato/mediasaver/internal/modules/medias/downloader/reddit"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader/redgifs"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader/streamable"
	"github.com/ruizlenato/mediasaver/internal/reddit"
)

type resolveFunc func(s *Scheduler, post *reddit.Post) (*downloader.Resolution, error)

// withoutState adapts resolvers that need nothing from the run.
func withoutState(resolve func(*reddit.Post) (*downloader.Resolution, error)) resolveFunc {
	return func(_ *Scheduler, post *reddit.Post) (*downloader.Resolution, error) {
		return resolve(post)
	}
}

// Unsupported has no entry; the scheduler counts it without resolving.
var resolvers = map[MediaType]resolveFunc{
	Gallery:       withoutState(redditmedia.Gallery),
	PrimaryImage:  withoutState(redditmedia.Image),
	AnimatedImage: withoutState(redditmedia.Image),
	NativeVideo:   withoutState(redditmedia.Video),
	HostedGif: func(s *Scheduler, post *reddit.Post) (*downloader.Resolution, error) {
		return redgifs.Resolve(post, s.token)
	},
	ThirdPartyGif:      withoutState(giphy.Resolve),
	ThirdPartyImage:    withoutState(imgur.Image),
	ThirdPartyGifVideo: withoutState(imgur.GifVideo),
	ThirdPartyAlbum:    withoutState(imgur.Album),
	ThirdPartyUnknown:  withoutState(imgur.Unknown),
	ExternalVideoHost:  withoutState(streamable.Resolve),
}
