package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/grafov/m3u8"
)

var ErrNotMasterPlaylist = errors.New("not a master playlist")

// SelectBestHLS reads the HLS master playlist at link and returns the
// highest bandwidth variant and the best audio rendition, both absolute.
// Reddit serves the audio segments as plain AAC next to the playlist, so
// the audio URI points at the .aac file rather than its media playlist.
func SelectBestHLS(link string) (video, audio string, err error) {
	body, err := fetch(link)
	if err != nil {
		return "", "", err
	}

	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
	if err != nil {
		return "", "", fmt.Errorf("decode playlist %s: %w", link, err)
	}
	if listType != m3u8.MASTER {
		return "", "", ErrNotMasterPlaylist
	}

	master := playlist.(*m3u8.MasterPlaylist)
	if variant := highestVariant(master); variant != nil {
		video = Resolve(link, variant.URI)
	}
	if alternative := highestAudio(master); alternative != nil && alternative.URI != "" {
		audio = Resolve(link, strings.ReplaceAll(alternative.URI, ".m3u8", ".aac"))
	}

	return video, audio, nil
}

func highestVariant(playlist *m3u8.MasterPlaylist) *m3u8.Variant {
	var best *m3u8.Variant
	for _, variant := range playlist.Variants {
		if variant == nil {
			continue
		}
		if best == nil || variant.Bandwidth >= best.Bandwidth {
			best = variant
		}
	}
	return best
}

func highestAudio(playlist *m3u8.MasterPlaylist) *m3u8.Alternative {
	var best *m3u8.Alternative
	for _, variant := range playlist.Variants {
		if variant == nil {
			continue
		}
		for _, alternative := range variant.Alternatives {
			if alternative == nil || (alternative.Type != "" && alternative.Type != "AUDIO") {
				continue
			}
			if best == nil || alternative.GroupId > best.GroupId {
				best = alternative
			}
		}
	}
	return best
}

// Resolve makes ref absolute against base. Unparseable input is returned
// as the plain ref.
func Resolve(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
