// Package manifest picks the best video and audio renditions out of the
// streaming manifests reddit publishes next to every hosted video.
package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/ruizlenato/mediasaver/internal/utils"
)

const (
	kindVideo = "video"
	kindAudio = "audio"
)

// representation tracks the winning entry of one kind while scanning.
type representation struct {
	bandwidth int64
	url       string
	seen      bool
}

// ParseDASH scans an MPD document and returns the BaseURL of the highest
// bandwidth video and audio representations. Either may be empty. A broken
// document stops the scan and whatever was captured up to that point is
// returned.
func ParseDASH(r io.Reader) (video, audio string) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	best := map[string]*representation{
		kindVideo: {},
		kindAudio: {},
	}

	var setKind, pending string
	for {
		token, err := decoder.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("Stopped parsing DASH manifest",
					"Error", err.Error())
			}
			break
		}

		switch element := token.(type) {
		case xml.StartElement:
			switch element.Name.Local {
			case "AdaptationSet":
				setKind = adaptationKind(element)
			case "Representation":
				pending = ""
				kind := setKind
				if mimeType := attr(element, "mimeType"); mimeType != "" {
					kind = mimeKind(mimeType)
				}

				current, ok := best[kind]
				if !ok {
					continue
				}

				bandwidth, _ := strconv.ParseInt(attr(element, "bandwidth"), 10, 64)
				if !current.seen || bandwidth >= current.bandwidth {
					current.bandwidth = bandwidth
					current.seen = true
					pending = kind
				}
			}
		case xml.EndElement:
			if element.Name.Local == "AdaptationSet" {
				setKind = ""
			}
		case xml.CharData:
			if pending == "" {
				continue
			}
			if text := strings.TrimSpace(string(element)); text != "" {
				best[pending].url = text
				pending = ""
			}
		}
	}

	return best[kindVideo].url, best[kindAudio].url
}

func adaptationKind(element xml.StartElement) string {
	if contentType := attr(element, "contentType"); contentType != "" {
		return strings.ToLower(contentType)
	}
	return mimeKind(attr(element, "mimeType"))
}

func mimeKind(mimeType string) string {
	kind, _, _ := strings.Cut(strings.ToLower(mimeType), "/")
	return kind
}

func attr(element xml.StartElement, name string) string {
	for _, a := range element.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// SelectBest downloads the manifest at url and parses it.
func SelectBest(url string) (video, audio string, err error) {
	body, err := fetch(url)
	if err != nil {
		return "", "", err
	}

	video, audio = ParseDASH(bytes.NewReader(body))
	return video, audio, nil
}

func fetch(url string) ([]byte, error) {
	request, response, err := utils.DefaultRetryCaller.Request(url, utils.RequestParams{
		Method:    fasthttp.MethodGet,
		Redirects: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch manifest %s: %w", url, err)
	}
	defer utils.ReleaseRequestResources(request, response)

	if response.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("fetch manifest %s: unexpected status %d", url, response.StatusCode())
	}

	return bytes.Clone(response.Body()), nil
}
