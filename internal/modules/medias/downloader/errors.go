package downloader

import "errors"

var (
	ErrCreateDirectory   = errors.New("could not create directory")
	ErrContentRemoved    = errors.New("media has been removed by its host")
	ErrFFmpeg            = errors.New("ffmpeg error")
	ErrFFmpegUnavailable = errors.New("ffmpeg is not available")
	ErrUnsupportedURL    = errors.New("unsupported url")
)
