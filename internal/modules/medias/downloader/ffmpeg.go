package downloader

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
)

const (
	FFmpegCommand = "ffmpeg"
	FastStartFlag = "+faststart"
	PixelFormat   = "yuv420p"
	EvenScale     = "scale=trunc(iw/2)*2:trunc(ih/2)*2"
	MergedSuffix  = "-merged"
)

// Runner starts the transcoder and waits for it to exit.
type Runner interface {
	Available() bool
	Run(args ...string) error
}

// FFmpeg runs the ffmpeg binary found in PATH with its output discarded.
type FFmpeg struct {
	Binary string

	once      sync.Once
	available bool
}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{Binary: FFmpegCommand}
}

func (f *FFmpeg) Available() bool {
	f.once.Do(func() {
		_, err := exec.LookPath(f.Binary)
		f.available = err == nil
	})
	return f.available
}

func (f *FFmpeg) Run(args ...string) error {
	cmd := exec.Command(f.Binary, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %w", ErrFFmpeg, err)
	}
	return nil
}

func gifToMP4Args(input, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-movflags", FastStartFlag,
		"-pix_fmt", PixelFormat,
		"-vf", EvenScale,
		output,
	}
}

func muxArgs(video, audio, output string) []string {
	return []string{
		"-y",
		"-i", video,
		"-i", audio,
		"-c", "copy",
		"-map", "1:a",
		"-map", "0:v",
		output,
	}
}
