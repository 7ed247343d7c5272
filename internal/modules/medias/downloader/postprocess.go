package downloader

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/ruizlenato/mediasaver/internal/utils"
)

// Processor turns freshly fetched files into their final form.
type Processor struct {
	fs           afero.Fs
	runner       Runner
	namer        Namer
	conserveGifs bool
}

func NewProcessor(fs afero.Fs, runner Runner, namer Namer, conserveGifs bool) *Processor {
	return &Processor{
		fs:           fs,
		runner:       runner,
		namer:        namer,
		conserveGifs: conserveGifs,
	}
}

// Process returns the path of the final artifact. On failure the fetched
// file is left where it is.
func (p *Processor) Process(path string, task Task) (string, error) {
	if !p.runner.Available() {
		return path, nil
	}

	switch {
	case task.Extension == GIF && !p.conserveGifs:
		return p.convertGif(path)
	case task.Extension == ZIP:
		return p.extractArchive(path, task)
	}

	return path, nil
}

func (p *Processor) convertGif(path string) (string, error) {
	output := utils.SwapExtension(path, GIF, MP4)
	if exists, _ := afero.Exists(p.fs, output); exists {
		return output, nil
	}

	slog.Debug("Converting gif to mp4", "Path", output)
	if err := p.runner.Run(gifToMP4Args(path, output)...); err != nil {
		p.fs.Remove(output)
		return path, fmt.Errorf("convert %s: %w", path, err)
	}

	if err := p.fs.Remove(path); err != nil {
		return output, fmt.Errorf("remove %s: %w", path, err)
	}
	return output, nil
}

func (p *Processor) extractArchive(path string, task Task) (string, error) {
	if err := p.extractEntries(path, task); err != nil {
		return path, err
	}

	if err := p.fs.Remove(path); err != nil {
		return path, err
	}
	return path, nil
}

func (p *Processor) extractEntries(path string, task Task) error {
	file, err := p.fs.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	archive, err := zip.NewReader(file, info.Size())
	if err != nil {
		return fmt.Errorf("open archive %s: %w", path, err)
	}

	for i, entry := range archive.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		extension, err := entryExtension(entry)
		if err != nil {
			return fmt.Errorf("read archive entry %s: %w", entry.Name, err)
		}

		output := p.namer.Path(task, extension, i)
		slog.Debug("Extracting archive entry", "Path", output)
		if err := p.writeEntry(entry, output); err != nil {
			return fmt.Errorf("extract %s: %w", entry.Name, err)
		}
	}

	return nil
}

func (p *Processor) writeEntry(entry *zip.File, output string) error {
	reader, err := entry.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	out, err := p.fs.Create(output)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// entryExtension prefers the entry's own name and falls back to sniffing
// its content.
func entryExtension(entry *zip.File) (string, error) {
	if ext := utils.Extension(entry.Name); ext != "" {
		return ext, nil
	}

	reader, err := entry.Open()
	if err != nil {
		return "", err
	}
	defer reader.Close()

	mtype, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(mtype.Extension(), "."), nil
}

// Stitch muxes an audio-only stream into a video-only one. On success only
// the video path remains, now holding both streams. On failure the audio
// file is removed and the video-only file is kept.
func (p *Processor) Stitch(video, audio string) (string, error) {
	if !p.runner.Available() {
		return video, ErrFFmpegUnavailable
	}

	output := strings.TrimSuffix(video, "."+MP4) + MergedSuffix + "." + MP4
	cleanup := true
	defer func() {
		if !cleanup {
			return
		}
		if exists, _ := afero.Exists(p.fs, output); exists {
			p.fs.Remove(output)
		}
	}()

	if err := p.runner.Run(muxArgs(video, audio, output)...); err != nil {
		if rmErr := p.fs.Remove(audio); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
		return video, fmt.Errorf("merge audio and video: %w", err)
	}

	if err := p.fs.Remove(audio); err != nil {
		return video, err
	}
	if err := p.fs.Remove(video); err != nil {
		return video, err
	}
	// From here on the merged file is the only copy.
	cleanup = false
	if err := p.fs.Rename(output, video); err != nil {
		return output, err
	}

	slog.Debug("Merged audio and video", "Path", video)
	return video, nil
}
