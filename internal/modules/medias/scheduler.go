package medias

import (
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/ruizlenato/mediasaver/internal/database"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader/redgifs"
	"github.com/ruizlenato/mediasaver/internal/reddit"
	"github.com/ruizlenato/mediasaver/internal/utils"
)

const DefaultMaxConcurrent = 10

type Options struct {
	DataDir       string
	DryRun        bool
	HumanReadable bool
	ConserveGifs  bool
	MaxConcurrent int
}

// Scheduler downloads the media of a batch of posts, at most MaxConcurrent
// posts at a time.
type Scheduler struct {
	options   Options
	fs        afero.Fs
	namer     downloader.Namer
	fetcher   *downloader.Fetcher
	processor *downloader.Processor
	stats     *downloader.Stats
	runID     string

	resolvers  map[MediaType]resolveFunc
	fetchToken func() (string, error)
	token      string
}

func NewScheduler(fs afero.Fs, runner downloader.Runner, stats *downloader.Stats, options Options) *Scheduler {
	if options.MaxConcurrent <= 0 {
		options.MaxConcurrent = DefaultMaxConcurrent
	}

	namer := downloader.Namer{
		DataDir:       options.DataDir,
		HumanReadable: options.HumanReadable,
	}

	return &Scheduler{
		options:    options,
		fs:         fs,
		namer:      namer,
		fetcher:    downloader.NewFetcher(fs),
		processor:  downloader.NewProcessor(fs, runner, namer, options.ConserveGifs),
		stats:      stats,
		runID:      uuid.NewString(),
		resolvers:  maps.Clone(resolvers),
		fetchToken: redgifs.Token,
	}
}

func (s *Scheduler) RunID() string {
	return s.runID
}

// Run processes every post and returns the final counters. Individual
// failures are counted and logged, never returned.
func (s *Scheduler) Run(posts []reddit.Post) downloader.Snapshot {
	start := time.Now()
	s.prepare(posts)

	semaphore := make(chan struct{}, s.options.MaxConcurrent)
	var wg sync.WaitGroup
	for i := range posts {
		post := &posts[i]

		semaphore <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()
			s.process(post)
		}()
	}
	wg.Wait()

	snapshot := s.stats.Snapshot()
	slog.Info("Download summary",
		"Supported", snapshot.Supported,
		"Downloaded", snapshot.Downloaded,
		"Skipped", snapshot.Skipped,
		"Failed", snapshot.Failed,
		"Unsupported", snapshot.Unsupported,
		"Elapsed", time.Since(start).Round(time.Millisecond).String(),
		"Run", s.runID)

	return snapshot
}

// prepare fetches the redgifs token once, before any worker starts, so the
// workers only ever read it.
func (s *Scheduler) prepare(posts []reddit.Post) {
	for i := range posts {
		if Classify(&posts[i]) != HostedGif {
			continue
		}

		token, err := s.fetchToken()
		if err != nil {
			slog.Error("Failed to get redgifs token",
				"Error", err.Error())
			return
		}
		s.token = token
		return
	}
}

func (s *Scheduler) process(post *reddit.Post) {
	mediaType := Classify(post)
	resolve, ok := s.resolvers[mediaType]
	if !ok {
		slog.Debug("Unsupported URL",
			"Post", post.Data.Name,
			"URL", post.Data.URL)
		s.stats.Unsupported()
		return
	}

	resolution, err := resolve(s, post)
	if err != nil {
		slog.Error("Failed to resolve media",
			"Post", post.Data.Name,
			"Type", mediaType.String(),
			"URL", post.Data.URL,
			"Error", err.Error())
		s.stats.Failed()
		return
	}

	if resolution.Stitch && len(resolution.Tasks) == 2 {
		s.stitch(resolution.Tasks[0], resolution.Tasks[1])
		return
	}

	for _, task := range resolution.Tasks {
		if path, ok := s.schedule(task); ok {
			s.record(task, path)
		}
	}
}

// stitch fetches a video and its audio side by side and muxes them once
// both are on disk.
func (s *Scheduler) stitch(video, audio downloader.Task) {
	if !s.options.DryRun && s.alreadySaved(video, s.namer.TaskPath(video)) {
		for range 2 {
			s.stats.Supported()
			s.stats.Skipped()
		}
		return
	}

	var (
		wg                   sync.WaitGroup
		videoPath, audioPath string
		videoOK, audioOK     bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		videoPath, videoOK = s.schedule(video)
	}()
	go func() {
		defer wg.Done()
		audioPath, audioOK = s.schedule(audio)
	}()
	wg.Wait()

	if !videoOK {
		if audioOK {
			s.fs.Remove(audioPath)
		}
		return
	}

	if audioOK {
		path, err := s.processor.Stitch(videoPath, audioPath)
		if err != nil {
			slog.Warn("Failed to merge audio and video",
				"Video", videoPath,
				"Error", err.Error())
		}
		videoPath = path
	}
	s.record(video, videoPath)
}

// schedule runs one task and reports the final path when something new
// landed on disk.
func (s *Scheduler) schedule(task downloader.Task) (string, bool) {
	s.stats.Supported()

	if s.options.DryRun {
		slog.Info("Dry run",
			"URL", task.URL)
		s.stats.Skipped()
		return "", false
	}

	path := s.namer.TaskPath(task)
	if s.alreadySaved(task, path) {
		slog.Debug("Media already downloaded",
			"Path", path)
		s.stats.Skipped()
		return "", false
	}

	if err := s.fetcher.Fetch(path, task.URL); err != nil {
		if errors.Is(err, downloader.ErrContentRemoved) {
			slog.Warn("Media was removed by its host",
				"URL", task.URL)
			s.stats.Skipped()
			return "", false
		}

		slog.Error("Failed to download media",
			"URL", task.URL,
			"Error", err.Error())
		s.stats.Failed()
		return "", false
	}
	s.stats.Downloaded()

	final, err := s.processor.Process(path, task)
	if err != nil {
		slog.Error("Failed to post-process media",
			"Path", path,
			"Error", err.Error())
	}
	return final, true
}

func (s *Scheduler) alreadySaved(task downloader.Task, path string) bool {
	candidates := []string{
		path,
		utils.SwapExtension(path, downloader.GIF, downloader.MP4),
		utils.SwapExtension(path, downloader.ZIP, downloader.JPG),
	}
	if recorded, err := database.DownloadedPath(task.URL); err == nil && recorded != "" {
		candidates = append(candidates, recorded)
	}

	for _, candidate := range candidates {
		if s.exists(candidate) {
			return true
		}
	}
	return false
}

func (s *Scheduler) exists(path string) bool {
	exists, err := afero.Exists(s.fs, path)
	return err == nil && exists
}

func (s *Scheduler) record(task downloader.Task, path string) {
	err := database.SaveDownload(database.Download{
		URL:       task.URL,
		Path:      path,
		Subreddit: task.Subreddit,
		PostName:  task.Name,
		RunID:     s.runID,
	})
	if err != nil {
		slog.Warn("Failed to record download",
			"Path", path,
			"Error", err.Error())
	}
}
