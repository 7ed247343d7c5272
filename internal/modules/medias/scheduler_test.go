package medias

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/ruizlenato/mediasaver/internal/database"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader/redgifs"
	"github.com/ruizlenato/mediasaver/internal/reddit"
	"github.com/ruizlenato/mediasaver/internal/utils/fasthttptest"
)

const dataDir = "/data"

type fakeRunner struct {
	fs        afero.Fs
	available bool

	mu    sync.Mutex
	calls int
}

func (r *fakeRunner) Available() bool { return r.available }

func (r *fakeRunner) Run(args ...string) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return afero.WriteFile(r.fs, args[len(args)-1], []byte("merged"), 0o644)
}

const stitchManifest = `<MPD><Period>
<AdaptationSet contentType="video">
<Representation bandwidth="2400000"><BaseURL>DASH_1080.mp4</BaseURL></Representation>
</AdaptationSet>
<AdaptationSet contentType="audio">
<Representation bandwidth="128000"><BaseURL>DASH_AUDIO_128.mp4</BaseURL></Representation>
</AdaptationSet>
</Period></MPD>`

func mediaServer(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Host()) + string(ctx.Path()) {
	case "i.redd.it/a.jpg", "i.redd.it/b.png":
		ctx.SetBodyString("image")
	case "i.redd.it/c.gif":
		ctx.SetBodyString("GIF89a")
	case "i.imgur.com/gone.jpg":
		ctx.Redirect("http://i.imgur.com/removed.png", fasthttp.StatusFound)
	case "i.imgur.com/removed.png":
		ctx.SetBodyString("placeholder")
	case "v.redd.it/abc/DASHPlaylist.mpd":
		ctx.SetBodyString(stitchManifest)
	case "v.redd.it/abc/DASH_1080.mp4":
		ctx.SetBodyString("video")
	case "v.redd.it/abc/DASH_AUDIO_128.mp4":
		ctx.SetBodyString("audio")
	case "api.redgifs.com/v2/gifs/one":
		if string(ctx.Request.Header.Peek("Authorization")) != "Bearer secret" {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"gif":{"id":"one","urls":{"hd":"http://media.redgifs.com/One.mp4"}}}`)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func newTestScheduler(t *testing.T, fs afero.Fs, options Options) (*Scheduler, *downloader.Stats, *fakeRunner) {
	t.Helper()
	options.DataDir = dataDir
	runner := &fakeRunner{fs: fs, available: true}
	stats := &downloader.Stats{}
	scheduler := NewScheduler(fs, runner, stats, options)
	scheduler.fetchToken = func() (string, error) {
		return "", errors.New("no token in tests")
	}
	return scheduler, stats, runner
}

func post(name, url string) reddit.Post {
	return reddit.Post{Data: reddit.PostData{
		Subreddit: "pics",
		Name:      name,
		Title:     "title " + name,
		URL:       url,
	}}
}

func videoPost() reddit.Post {
	p := post("t3_vid", "http://v.redd.it/abc")
	p.Data.Subreddit = "videos"
	p.Data.Media = &reddit.Media{RedditVideo: &reddit.RedditVideo{
		FallbackURL: "http://v.redd.it/abc/DASH_720.mp4?source=fallback",
	}}
	return p
}

func openLedger(t *testing.T) {
	t.Helper()
	require.NoError(t, database.Open(filepath.Join(t.TempDir(), "history.db")))
	require.NoError(t, database.CreateTables())
	t.Cleanup(database.Close)
}

func taskPath(subreddit, url, extension string) string {
	return downloader.Namer{DataDir: dataDir}.TaskPath(downloader.Task{
		URL:       url,
		Subreddit: subreddit,
		Extension: extension,
	})
}

func TestRunDownloadsThenSkipsOnRerun(t *testing.T) {
	fasthttptest.Serve(t, mediaServer)
	fs := afero.NewMemMapFs()

	posts := []reddit.Post{
		post("t3_a", "http://i.redd.it/a.jpg"),
		post("t3_b", "http://i.redd.it/b.png"),
		post("t3_c", "https://example.com/page"),
	}

	scheduler, _, _ := newTestScheduler(t, fs, Options{})
	snapshot := scheduler.Run(posts)
	require.Equal(t, downloader.Snapshot{Supported: 2, Downloaded: 2, Unsupported: 1}, snapshot)

	data, err := afero.ReadFile(fs, taskPath("pics", "http://i.redd.it/a.jpg", downloader.JPG))
	require.NoError(t, err)
	require.Equal(t, "image", string(data))

	again, _, _ := newTestScheduler(t, fs, Options{})
	snapshot = again.Run(posts)
	require.Equal(t, downloader.Snapshot{Supported: 2, Skipped: 2, Unsupported: 1}, snapshot)
}

func TestRunDryRun(t *testing.T) {
	fasthttptest.Serve(t, mediaServer)
	fs := afero.NewMemMapFs()

	scheduler, _, runner := newTestScheduler(t, fs, Options{DryRun: true})
	snapshot := scheduler.Run([]reddit.Post{
		post("t3_a", "http://i.redd.it/a.jpg"),
		videoPost(),
	})

	// Resolution still happens, so the video contributes both of its streams.
	require.Equal(t, downloader.Snapshot{Supported: 3, Skipped: 3}, snapshot)
	require.Zero(t, runner.calls)

	exists, err := afero.DirExists(fs, dataDir)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestRunDryRunFetchesRedgifsToken(t *testing.T) {
	fasthttptest.Serve(t, mediaServer)
	previous := redgifs.APIBase
	redgifs.APIBase = "http://api.redgifs.com/v2"
	t.Cleanup(func() { redgifs.APIBase = previous })

	fs := afero.NewMemMapFs()
	scheduler, _, _ := newTestScheduler(t, fs, Options{DryRun: true})

	var calls atomic.Int32
	scheduler.fetchToken = func() (string, error) {
		calls.Add(1)
		return "secret", nil
	}

	snapshot := scheduler.Run([]reddit.Post{post("t3_a", "https://www.redgifs.com/watch/one")})
	require.Equal(t, downloader.Snapshot{Supported: 1, Skipped: 1}, snapshot)
	require.Equal(t, int32(1), calls.Load())
}

func TestRunSkipsMediaRecordedInLedger(t *testing.T) {
	fasthttptest.Serve(t, mediaServer)
	openLedger(t)
	fs := afero.NewMemMapFs()

	require.NoError(t, afero.WriteFile(fs, "/archive/a.jpg", []byte("image"), 0o644))
	require.NoError(t, database.SaveDownload(database.Download{
		URL:  "http://i.redd.it/a.jpg",
		Path: "/archive/a.jpg",
	}))

	scheduler, _, _ := newTestScheduler(t, fs, Options{})
	snapshot := scheduler.Run([]reddit.Post{post("t3_a", "http://i.redd.it/a.jpg")})
	require.Equal(t, downloader.Snapshot{Supported: 1, Skipped: 1}, snapshot)

	exists, err := afero.Exists(fs, taskPath("pics", "http://i.redd.it/a.jpg", downloader.JPG))
	require.NoError(t, err)
	require.False(t, exists)
}

func TestRunCountsFailures(t *testing.T) {
	fasthttptest.Serve(t, mediaServer)
	fs := afero.NewMemMapFs()

	noFallback := post("t3_v", "http://v.redd.it/xyz")
	noFallback.Data.Media = &reddit.Media{RedditVideo: &reddit.RedditVideo{}}

	scheduler, _, _ := newTestScheduler(t, fs, Options{})
	snapshot := scheduler.Run([]reddit.Post{
		post("t3_missing", "http://i.redd.it/missing.jpg"),
		post("t3_gone", "http://i.imgur.com/gone.jpg"),
		noFallback,
	})

	require.Equal(t, downloader.Snapshot{Supported: 2, Skipped: 1, Failed: 2}, snapshot)
}

func TestRunConvertsGifAndSkipsAlternate(t *testing.T) {
	fasthttptest.Serve(t, mediaServer)
	fs := afero.NewMemMapFs()
	posts := []reddit.Post{post("t3_c", "http://i.redd.it/c.gif")}

	scheduler, _, runner := newTestScheduler(t, fs, Options{})
	snapshot := scheduler.Run(posts)
	require.Equal(t, uint32(1), snapshot.Downloaded)
	require.Equal(t, 1, runner.calls)

	gif := taskPath("pics", "http://i.redd.it/c.gif", downloader.GIF)
	exists, _ := afero.Exists(fs, gif)
	require.False(t, exists)
	exists, _ = afero.Exists(fs, gif[:len(gif)-len(downloader.GIF)]+downloader.MP4)
	require.True(t, exists)

	again, _, _ := newTestScheduler(t, fs, Options{})
	snapshot = again.Run(posts)
	require.Equal(t, downloader.Snapshot{Supported: 1, Skipped: 1}, snapshot)
}

func TestRunStitchesVideo(t *testing.T) {
	fasthttptest.Serve(t, mediaServer)
	fs := afero.NewMemMapFs()
	posts := []reddit.Post{videoPost()}

	scheduler, _, runner := newTestScheduler(t, fs, Options{})
	snapshot := scheduler.Run(posts)
	require.Equal(t, downloader.Snapshot{Supported: 2, Downloaded: 2}, snapshot)
	require.Equal(t, 1, runner.calls)

	video := taskPath("videos", "http://v.redd.it/abc/DASH_1080.mp4", downloader.MP4)
	data, err := afero.ReadFile(fs, video)
	require.NoError(t, err)
	require.Equal(t, "merged", string(data))

	files, err := afero.ReadDir(fs, dataDir+"/videos")
	require.NoError(t, err)
	require.Len(t, files, 1)

	// Both components count as skipped once the merged video exists.
	again, _, _ := newTestScheduler(t, fs, Options{})
	snapshot = again.Run(posts)
	require.Equal(t, downloader.Snapshot{Supported: 2, Skipped: 2}, snapshot)
}

func TestRunSkipsStitchedVideoRecordedInLedger(t *testing.T) {
	fasthttptest.Serve(t, mediaServer)
	openLedger(t)
	fs := afero.NewMemMapFs()
	posts := []reddit.Post{videoPost()}

	scheduler, _, _ := newTestScheduler(t, fs, Options{})
	snapshot := scheduler.Run(posts)
	require.Equal(t, downloader.Snapshot{Supported: 2, Downloaded: 2}, snapshot)

	video := taskPath("videos", "http://v.redd.it/abc/DASH_1080.mp4", downloader.MP4)
	path, err := database.DownloadedPath("http://v.redd.it/abc/DASH_1080.mp4")
	require.NoError(t, err)
	require.Equal(t, video, path)

	// The merged file was moved after the first run; the ledger knows where.
	require.NoError(t, fs.MkdirAll("/archive", 0o755))
	require.NoError(t, fs.Rename(video, "/archive/clip.mp4"))
	require.NoError(t, database.SaveDownload(database.Download{
		URL:  "http://v.redd.it/abc/DASH_1080.mp4",
		Path: "/archive/clip.mp4",
	}))

	again, _, runner := newTestScheduler(t, fs, Options{})
	snapshot = again.Run(posts)
	require.Equal(t, downloader.Snapshot{Supported: 2, Skipped: 2}, snapshot)
	require.Zero(t, runner.calls)
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	scheduler, _, _ := newTestScheduler(t, fs, Options{MaxConcurrent: 3})

	var active, peak atomic.Int32
	scheduler.resolvers[PrimaryImage] = func(*Scheduler, *reddit.Post) (*downloader.Resolution, error) {
		current := active.Add(1)
		for {
			seen := peak.Load()
			if current <= seen || peak.CompareAndSwap(seen, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return &downloader.Resolution{}, nil
	}

	posts := make([]reddit.Post, 30)
	for i := range posts {
		posts[i] = post(fmt.Sprintf("t3_%d", i), fmt.Sprintf("https://i.redd.it/%d.jpg", i))
	}
	scheduler.Run(posts)

	require.Positive(t, peak.Load())
	require.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunFetchesTokenOnceBeforeWorkers(t *testing.T) {
	fs := afero.NewMemMapFs()
	scheduler, stats, _ := newTestScheduler(t, fs, Options{})

	var calls atomic.Int32
	scheduler.fetchToken = func() (string, error) {
		calls.Add(1)
		return "secret", nil
	}

	var mu sync.Mutex
	var seen []string
	scheduler.resolvers[HostedGif] = func(s *Scheduler, _ *reddit.Post) (*downloader.Resolution, error) {
		mu.Lock()
		seen = append(seen, s.token)
		mu.Unlock()
		return &downloader.Resolution{}, nil
	}

	scheduler.Run([]reddit.Post{
		post("t3_a", "https://www.redgifs.com/watch/one"),
		post("t3_b", "https://www.redgifs.com/watch/two"),
	})

	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, []string{"secret", "secret"}, seen)
	require.Zero(t, stats.Snapshot().Failed)
}

func TestRunWithoutTokenFailsHostedGifs(t *testing.T) {
	fs := afero.NewMemMapFs()
	scheduler, _, _ := newTestScheduler(t, fs, Options{})

	snapshot := scheduler.Run([]reddit.Post{post("t3_a", "https://www.redgifs.com/watch/one")})
	require.Equal(t, downloader.Snapshot{Failed: 1}, snapshot)
}
