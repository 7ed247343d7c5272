package downloader

import (
	"github.com/ruizlenato/mediasaver/internal/reddit"
)

const (
	JPG  = "jpg"
	JPEG = "jpeg"
	PNG  = "png"
	GIF  = "gif"
	GIFV = "gifv"
	MP4  = "mp4"
	ZIP  = "zip"
)

var GenericHeaders = map[string]string{
	"Accept":          "*/*",
	"Accept-Language": "en",
}

// Task is one concrete file to fetch. Index 0 means the task carries no
// component index.
type Task struct {
	URL       string
	Subreddit string
	Extension string
	Name      string
	Title     string
	Index     int
}

func NewTask(post *reddit.Post, url, extension string, index int) Task {
	return Task{
		URL:       url,
		Subreddit: post.Data.Subreddit,
		Extension: extension,
		Name:      post.Data.Name,
		Title:     post.Data.Title,
		Index:     index,
	}
}

// Resolution is what a site resolver produces for one post. When Stitch is
// set, Tasks[0] is a video-only stream and Tasks[1] its audio-only companion.
type Resolution struct {
	Tasks  []Task
	Stitch bool
}

func Single(task Task) *Resolution {
	return &Resolution{Tasks: []Task{task}}
}
