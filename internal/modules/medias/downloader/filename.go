package downloader

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const maxTitleLength = 200

var titleReplacer = strings.NewReplacer(
	" ", "_", ".", "_", "/", "_", `\`, "_", ":", "_", "=", "_",
	"?", "_", `"`, "_", "<", "_", ">", "_", "|", "_", "*", "_",
)

// Namer maps a task onto its canonical path below DataDir.
type Namer struct {
	DataDir       string
	HumanReadable bool
}

func (n Namer) TaskPath(task Task) string {
	return n.Path(task, task.Extension, task.Index)
}

// Path builds the canonical file name for task with an explicit extension
// and index. The same inputs always give the same path, which is what makes
// re-runs skip media that is already on disk.
func (n Namer) Path(task Task, extension string, index int) string {
	var name string
	if n.HumanReadable {
		postName := task.Name
		if index > 0 {
			postName = fmt.Sprintf("%s_%d", postName, index)
		}
		name = fmt.Sprintf("%s_%s", canonicalTitle(task.Title), strings.ReplaceAll(postName, ".", "_"))
	} else {
		name = fmt.Sprintf("%x", md5.Sum([]byte(stripQuery(task.URL))))
		if index > 0 {
			name = fmt.Sprintf("%s_%d", name, index)
		}
	}

	return filepath.Join(n.DataDir, task.Subreddit, name+"."+extension)
}

func canonicalTitle(title string) string {
	runes := []rune(strings.ToLower(title))
	if len(runes) > maxTitleLength {
		runes = runes[:maxTitleLength]
	}
	return titleReplacer.Replace(string(runes))
}

func stripQuery(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	parsed.RawQuery = ""
	parsed.ForceQuery = false
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String()
}
