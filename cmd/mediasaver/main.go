package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"regexp"

	"github.com/spf13/afero"

	"github.com/ruizlenato/mediasaver/internal/config"
	"github.com/ruizlenato/mediasaver/internal/database"
	"github.com/ruizlenato/mediasaver/internal/database/cache"
	"github.com/ruizlenato/mediasaver/internal/modules/medias"
	"github.com/ruizlenato/mediasaver/internal/modules/medias/downloader"
	"github.com/ruizlenato/mediasaver/internal/reddit"
)

func main() {
	configFile := flag.String("c", "", "path to a YAML config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-c config.yaml] [post URL...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(NewColorHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	if err := initializeServices(cfg); err != nil {
		log.Fatal(err)
	}
	defer func() {
		database.Close()
		cache.Close()
	}()

	filter := reddit.Filter{Upvotes: cfg.Upvotes}
	if cfg.Match != "" {
		match, err := regexp.Compile(cfg.Match)
		if err != nil {
			log.Fatalf("\033[31mInvalid match pattern:\033[0m %v\n", err)
		}
		filter.Match = match
	}

	posts := collectPosts(cfg, flag.Args(), filter)
	if len(posts) == 0 {
		slog.Warn("No posts to process")
		return
	}

	ffmpeg := downloader.NewFFmpeg()
	if !ffmpeg.Available() {
		slog.Warn("ffmpeg not found, gifs will not be converted and videos will have no sound")
	}

	scheduler := medias.NewScheduler(afero.NewOsFs(), ffmpeg, &downloader.Stats{}, medias.Options{
		DataDir:       cfg.DataDir,
		DryRun:        cfg.DryRun,
		HumanReadable: cfg.HumanReadable,
		ConserveGifs:  cfg.ConserveGifs,
		MaxConcurrent: cfg.MaxConcurrent,
	})

	slog.Info("Starting downloads",
		"Posts", len(posts),
		"Run", scheduler.RunID())
	scheduler.Run(posts)

	if recorded, err := database.CountRun(scheduler.RunID()); err == nil && recorded > 0 {
		slog.Info("History updated",
			"Entries", recorded)
	}
}

// collectPosts loads the posts named on the command line, or walks the
// configured subreddits when there are none.
func collectPosts(cfg *config.Config, links []string, filter reddit.Filter) []reddit.Post {
	var posts []reddit.Post

	for _, link := range links {
		post, err := reddit.FetchPost(link)
		if err != nil {
			slog.Error("Failed to fetch post",
				"URL", link,
				"Error", err.Error())
			continue
		}
		posts = append(posts, *post)
	}
	if len(links) > 0 {
		return posts
	}

	for _, name := range cfg.Subreddits {
		subreddit := reddit.Subreddit{Name: name}
		for _, post := range subreddit.Posts(cfg.Feed, cfg.Limit, cfg.Period) {
			if filter.Keep(post) {
				posts = append(posts, post)
			}
		}
	}
	return posts
}
