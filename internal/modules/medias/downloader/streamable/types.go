package streamable

type VideoResponse struct {
	Status       int             `json:"status"`
	Title        string          `json:"title"`
	ThumbnailURL string          `json:"thumbnail_url"`
	Files        map[string]File `json:"files"`
}

type File struct {
	URL      string  `json:"url"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Size     int64   `json:"size"`
	Duration float64 `json:"duration"`
}
