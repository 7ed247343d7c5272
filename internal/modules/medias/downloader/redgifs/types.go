package redgifs

type TokenResponse struct {
	Token string `json:"token"`
	Addr  string `json:"addr"`
	Agent string `json:"agent"`
}

type GifResponse struct {
	Gif Gif `json:"gif"`
}

type Gif struct {
	ID       string  `json:"id"`
	Duration float64 `json:"duration"`
	HasAudio bool    `json:"hasAudio"`
	URLs     URLs    `json:"urls"`
}

type URLs struct {
	HD     string `json:"hd"`
	SD     string `json:"sd"`
	Poster string `json:"poster"`
}
