package youtube

// searchResponse is the /search payload. Items is a pointer so a missing
// array can be told apart from an empty one.
type searchResponse struct {
	Items *[]searchItem `json:"items"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet *snippet `json:"snippet"`
}

type snippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	Description  string `json:"description,omitempty"`
	PublishedAt  string `json:"publishedAt,omitempty"`
	Thumbnails   map[string]struct {
		URL    string `json:"url"`
		Width  int    `json:"width,omitempty"`
		Height int    `json:"height,omitempty"`
	} `json:"thumbnails,omitempty"`
	Tags []string `json:"tags,omitempty"`
}

type videosResponse struct {
	Items []Video `json:"items"`
}

// Video is the /videos resource for a single video.
type Video struct {
	ID             string          `json:"id"`
	Snippet        *snippet        `json:"snippet,omitempty"`
	ContentDetails *contentDetails `json:"contentDetails,omitempty"`
	Statistics     *statistics     `json:"statistics,omitempty"`
}

type contentDetails struct {
	Duration   string `json:"duration"`
	Definition string `json:"definition,omitempty"`
	Caption    string `json:"caption,omitempty"`
}

// statistics counts are strings on the wire.
type statistics struct {
	ViewCount    string `json:"viewCount,omitempty"`
	LikeCount    string `json:"likeCount,omitempty"`
	CommentCount string `json:"commentCount,omitempty"`
}

type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
