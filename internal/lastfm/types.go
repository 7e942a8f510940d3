package lastfm

// Tag is a Last.fm folksonomy tag.
type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Info is what Last.fm knows about one track.
type Info struct {
	Title  string
	Artist string
	Album  string
	Tags   []Tag
}

// trackInfoResponse is the JSON response for track.getInfo.
type trackInfoResponse struct {
	Track struct {
		Name   string `json:"name"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
		Album struct {
			Title string `json:"title"`
		} `json:"album"`
		TopTags struct {
			Tag []Tag `json:"tag"`
		} `json:"toptags"`
	} `json:"track"`
}

// apiError represents a Last.fm API error response.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}
