package tvtime

// loginResponse is the envelope returned by the login endpoint.
type loginResponse struct {
	Data struct {
		JWTToken        string `json:"jwt_token"`
		JWTRefreshToken string `json:"jwt_refresh_token"`
	} `json:"data"`
}

// searchResponse is the envelope returned by the search endpoint.
type searchResponse struct {
	Status string         `json:"status"`
	Data   []searchResult `json:"data"`
}

type searchResult struct {
	ID   int    `json:"id"`
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// EpisodeWatch is the response to a successful episode watch call.
// The season/episode/show detail is surfaced so callers can log what
// was actually marked.
type EpisodeWatch struct {
	Result string `json:"result"`
	Number int    `json:"number"`
	Season struct {
		Number int `json:"number"`
	} `json:"season"`
	Show struct {
		Name string `json:"name"`
	} `json:"show"`
}

// movieWatchResponse is the envelope returned by the movie watch endpoint.
type movieWatchResponse struct {
	Status string `json:"status"`
}
