package spotify

// ClientCredential identifies the registered application at the Spotify
// accounts service. It is loaded once from configuration and passed
// explicitly into every exchange call.
type ClientCredential struct {
	ClientID     string
	ClientSecret string
}

// Configured reports whether both halves of the credential are present.
func (c ClientCredential) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// TokenResponse models the accounts service token endpoint response.
// RefreshToken is optional: the accounts service omits it when the
// original refresh token remains valid.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// AlbumImage is a single album art rendition.
type AlbumImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Album carries the subset of album metadata the widget renders.
type Album struct {
	Images []AlbumImage `json:"images"`
}

// PlaybackSnapshot is the normalized answer to "what is playing / what
// played last", built fresh per request from whichever player endpoint
// responded. PlayedAt is the player timestamp in epoch milliseconds when
// sourced from an active player, or an RFC 3339 string when sourced from
// the recently-played history.
type PlaybackSnapshot struct {
	IsPlaying  bool     `json:"isPlaying"`
	Name       string   `json:"name,omitempty"`
	Artists    []string `json:"artists,omitempty"`
	Album      *Album   `json:"album,omitempty"`
	ProgressMS *int64   `json:"progress_ms,omitempty"`
	DurationMS *int64   `json:"duration_ms,omitempty"`
	PlayedAt   any      `json:"played_at,omitempty"`
	SongURL    string   `json:"songUrl,omitempty"`
}

// AverageAudioFeatures aggregates the audio-feature fields the analysis
// dashboard charts, averaged over the owner's top tracks.
type AverageAudioFeatures struct {
	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
	Valence      float64 `json:"valence"`
	Acousticness float64 `json:"acousticness"`
}

// AudioFeatures is the per-track feature vector from the audio-features
// endpoint. Only the averaged fields are decoded.
type AudioFeatures struct {
	ID           string  `json:"id"`
	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
	Valence      float64 `json:"valence"`
	Acousticness float64 `json:"acousticness"`
}

// TopTrack is a top-tracks item, decoded only as far as the analysis needs.
type TopTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	IsPlayable *bool  `json:"is_playable,omitempty"`
}

// TopArtist is a top-artists item carrying the genre list.
type TopArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}
