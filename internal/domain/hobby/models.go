// Package hobby holds the hobby-list domain types.
package hobby

import (
	"errors"
	"time"
)

// Entry types. Favorites are curated by the owner; requests come from
// visitors through the recommendation form.
const (
	TypeFavorite = "favorite"
	TypeRequest  = "request"
)

// KindAnime is the only hobby kind tracked today.
const KindAnime = "anime"

// Watching statuses the list UI cycles through.
const (
	StatusPlanned   = "planned"
	StatusWatching  = "watching"
	StatusCompleted = "completed"
	StatusDropped   = "dropped"
)

var (
	// ErrDuplicate signals the MAL entry is already on the list.
	ErrDuplicate = errors.New("hobby: entry already exists")
	// ErrNotFound signals the entry id does not exist.
	ErrNotFound = errors.New("hobby: entry not found")
	// ErrInvalidEntry indicates caller input validation errors.
	ErrInvalidEntry = errors.New("hobby: invalid entry")
)

// Entry is one row of the hobby list. MALID references the MyAnimeList id
// the entry was imported from and is unique per hobby kind.
type Entry struct {
	ID             int64     `json:"id"`
	Kind           string    `json:"type_hobbies"`
	Type           string    `json:"type"`
	Anonymous      *string   `json:"anonymous,omitempty"`
	MALID          int64     `json:"mal_id"`
	Title          string    `json:"title"`
	Image          string    `json:"image"`
	Score          *float64  `json:"score,omitempty"`
	Year           *int      `json:"year,omitempty"`
	URL            string    `json:"url"`
	Genre          string    `json:"genre"`
	WatchingStatus *string   `json:"watching_status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Filter narrows list queries.
type Filter struct {
	Kind           string
	Type           string
	WatchingStatus string
}
