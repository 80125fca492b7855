package domain

import "time"

type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTV    MediaKind = "tv"
)

func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindTV
}

// SavedTitle is one bookmarked movie or TV entry in a user's collection.
// MovieID is the TMDB id and is only unique within a single collection.
type SavedTitle struct {
	MovieID     int       `json:"movieId" bson:"movieId"`
	Title       string    `json:"title" bson:"title"`
	PosterPath  *string   `json:"poster_path" bson:"poster_path"`
	ReleaseDate *string   `json:"release_date" bson:"release_date"`
	VoteAverage float64   `json:"vote_average" bson:"vote_average"`
	MediaType   MediaKind `json:"media_type" bson:"media_type"`
	SavedAt     time.Time `json:"savedAt" bson:"savedAt"`
}

// Collection is a user's saved titles in append order.
type Collection []SavedTitle

// Contains reports whether movieID is already saved. Collections are personal
// lists, so a linear scan is all this needs.
func (c Collection) Contains(movieID int) bool {
	for _, t := range c {
		if t.MovieID == movieID {
			return true
		}
	}
	return false
}

// Without returns a new collection with every entry for movieID dropped,
// preserving the order of the rest.
func (c Collection) Without(movieID int) Collection {
	out := make(Collection, 0, len(c))
	for _, t := range c {
		if t.MovieID != movieID {
			out = append(out, t)
		}
	}
	return out
}
