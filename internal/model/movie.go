package model

import (
	"strings"
	"time"
)

// MsrbRating is the content-rating classification of a movie.
type MsrbRating string

const (
	RatingG       MsrbRating = "G"
	RatingPG      MsrbRating = "PG"
	RatingPG13    MsrbRating = "PG13"
	RatingR       MsrbRating = "R"
	RatingNC17    MsrbRating = "NC17"
	RatingUnrated MsrbRating = "UNRATED"
)

// Valid reports whether the rating is one of the known classifications.
func (r MsrbRating) Valid() bool {
	switch r {
	case RatingG, RatingPG, RatingPG13, RatingR, RatingNC17, RatingUnrated:
		return true
	}
	return false
}

// Movie describes a film in the catalog.  SearchTitle is a normalized
// copy of Title used for case- and punctuation-insensitive lookup; it
// is derived once on creation and stored alongside the title.  A movie
// owns its reviews and screenings, which are removed with it.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title.
//  SearchTitle – normalized title (see SearchTitle function).
//  Director    – director name.
//  Synopsis    – free-text plot summary.
//  Duration    – running time, drives screening end times.
//  ReleaseDate – theatrical release date.
//  Rating      – MSRB content rating.
//  Cast        – cast member names.
//  Writers     – writer names.
//  Categories  – genre/category labels.
type Movie struct {
	ID          uint64     `json:"id"`           // movies.id
	Title       string     `json:"title"`        // movies.title
	SearchTitle string     `json:"-"`            // movies.search_title, internal lookup key
	Director    string     `json:"director"`     // movies.director
	Synopsis    string     `json:"synopsis"`     // movies.synopsis
	Duration    Duration   `json:"duration"`     // movies.duration_minutes
	ReleaseDate time.Time  `json:"release_date"` // movies.release_date
	Rating      MsrbRating `json:"msrb_rating"`  // movies.msrb_rating
	Cast        []string   `json:"cast"`         // movies.cast_names (JSON)
	Writers     []string   `json:"writers"`      // movies.writer_names (JSON)
	Categories  []string   `json:"categories"`   // movies.categories (JSON)
	CreatedAt   time.Time  `json:"created_at"`   // movies.created_at
	UpdatedAt   time.Time  `json:"updated_at"`   // movies.updated_at
}

// SearchTitle normalizes a title for lookup: uppercased with every
// character that is not an ASCII letter or digit removed, so
// "Spider-Man: No Way Home" and "spiderman no way home" collide.
func SearchTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 32)
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}
