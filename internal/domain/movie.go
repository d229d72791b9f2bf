package domain

import "time"

// PosterKind tags the origin of a poster reference so downstream code never
// has to infer it from the shape of the string.
type PosterKind string

const (
	// PosterHosted points at an image served by the metadata image host.
	PosterHosted PosterKind = "hosted"
	// PosterGenerated carries an inline data URI produced by the image service.
	PosterGenerated PosterKind = "generated"
	// PosterPlaceholder is a synthetic stand-in URL, used when no real art exists.
	PosterPlaceholder PosterKind = "placeholder"
)

// PosterRef is a tagged poster reference, assigned at the point of creation.
type PosterRef struct {
	Kind  PosterKind `json:"kind"`
	Value string     `json:"value"`
}

// HostedPoster builds a PosterRef for an image hosted at a fully-qualified URL.
func HostedPoster(url string) PosterRef {
	return PosterRef{Kind: PosterHosted, Value: url}
}

// GeneratedPoster builds a PosterRef for an inline data URI.
func GeneratedPoster(dataURI string) PosterRef {
	return PosterRef{Kind: PosterGenerated, Value: dataURI}
}

// PlaceholderPoster builds a PosterRef for a synthetic placeholder URL.
func PlaceholderPoster(url string) PosterRef {
	return PosterRef{Kind: PosterPlaceholder, Value: url}
}

// RatedMovie is a single user's rating of a movie, enriched with whatever
// metadata was available at write time. Rows are append-only.
type RatedMovie struct {
	ID          string
	UserID      string
	Title       string
	Rating      int
	Summary     string
	Poster      PosterRef
	ReleaseDate *string
	VoteAverage *float64
	CreatedAt   time.Time
}

// RecommendedMovie is a display-ready recommendation. It is recomputed on
// every pipeline run and never persisted.
type RecommendedMovie struct {
	Title       string
	Summary     string
	Poster      PosterRef
	ReleaseDate *string
	VoteAverage *float64
}

// MovieMetadata is what the lookup resolver returns for a known title.
type MovieMetadata struct {
	Title       string
	Summary     string
	Poster      PosterRef
	ReleaseDate *string
	VoteAverage *float64
}
