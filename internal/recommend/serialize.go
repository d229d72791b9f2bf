package recommend

import (
	"fmt"
	"strings"

	"github.com/Dragy007/Movie-RecS/internal/domain"
)

// SerializeRatedMovies renders a rating history as the single descriptive
// string the preference analysis expects, e.g.
// "Inception (Rating: 5/5), Heat (Rating: 4/5, Released: 1995-12-15)".
func SerializeRatedMovies(movies []domain.RatedMovie) string {
	parts := make([]string, 0, len(movies))
	for _, movie := range movies {
		var b strings.Builder
		fmt.Fprintf(&b, "%s (Rating: %d/5", movie.Title, movie.Rating)
		if movie.ReleaseDate != nil && *movie.ReleaseDate != "" {
			fmt.Fprintf(&b, ", Released: %s", *movie.ReleaseDate)
		}
		if movie.VoteAverage != nil {
			fmt.Fprintf(&b, ", Score: %.1f/10", *movie.VoteAverage)
		}
		b.WriteString(")")
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ", ")
}
