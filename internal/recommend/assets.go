package recommend

import (
	"context"
	"sync"

	"github.com/Dragy007/Movie-RecS/internal/catalog"
	"github.com/Dragy007/Movie-RecS/internal/domain"
)

// errorSummary is the fixed text shown when generation fails for a title.
const errorSummary = "We couldn't assemble details for this movie right now. Please try again later."

// BuildAssets assembles one display record per title. The output always has
// exactly the input's length and order; each title is resolved independently
// and concurrently, and a failed title yields its error placeholder instead
// of aborting siblings.
func (s *Service) BuildAssets(ctx context.Context, titles []string) []domain.RecommendedMovie {
	results := make([]domain.RecommendedMovie, len(titles))

	var wg sync.WaitGroup
	for i, title := range titles {
		wg.Add(1)
		go func(slot int, title string) {
			defer wg.Done()
			results[slot] = s.buildAsset(ctx, title)
		}(i, title)
	}
	wg.Wait()

	return results
}

func (s *Service) buildAsset(ctx context.Context, title string) domain.RecommendedMovie {
	if s.assetTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.assetTimeout)
		defer cancel()
	}

	rec := domain.RecommendedMovie{Title: title}

	meta, err := s.resolver.Resolve(ctx, title)
	if err == nil {
		rec.ReleaseDate = meta.ReleaseDate
		rec.VoteAverage = meta.VoteAverage
		// A hit with real summary and art needs no generation at all.
		if meta.Poster.Kind == domain.PosterHosted && meta.Summary != catalog.FallbackSummary {
			rec.Summary = meta.Summary
			rec.Poster = meta.Poster
			return rec
		}
	}

	assets, err := s.text.CreativeAssets(ctx, title)
	if err != nil {
		s.logger.WithError(err).WithField("title", title).Warn("recommend: creative assets failed, using placeholder")
		return s.fallbackAsset(rec)
	}

	poster, err := s.image.GeneratePoster(ctx, assets.PosterDescription, title)
	if err != nil {
		s.logger.WithError(err).WithField("title", title).Warn("recommend: poster generation failed, using placeholder")
		return s.fallbackAsset(rec)
	}

	rec.Summary = assets.Summary
	rec.Poster = poster
	return rec
}

// fallbackAsset completes a record with the fixed error summary and a
// placeholder poster that names the title. The item stays in the output.
func (s *Service) fallbackAsset(rec domain.RecommendedMovie) domain.RecommendedMovie {
	rec.Summary = errorSummary
	rec.Poster = domain.PlaceholderPoster(catalog.ErrorPosterURL(rec.Title))
	s.metrics.RecordAssetFallback()
	return rec
}
