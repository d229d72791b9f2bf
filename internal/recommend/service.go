package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dragy007/Movie-RecS/internal/catalog"
	"github.com/Dragy007/Movie-RecS/internal/domain"
	"github.com/Dragy007/Movie-RecS/internal/gemini"
	"github.com/Dragy007/Movie-RecS/internal/metrics"
	"github.com/Dragy007/Movie-RecS/internal/repository"
)

// ErrNoRatedMovies is returned when analysis is requested for an empty rated
// set. The caller surfaces it as a validation problem, not a silent no-op.
var ErrNoRatedMovies = errors.New("recommend: no rated movies to analyze")

// ErrNoAnalysis is returned when recommendations are requested before a
// preference summary exists for the user.
var ErrNoAnalysis = errors.New("recommend: preference analysis required first")

// RatedMovieStore is the slice of the persistence adapter the service needs.
type RatedMovieStore interface {
	Append(ctx context.Context, params repository.AppendParams) (domain.RatedMovie, error)
	ListByUser(ctx context.Context, userID string) ([]domain.RatedMovie, error)
	GetByID(ctx context.Context, userID, id string) (domain.RatedMovie, error)
}

// MetadataResolver answers title lookups; misses arrive as catalog.ErrNotFound.
type MetadataResolver interface {
	Resolve(ctx context.Context, title string) (domain.MovieMetadata, error)
}

// ChangeFeed delivers rated-set change events, one user ID per append.
type ChangeFeed interface {
	Subscribe() (<-chan string, func())
}

// ServiceConfig bundles the orchestration service's collaborators.
type ServiceConfig struct {
	Movies       RatedMovieStore
	Resolver     MetadataResolver
	Text         gemini.TextService
	Image        gemini.ImageService
	Feed         ChangeFeed
	Logger       *logrus.Logger
	Metrics      *metrics.Collector
	AssetTimeout time.Duration
}

// Service orchestrates the recommendation pipeline: preference analysis,
// title generation, and per-title asset assembly with the lookup fallback.
type Service struct {
	movies       RatedMovieStore
	resolver     MetadataResolver
	text         gemini.TextService
	image        gemini.ImageService
	feed         ChangeFeed
	sessions     *Sessions
	logger       *logrus.Logger
	metrics      *metrics.Collector
	assetTimeout time.Duration
}

// NewService constructs the pipeline service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		movies:       cfg.Movies,
		resolver:     cfg.Resolver,
		text:         cfg.Text,
		image:        cfg.Image,
		feed:         cfg.Feed,
		sessions:     NewSessions(),
		logger:       logger,
		metrics:      cfg.Metrics,
		assetTimeout: cfg.AssetTimeout,
	}
}

// Sessions exposes the per-user pipeline state for read access.
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// Start subscribes to the rated-set change feed and clears derived state on
// every change, covering writers other than this service; RateMovie already
// invalidates its own writes synchronously. The subscription is released when
// ctx ends.
func (s *Service) Start(ctx context.Context) {
	if s.feed == nil {
		return
	}
	events, release := s.feed.Subscribe()
	go func() {
		defer release()
		for {
			select {
			case <-ctx.Done():
				return
			case userID, ok := <-events:
				if !ok {
					return
				}
				s.sessions.Invalidate(userID)
			}
		}
	}()
}

// RateMovie resolves metadata for the title (placeholders on a miss), appends
// the rated movie to the user's collection, and synchronously clears the
// user's derived pipeline state.
func (s *Service) RateMovie(ctx context.Context, userID, title string, rating int) (domain.RatedMovie, error) {
	params := repository.AppendParams{
		UserID: userID,
		Title:  title,
		Rating: rating,
	}

	meta, err := s.resolver.Resolve(ctx, title)
	if err == nil {
		params.Summary = meta.Summary
		params.Poster = meta.Poster
		params.ReleaseDate = meta.ReleaseDate
		params.VoteAverage = meta.VoteAverage
	} else {
		params.Summary = catalog.FallbackSummary
		params.Poster = domain.PlaceholderPoster(catalog.PlaceholderPosterURL(title))
	}

	movie, err := s.movies.Append(ctx, params)
	if err != nil {
		return domain.RatedMovie{}, err
	}
	// The cleared session must be observable the moment this call returns;
	// the change feed alone delivers too late for a read-after-write.
	s.sessions.Invalidate(userID)
	s.metrics.RecordRatingStored()
	return movie, nil
}

// GetRated returns a single rated movie owned by the user.
func (s *Service) GetRated(ctx context.Context, userID, id string) (domain.RatedMovie, error) {
	return s.movies.GetByID(ctx, userID, id)
}

// ListRated returns the user's rated movies, newest first.
func (s *Service) ListRated(ctx context.Context, userID string) ([]domain.RatedMovie, error) {
	return s.movies.ListByUser(ctx, userID)
}

// Analyze runs the preference analysis over the user's current rated set and
// stores the resulting summary. A failed run leaves any previous summary
// untouched.
func (s *Service) Analyze(ctx context.Context, userID string) (string, error) {
	movies, err := s.movies.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(movies) == 0 {
		return "", ErrNoRatedMovies
	}

	rev := s.sessions.Revision(userID)
	movieTypes, err := s.text.AnalyzePreferences(ctx, SerializeRatedMovies(movies))
	if err != nil {
		return "", err
	}

	if !s.sessions.SetSummary(userID, movieTypes, rev) {
		s.logger.WithField("user_id", userID).Info("recommend: rated set changed during analysis, result dropped")
	}
	return movieTypes, nil
}

// Recommend generates titles for the user's current preference summary and
// assembles a display record per title. Title generation failures abort the
// run; per-title asset failures do not.
func (s *Service) Recommend(ctx context.Context, userID string) ([]domain.RecommendedMovie, error) {
	summary, ok := s.sessions.Summary(userID)
	if !ok {
		return nil, ErrNoAnalysis
	}

	rev := s.sessions.Revision(userID)
	titles, err := s.text.RecommendTitles(ctx, summary)
	if err != nil {
		return nil, err
	}

	recs := s.BuildAssets(ctx, titles)
	if !s.sessions.SetRecommendations(userID, recs, rev) {
		s.logger.WithField("user_id", userID).Info("recommend: rated set changed during recommendation, result dropped")
	}
	return recs, nil
}
