package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Dragy007/Movie-RecS/internal/domain"
	"github.com/Dragy007/Movie-RecS/internal/metrics"
)

const (
	placeholderBaseURL = "https://placehold.co/300x450.png"
	// FallbackSummary is the defined default when a source has no overview text.
	FallbackSummary    = "No summary is available for this title yet."
	cacheKeyPrefix     = "catalog:title:"
)

// ResolverConfig bundles the resolver's collaborators. Local, Remote, Redis
// and Metrics are each optional; a missing tier is simply skipped.
type ResolverConfig struct {
	Local        *Dataset
	Remote       Client
	Redis        *redis.Client
	ImageBaseURL string
	CacheTTL     time.Duration
	Logger       *logrus.Logger
	Metrics      *metrics.Collector
}

// Resolver answers title lookups from a prioritized sequence of sources:
// cache, bundled dataset, remote catalog. A source error is treated as a miss
// for that tier and never propagated to the caller.
type Resolver struct {
	local        *Dataset
	remote       Client
	redis        *redis.Client
	imageBaseURL string
	cacheTTL     time.Duration
	logger       *logrus.Logger
	metrics      *metrics.Collector
}

// NewResolver constructs a Resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{
		local:        cfg.Local,
		remote:       cfg.Remote,
		redis:        cfg.Redis,
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		cacheTTL:     cfg.CacheTTL,
		logger:       logger,
		metrics:      cfg.Metrics,
	}
}

// Resolve returns display metadata for the title, or ErrNotFound when no
// source knows it. Missing fields on a hit are filled with placeholders, so a
// successful result always carries a non-empty summary and poster.
func (r *Resolver) Resolve(ctx context.Context, title string) (domain.MovieMetadata, error) {
	cacheKey := cacheKeyPrefix + normalizeTitle(title)

	if meta, ok := r.fromCache(ctx, cacheKey); ok {
		r.metrics.RecordLookup("cache")
		return meta, nil
	}

	if r.local != nil {
		if rec, ok := r.local.Find(title); ok {
			meta := r.buildMetadata(rec)
			r.toCache(ctx, cacheKey, meta)
			r.metrics.RecordLookup("local")
			return meta, nil
		}
	}

	if r.remote != nil {
		rec, err := r.remote.Lookup(ctx, title)
		switch {
		case err == nil:
			meta := r.buildMetadata(rec)
			r.toCache(ctx, cacheKey, meta)
			r.metrics.RecordLookup("remote")
			return meta, nil
		case !errors.Is(err, ErrNotFound):
			// A broken remote tier must not abort the caller's flow.
			r.logger.WithError(err).WithField("title", title).Warn("catalog: remote lookup failed, treating as miss")
		}
	}

	r.metrics.RecordLookup("miss")
	return domain.MovieMetadata{}, ErrNotFound
}

func (r *Resolver) fromCache(ctx context.Context, key string) (domain.MovieMetadata, bool) {
	if r.redis == nil {
		return domain.MovieMetadata{}, false
	}
	cached, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.WithError(err).Warn("catalog: cache read failed")
		}
		return domain.MovieMetadata{}, false
	}
	var meta domain.MovieMetadata
	if err := json.Unmarshal([]byte(cached), &meta); err != nil {
		r.logger.WithError(err).Warn("catalog: cached metadata unreadable")
		return domain.MovieMetadata{}, false
	}
	return meta, true
}

func (r *Resolver) toCache(ctx context.Context, key string, meta domain.MovieMetadata) {
	if r.redis == nil {
		return
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, key, payload, r.cacheTTL).Err(); err != nil {
		r.logger.WithError(err).Warn("catalog: cache write failed")
	}
}

// buildMetadata fills the defined placeholders for any field the source left
// blank, so callers never see an empty summary or poster on a hit.
func (r *Resolver) buildMetadata(rec Record) domain.MovieMetadata {
	meta := domain.MovieMetadata{
		Title:       rec.Title,
		Summary:     rec.Overview,
		VoteAverage: rec.VoteAverage,
	}
	if strings.TrimSpace(meta.Summary) == "" {
		meta.Summary = FallbackSummary
	}
	if rec.ReleaseDate != "" {
		date := rec.ReleaseDate
		meta.ReleaseDate = &date
	}
	if path := strings.TrimSpace(rec.PosterPath); path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		meta.Poster = domain.HostedPoster(r.imageBaseURL + path)
	} else {
		meta.Poster = domain.PlaceholderPoster(PlaceholderPosterURL(rec.Title))
	}
	return meta
}

// PlaceholderPosterURL builds a stand-in poster URL with the title as overlay text.
func PlaceholderPosterURL(title string) string {
	return placeholderBaseURL + "?text=" + url.QueryEscape(title)
}

// ErrorPosterURL builds a stand-in poster URL that visibly marks a generation failure.
func ErrorPosterURL(title string) string {
	return placeholderBaseURL + "?text=" + url.QueryEscape(title+" (unavailable)")
}
