package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Dragy007/Movie-RecS/internal/catalog"
	"github.com/Dragy007/Movie-RecS/internal/domain"
	"github.com/Dragy007/Movie-RecS/internal/gemini"
	"github.com/Dragy007/Movie-RecS/internal/repository"
)

type fakeStore struct {
	movies   []domain.RatedMovie
	appended []repository.AppendParams
	listErr  error
}

func (f *fakeStore) Append(ctx context.Context, params repository.AppendParams) (domain.RatedMovie, error) {
	f.appended = append(f.appended, params)
	movie := domain.RatedMovie{
		ID:          fmt.Sprintf("id-%d", len(f.appended)),
		UserID:      params.UserID,
		Title:       params.Title,
		Rating:      params.Rating,
		Summary:     params.Summary,
		Poster:      params.Poster,
		ReleaseDate: params.ReleaseDate,
		VoteAverage: params.VoteAverage,
		CreatedAt:   time.Now().UTC(),
	}
	f.movies = append(f.movies, movie)
	return movie, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID string) ([]domain.RatedMovie, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.RatedMovie
	for _, movie := range f.movies {
		if movie.UserID == userID {
			out = append(out, movie)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByID(ctx context.Context, userID, id string) (domain.RatedMovie, error) {
	for _, movie := range f.movies {
		if movie.UserID == userID && movie.ID == id {
			return movie, nil
		}
	}
	return domain.RatedMovie{}, repository.ErrNotFound
}

type fakeResolver struct {
	metadata map[string]domain.MovieMetadata
	calls    int
}

func (f *fakeResolver) Resolve(ctx context.Context, title string) (domain.MovieMetadata, error) {
	f.calls++
	if meta, ok := f.metadata[title]; ok {
		return meta, nil
	}
	return domain.MovieMetadata{}, catalog.ErrNotFound
}

type fakeText struct {
	analyzeFn    func(ctx context.Context, ratedMovies string) (string, error)
	titles       []string
	titlesErr    error
	assets       map[string]gemini.CreativeAssets
	assetsErr    error
	analyzeInput string
	assetCalls   int
}

func (f *fakeText) AnalyzePreferences(ctx context.Context, ratedMovies string) (string, error) {
	f.analyzeInput = ratedMovies
	if f.analyzeFn != nil {
		return f.analyzeFn(ctx, ratedMovies)
	}
	return "Sci-Fi, Thriller", nil
}

func (f *fakeText) RecommendTitles(ctx context.Context, movieTypes string) ([]string, error) {
	if f.titlesErr != nil {
		return nil, f.titlesErr
	}
	return f.titles, nil
}

func (f *fakeText) CreativeAssets(ctx context.Context, title string) (gemini.CreativeAssets, error) {
	f.assetCalls++
	if f.assetsErr != nil {
		return gemini.CreativeAssets{}, f.assetsErr
	}
	if assets, ok := f.assets[title]; ok {
		return assets, nil
	}
	return gemini.CreativeAssets{
		Summary:           "Generated summary for " + title,
		PosterDescription: "Poster concept for " + title,
	}, nil
}

type fakeImage struct {
	uri   string
	err   error
	calls int
}

func (f *fakeImage) GeneratePoster(ctx context.Context, posterDescription, title string) (domain.PosterRef, error) {
	f.calls++
	if f.err != nil {
		return domain.PosterRef{}, f.err
	}
	if f.uri != "" {
		return domain.GeneratedPoster(f.uri), nil
	}
	return domain.GeneratedPoster("data:image/png;base64,AAAA"), nil
}

func newTestService(store RatedMovieStore, resolver MetadataResolver, text gemini.TextService, image gemini.ImageService, feed ChangeFeed) *Service {
	return NewService(ServiceConfig{
		Movies:   store,
		Resolver: resolver,
		Text:     text,
		Image:    image,
		Feed:     feed,
	})
}

func hostedMeta(title, summary string) domain.MovieMetadata {
	return domain.MovieMetadata{
		Title:   title,
		Summary: summary,
		Poster:  domain.HostedPoster("https://image.tmdb.org/t/p/w500/" + strings.ToLower(title) + ".jpg"),
	}
}

func TestRateMovieUsesResolvedMetadata(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{metadata: map[string]domain.MovieMetadata{
		"Inception": hostedMeta("Inception", "A thief enters dreams."),
	}}
	svc := newTestService(store, resolver, &fakeText{}, &fakeImage{}, nil)

	movie, err := svc.RateMovie(context.Background(), "user-1", "Inception", 5)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if movie.Summary != "A thief enters dreams." {
		t.Fatalf("summary = %q", movie.Summary)
	}
	if movie.Poster.Kind != domain.PosterHosted {
		t.Fatalf("poster kind = %q", movie.Poster.Kind)
	}
}

func TestRateMovieFallsBackOnLookupMiss(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeResolver{}, &fakeText{}, &fakeImage{}, nil)

	movie, err := svc.RateMovie(context.Background(), "user-1", "Obscure Indie Film", 3)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if movie.Summary != catalog.FallbackSummary {
		t.Fatalf("summary = %q, want fallback", movie.Summary)
	}
	if movie.Poster.Kind != domain.PosterPlaceholder {
		t.Fatalf("poster kind = %q, want placeholder", movie.Poster.Kind)
	}
	if !strings.Contains(movie.Poster.Value, "Obscure+Indie+Film") {
		t.Fatalf("placeholder poster missing title: %q", movie.Poster.Value)
	}
}

func TestRateMovieClearsDerivedStateImmediately(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeResolver{}, &fakeText{}, &fakeImage{}, nil)

	if _, err := svc.RateMovie(context.Background(), "user-1", "Inception", 5); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if _, err := svc.Analyze(context.Background(), "user-1"); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	svc.Sessions().SetRecommendations("user-1", []domain.RecommendedMovie{{Title: "Heat"}}, svc.Sessions().Revision("user-1"))

	if _, err := svc.RateMovie(context.Background(), "user-1", "Heat", 4); err != nil {
		t.Fatalf("second rate: %v", err)
	}

	// No change feed is wired here: the very next read after the append must
	// already see the cleared session.
	if _, ok := svc.Sessions().Summary("user-1"); ok {
		t.Fatal("stale summary readable after a rated-set mutation")
	}
	if recs := svc.Sessions().Recommendations("user-1"); recs != nil {
		t.Fatalf("stale recommendations readable after a rated-set mutation: %v", recs)
	}
}

func TestAnalyzeRequiresRatedMovies(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeResolver{}, &fakeText{}, &fakeImage{}, nil)

	if _, err := svc.Analyze(context.Background(), "user-1"); !errors.Is(err, ErrNoRatedMovies) {
		t.Fatalf("error = %v, want ErrNoRatedMovies", err)
	}
}

func TestAnalyzeSerializesHistoryAndStoresSummary(t *testing.T) {
	store := &fakeStore{}
	text := &fakeText{}
	svc := newTestService(store, &fakeResolver{}, text, &fakeImage{}, nil)

	if _, err := svc.RateMovie(context.Background(), "user-1", "Inception", 5); err != nil {
		t.Fatalf("rate: %v", err)
	}

	summary, err := svc.Analyze(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if summary != "Sci-Fi, Thriller" {
		t.Fatalf("summary = %q", summary)
	}
	if !strings.Contains(text.analyzeInput, "Inception (Rating: 5/5)") {
		t.Fatalf("serialized input = %q", text.analyzeInput)
	}

	stored, ok := svc.Sessions().Summary("user-1")
	if !ok || stored != summary {
		t.Fatalf("stored summary = %q, ok = %v", stored, ok)
	}
}

func TestAnalyzeFailureKeepsPreviousSummary(t *testing.T) {
	store := &fakeStore{}
	text := &fakeText{}
	svc := newTestService(store, &fakeResolver{}, text, &fakeImage{}, nil)

	if _, err := svc.RateMovie(context.Background(), "user-1", "Inception", 5); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if _, err := svc.Analyze(context.Background(), "user-1"); err != nil {
		t.Fatalf("first analyze: %v", err)
	}

	text.analyzeFn = func(ctx context.Context, ratedMovies string) (string, error) {
		return "", gemini.ErrGenerationFailed
	}
	if _, err := svc.Analyze(context.Background(), "user-1"); !errors.Is(err, gemini.ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}

	stored, ok := svc.Sessions().Summary("user-1")
	if !ok || stored != "Sci-Fi, Thriller" {
		t.Fatalf("previous summary lost: %q, ok = %v", stored, ok)
	}
}

func TestAnalyzeDropsStaleResult(t *testing.T) {
	store := &fakeStore{}
	text := &fakeText{}
	svc := newTestService(store, &fakeResolver{}, text, &fakeImage{}, nil)

	if _, err := svc.RateMovie(context.Background(), "user-1", "Inception", 5); err != nil {
		t.Fatalf("rate: %v", err)
	}

	// The rated set changes while the analysis call is in flight.
	text.analyzeFn = func(ctx context.Context, ratedMovies string) (string, error) {
		svc.Sessions().Invalidate("user-1")
		return "Stale Types", nil
	}
	if _, err := svc.Analyze(context.Background(), "user-1"); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if _, ok := svc.Sessions().Summary("user-1"); ok {
		t.Fatal("stale summary must not be stored")
	}
}

func TestRecommendRequiresAnalysis(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeResolver{}, &fakeText{}, &fakeImage{}, nil)

	if _, err := svc.Recommend(context.Background(), "user-1"); !errors.Is(err, ErrNoAnalysis) {
		t.Fatalf("error = %v, want ErrNoAnalysis", err)
	}
}

func TestRecommendTitleFailureAborts(t *testing.T) {
	store := &fakeStore{}
	text := &fakeText{titlesErr: gemini.ErrGenerationFailed}
	svc := newTestService(store, &fakeResolver{}, text, &fakeImage{}, nil)

	if _, err := svc.RateMovie(context.Background(), "user-1", "Inception", 5); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if _, err := svc.Analyze(context.Background(), "user-1"); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if _, err := svc.Recommend(context.Background(), "user-1"); !errors.Is(err, gemini.ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}
	if got := svc.Sessions().Recommendations("user-1"); got != nil {
		t.Fatalf("recommendations stored despite failure: %v", got)
	}
}

func TestRecommendStoresResults(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{metadata: map[string]domain.MovieMetadata{
		"Heat": hostedMeta("Heat", "A crew of thieves and a relentless detective."),
	}}
	text := &fakeText{titles: []string{"Heat", "Ronin"}}
	svc := newTestService(store, resolver, text, &fakeImage{}, nil)

	if _, err := svc.RateMovie(context.Background(), "user-1", "Inception", 5); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if _, err := svc.Analyze(context.Background(), "user-1"); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	recs, err := svc.Recommend(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("recs length = %d, want 2", len(recs))
	}
	if recs[0].Title != "Heat" || recs[1].Title != "Ronin" {
		t.Fatalf("titles out of order: %v, %v", recs[0].Title, recs[1].Title)
	}

	stored := svc.Sessions().Recommendations("user-1")
	if len(stored) != 2 {
		t.Fatalf("stored recs length = %d", len(stored))
	}
}

func TestChangeFeedInvalidatesSession(t *testing.T) {
	store := &fakeStore{}
	notifier := repository.NewNotifier()
	svc := newTestService(store, &fakeResolver{}, &fakeText{}, &fakeImage{}, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	if _, err := svc.RateMovie(ctx, "user-1", "Inception", 5); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if _, err := svc.Analyze(ctx, "user-1"); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if _, ok := svc.Sessions().Summary("user-1"); !ok {
		t.Fatal("summary missing before invalidation")
	}

	notifier.Publish("user-1")

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := svc.Sessions().Summary("user-1"); !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("summary not cleared after change event")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSerializeRatedMovies(t *testing.T) {
	release := "1995-12-15"
	vote := 8.3
	movies := []domain.RatedMovie{
		{Title: "Inception", Rating: 5},
		{Title: "Heat", Rating: 4, ReleaseDate: &release, VoteAverage: &vote},
	}

	got := SerializeRatedMovies(movies)
	want := "Inception (Rating: 5/5), Heat (Rating: 4/5, Released: 1995-12-15, Score: 8.3/10)"
	if got != want {
		t.Fatalf("serialized = %q, want %q", got, want)
	}

	if got := SerializeRatedMovies(nil); got != "" {
		t.Fatalf("empty input serialized to %q", got)
	}
}

func BenchmarkSerializeRatedMovies(b *testing.B) {
	vote := 7.7
	movies := make([]domain.RatedMovie, 0, 50)
	for i := 0; i < 50; i++ {
		movies = append(movies, domain.RatedMovie{
			Title:       fmt.Sprintf("Movie %d", i),
			Rating:      i%5 + 1,
			VoteAverage: &vote,
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = SerializeRatedMovies(movies)
	}
}
