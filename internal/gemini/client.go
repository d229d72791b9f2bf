package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/Dragy007/Movie-RecS/internal/domain"
	"github.com/Dragy007/Movie-RecS/internal/metrics"
)

// ErrGenerationFailed is returned when a generative call errors or produces
// unusable output. It is visible and non-fatal: callers surface it to the user
// and leave prior state untouched.
var ErrGenerationFailed = errors.New("gemini: generation failed")

// transparentPixelURI is the fixed substitute when the image service answers
// without an image payload: a 1x1 transparent PNG.
const transparentPixelURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// CreativeAssets is the declared output contract of the per-title asset call.
type CreativeAssets struct {
	Summary           string `json:"summary"`
	PosterDescription string `json:"posterDescription"`
}

// TextService is the contract for the generative text calls the pipeline makes.
type TextService interface {
	AnalyzePreferences(ctx context.Context, ratedMovies string) (string, error)
	RecommendTitles(ctx context.Context, movieTypes string) ([]string, error)
	CreativeAssets(ctx context.Context, title string) (CreativeAssets, error)
}

// ImageService is the contract for poster generation. The returned reference
// is tagged at creation: generated art carries PosterGenerated, the
// transparent-pixel substitute carries PosterPlaceholder.
type ImageService interface {
	GeneratePoster(ctx context.Context, posterDescription, title string) (domain.PosterRef, error)
}

// ClientConfig bundles the settings for the Gemini-backed client.
type ClientConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
	RPS        float64
	Logger     *logrus.Logger
	Metrics    *metrics.Collector
}

// Client implements TextService and ImageService against the Gemini API.
type Client struct {
	client     *genai.Client
	textModel  string
	imageModel string
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *logrus.Logger
	metrics    *metrics.Collector
}

// NewClient constructs a Gemini client handle. The handle is initialized once
// and shared read-only by every component that generates content.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	return &Client{
		client:     client,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		timeout:    cfg.Timeout,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
		metrics:    cfg.Metrics,
	}, nil
}

// Close releases the underlying API connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// AnalyzePreferences asks for a comma-separated list of movie types matching
// the serialized rating history.
func (c *Client) AnalyzePreferences(ctx context.Context, ratedMovies string) (string, error) {
	prompt := fmt.Sprintf(`You are an AI movie expert. Analyze the following list of movies the user has rated and determine the types of movies they like. Return a comma separated list of movie types.

Rated Movies: %s`, ratedMovies)

	raw, err := c.generateJSON(ctx, prompt, analyzeSchema())
	if err != nil {
		c.metrics.RecordGeneration("analyze", "error")
		return "", err
	}

	movieTypes, err := decodeAnalysis(raw)
	if err != nil {
		c.metrics.RecordGeneration("analyze", "error")
		return "", err
	}
	c.metrics.RecordGeneration("analyze", "ok")
	return movieTypes, nil
}

// RecommendTitles asks for movie titles matching the given types. The count
// is whatever the service decides to return.
func (c *Client) RecommendTitles(ctx context.Context, movieTypes string) ([]string, error) {
	prompt := fmt.Sprintf(`You are an AI movie expert. The user enjoys the following types of movies: %s. Recommend movies that match these types and return their titles.`, movieTypes)

	raw, err := c.generateJSON(ctx, prompt, recommendSchema())
	if err != nil {
		c.metrics.RecordGeneration("recommend", "error")
		return nil, err
	}

	titles, err := decodeRecommendations(raw)
	if err != nil {
		c.metrics.RecordGeneration("recommend", "error")
		return nil, err
	}
	c.metrics.RecordGeneration("recommend", "ok")
	return titles, nil
}

// CreativeAssets asks for a short summary plus a poster-concept description
// for a single title.
func (c *Client) CreativeAssets(ctx context.Context, title string) (CreativeAssets, error) {
	prompt := fmt.Sprintf(`You are a creative assistant for a movie database.
For the movie titled %q:
1. Generate a concise and engaging summary (2-3 sentences).
2. Generate a brief textual description (1-2 sentences) for a visually appealing movie poster concept. This description should guide an AI image generator. Focus on mood, key elements, and style.`, title)

	raw, err := c.generateJSON(ctx, prompt, assetsSchema())
	if err != nil {
		c.metrics.RecordGeneration("assets", "error")
		return CreativeAssets{}, err
	}

	assets, err := decodeCreativeAssets(raw)
	if err != nil {
		c.metrics.RecordGeneration("assets", "error")
		return CreativeAssets{}, err
	}
	c.metrics.RecordGeneration("assets", "ok")
	return assets, nil
}

// GeneratePoster asks the image model for poster art as an inline data URI.
// A successful call without an image payload yields the fixed
// transparent-pixel substitute, tagged as a placeholder, rather than an error.
func (c *Client) GeneratePoster(ctx context.Context, posterDescription, title string) (domain.PosterRef, error) {
	prompt := fmt.Sprintf(`Generate a movie poster based on this description: %q. The movie title is %q. If possible, subtly incorporate the movie title text into the poster design. The style should be cinematic and visually appealing.`, posterDescription, title)

	resp, err := c.generate(ctx, c.imageModel, prompt, func(model *genai.GenerativeModel) {})
	if err != nil {
		c.metrics.RecordGeneration("poster", "error")
		return domain.PosterRef{}, err
	}

	poster, ok := posterFromResponse(resp)
	if !ok {
		c.logger.WithField("title", title).Warn("gemini: image response carried no image payload")
		c.metrics.RecordGeneration("poster", "error")
		return poster, nil
	}
	c.metrics.RecordGeneration("poster", "ok")
	return poster, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	resp, err := c.generate(ctx, c.textModel, prompt, func(model *genai.GenerativeModel) {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = schema
	})
	if err != nil {
		return "", err
	}
	return firstTextPart(resp)
}

func (c *Client) generate(ctx context.Context, modelName, prompt string, configure func(*genai.GenerativeModel)) (*genai.GenerateContentResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrGenerationFailed, err)
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := c.client.GenerativeModel(modelName)
	configure(model)

	resp, err := model.GenerateContent(callCtx, genai.Text(prompt))
	if err != nil {
		c.logger.WithError(err).WithField("model", modelName).Warn("gemini: generate call failed")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return resp, nil
}

func firstTextPart(resp *genai.GenerateContentResponse) (string, error) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok && strings.TrimSpace(string(text)) != "" {
				return string(text), nil
			}
		}
	}
	return "", fmt.Errorf("%w: response carried no text", ErrGenerationFailed)
}
