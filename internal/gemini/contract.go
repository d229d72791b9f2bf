package gemini

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/Dragy007/Movie-RecS/internal/domain"
)

// The declared field contracts of the three text calls. Output beyond these
// contracts is opaque: no vocabulary, count, or ordering guarantees.

func analyzeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"movieTypes": {
				Type:        genai.TypeString,
				Description: "A comma separated list of movie types that the user likes based on their rated movies.",
			},
		},
		Required: []string{"movieTypes"},
	}
}

func recommendSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"recommendations": {
				Type:        genai.TypeArray,
				Description: "Titles of movies matching the given movie types.",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"recommendations"},
	}
}

func assetsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeString,
				Description: "A short, engaging summary of the movie (around 2-3 sentences).",
			},
			"posterDescription": {
				Type:        genai.TypeString,
				Description: "A brief textual description (1-2 sentences) of a visually appealing movie poster concept for the given movie title.",
			},
		},
		Required: []string{"summary", "posterDescription"},
	}
}

func decodeAnalysis(raw string) (string, error) {
	var payload struct {
		MovieTypes string `json:"movieTypes"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", fmt.Errorf("%w: decode analysis: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(payload.MovieTypes) == "" {
		return "", fmt.Errorf("%w: analysis returned empty movie types", ErrGenerationFailed)
	}
	return payload.MovieTypes, nil
}

func decodeRecommendations(raw string) ([]string, error) {
	var payload struct {
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode recommendations: %v", ErrGenerationFailed, err)
	}

	titles := make([]string, 0, len(payload.Recommendations))
	for _, title := range payload.Recommendations {
		if strings.TrimSpace(title) == "" {
			continue
		}
		titles = append(titles, strings.TrimSpace(title))
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("%w: recommendations returned no titles", ErrGenerationFailed)
	}
	return titles, nil
}

func decodeCreativeAssets(raw string) (CreativeAssets, error) {
	var assets CreativeAssets
	if err := json.Unmarshal([]byte(raw), &assets); err != nil {
		return CreativeAssets{}, fmt.Errorf("%w: decode creative assets: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(assets.Summary) == "" || strings.TrimSpace(assets.PosterDescription) == "" {
		return CreativeAssets{}, fmt.Errorf("%w: creative assets incomplete", ErrGenerationFailed)
	}
	return assets, nil
}

// posterDataURI extracts the first inline image of a response as a data URI.
func posterDataURI(resp *genai.GenerateContentResponse) (string, bool) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
				mime := blob.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(blob.Data), true
			}
		}
	}
	return "", false
}

// posterFromResponse tags the poster at its point of creation: an inline image
// becomes a generated reference, an imageless response the placeholder pixel.
func posterFromResponse(resp *genai.GenerateContentResponse) (domain.PosterRef, bool) {
	if uri, ok := posterDataURI(resp); ok {
		return domain.GeneratedPoster(uri), true
	}
	return domain.PlaceholderPoster(transparentPixelURI), false
}
