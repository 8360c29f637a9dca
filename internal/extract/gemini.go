package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/toxscout/toxscout/internal/lead"
	"github.com/toxscout/toxscout/internal/resilience"
	"github.com/toxscout/toxscout/internal/utils"
)

const defaultModel = "gemini-2.5-flash"

//go:embed prompt.md
var promptTemplate string

// contentGenerator abstracts the LLM call so the extractor is testable
// without the real API.
type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Generator wraps the Google GenAI client for prompt-based extraction.
type Generator struct {
	client    *genai.Client
	modelName string
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{client: client, modelName: model}, nil
}

// GenerateContent sends the prompt to Gemini and returns the concatenated
// textual response.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

// GeminiExtractor asks the model to read a profile page and answer with a
// structured JSON record. Malformed responses are retried under the
// injected policy before giving up.
type GeminiExtractor struct {
	generator contentGenerator
	executor  *resilience.Executor
	logger    *zap.Logger
}

func NewGeminiExtractor(generator contentGenerator, policy resilience.Policy, logger *zap.Logger) *GeminiExtractor {
	policy.BreakerEnabled = false
	return &GeminiExtractor{
		generator: generator,
		executor:  resilience.NewExecutor("gemini_extract", policy, logger),
		logger:    logger,
	}
}

func (e *GeminiExtractor) Extract(ctx context.Context, url string) (*lead.Profile, error) {
	prompt := strings.ReplaceAll(promptTemplate, "{{PROFILE_URL}}", url)

	var profile *lead.Profile
	err := e.executor.Do(ctx, "extract", func(ctx context.Context) error {
		raw, err := e.generator.GenerateContent(ctx, prompt)
		if err != nil {
			return err
		}

		parsed, err := parseProfile(raw)
		if err != nil {
			e.logger.Debug("unparsable extraction response",
				zap.String("url", url),
				zap.String("response", utils.TruncateForLog(raw, 200)),
				zap.Error(err),
			)
			return err
		}

		profile = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", url, err)
	}

	profile.SourceURL = url
	profile.ExtractionStatus = lead.StatusSuccess
	return profile, nil
}

// parseProfile salvages a JSON object from the model output and decodes it
// into a profile. Responses wrapped in markdown fences or prose are
// tolerated as long as one object is present.
func parseProfile(raw string) (*lead.Profile, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, errors.New("no JSON object in response")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	if msg, ok := data["error"].(string); ok && strings.TrimSpace(msg) != "" {
		return nil, fmt.Errorf("extractor reported: %s", msg)
	}

	var profile lead.Profile
	if err := mapstructure.Decode(data, &profile); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}

	if strings.TrimSpace(profile.Name) == "" {
		return nil, errors.New("extraction response has no name")
	}

	return &profile, nil
}

// extractJSON strips markdown fences and slices out the outermost braces.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(raw[start : end+1])
}
