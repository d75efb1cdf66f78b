package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/creastat/foodagent"
)

// DefaultModel is used when GeminiConfig.Model is empty.
const DefaultModel = "gemini-2.0-flash"

// GeminiConfig configures the Gemini backed extractor.
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string // optional, overrides the API endpoint
	Temperature float32
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// GeminiExtractor implements Extractor with Google's Gemini API.
type GeminiExtractor struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

var maxTokens = map[Mode]int32{
	ModeQuestion:  150,
	ModeAssign:    50,
	ModeConfirm:   10,
	ModeNormalize: 30,
	ModeFoodCheck: 10,
}

// NewGeminiExtractor creates a Gemini client.
func NewGeminiExtractor(ctx context.Context, cfg GeminiConfig) (*GeminiExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiExtractor{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}, nil
}

// Extract implements Extractor. The dialogue is sent as conversation history
// and the instructions as the final user turn.
func (g *GeminiExtractor) Extract(ctx context.Context, req Request) (string, error) {
	contents := make([]*genai.Content, 0, len(req.Dialogue)+1)
	for _, m := range req.Dialogue {
		role := genai.RoleUser
		if m.Role == foodagent.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}
	contents = append(contents, genai.NewContentFromText(req.Instructions, genai.RoleUser))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(Persona, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		MaxOutputTokens:   maxTokens[req.Mode],
	})
	if err != nil {
		return "", fmt.Errorf("gemini %s call failed: %w", req.Mode, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	g.logger.Debug("extraction",
		zap.Stringer("mode", req.Mode),
		zap.String("output", text))
	return text, nil
}

// Compile-time check that GeminiExtractor implements Extractor.
var _ Extractor = (*GeminiExtractor)(nil)
