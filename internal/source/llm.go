package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"

	"github.com/lakbayph/listingsync/internal/listing"
)

// Enricher asks a language model to fill fields missing from a stored
// listing. The returned RawRecord carries only what the model produced;
// the merge policy decides what actually lands.
type Enricher interface {
	Name() string
	Enrich(ctx context.Context, l *listing.Listing) (listing.RawRecord, error)
}

const enrichSystemPrompt = `You are a Philippines travel data assistant. Given a known listing, provide its missing details.

Return ONLY valid JSON (no markdown, no code blocks) with these keys:
{
  "address": "complete street address or null",
  "description": "accurate 2-3 sentence description or null",
  "rating": number 0-5 or null,
  "review_count": number or null,
  "price_range": "$", "$$", "$$$", "$$$$" or null,
  "amenities": ["list of amenities"] or null,
  "highlights": ["notable features"] or null,
  "hours": {"Monday": "09:00-18:00", ...} or null,
  "location_type": "Restaurant", "Hotel" or "Attraction"
}

Use null for anything you do not know. Never invent ratings.`

func enrichUserPrompt(l *listing.Listing) string {
	return fmt.Sprintf("Business: %q\nCity: %q\nCategory: %q", l.Name, l.City, l.Category)
}

// extractJSON locates the first top-level {...} block in a completion,
// tolerating code fences and surrounding prose.
func extractJSON(content string) (map[string]any, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &fields); err != nil {
		return nil, fmt.Errorf("parsing completion JSON: %w", err)
	}
	return fields, nil
}

// enrichmentFields drops null values and re-tags the record with the
// listing's own identity so it merges onto the right key.
func enrichmentFields(parsed map[string]any, l *listing.Listing) map[string]any {
	fields := make(map[string]any, len(parsed)+4)
	for k, v := range parsed {
		if v == nil {
			continue
		}
		fields[k] = v
	}
	fields["name"] = l.Name
	fields["city"] = l.City
	if l.ExternalID != "" {
		fields["external_id"] = l.ExternalID
	}
	if l.WebURL != nil {
		fields["web_url"] = *l.WebURL
	}
	return fields
}

// ---- Grok (OpenAI-compatible) ----

const grokBaseURL = "https://api.x.ai/v1"

// GrokEnricher calls the x.ai chat completions API through the
// OpenAI-compatible client.
type GrokEnricher struct {
	client *openai.Client
	model  openai.ChatModel
}

// NewGrokEnricher constructs a GrokEnricher with the given API key.
func NewGrokEnricher(apiKey string) *GrokEnricher {
	client := openai.NewClient(
		openaioption.WithAPIKey(apiKey),
		openaioption.WithBaseURL(grokBaseURL),
	)
	return &GrokEnricher{client: &client, model: openai.ChatModel("grok-2")}
}

func (g *GrokEnricher) Name() string { return "grok" }

func (g *GrokEnricher) Enrich(ctx context.Context, l *listing.Listing) (listing.RawRecord, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(enrichSystemPrompt),
			openai.UserMessage(enrichUserPrompt(l)),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return listing.RawRecord{}, fmt.Errorf("grok API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return listing.RawRecord{}, fmt.Errorf("no response from grok")
	}

	parsed, err := extractJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return listing.RawRecord{}, fmt.Errorf("grok completion for %q: %w", l.Name, err)
	}

	return listing.RawRecord{
		Source: listing.SourceLLMEnriched,
		Fields: enrichmentFields(parsed, l),
	}, nil
}

// ---- Anthropic ----

// ClaudeEnricher is the alternate enrichment provider.
type ClaudeEnricher struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewClaudeEnricher constructs a ClaudeEnricher with the given API key.
func NewClaudeEnricher(apiKey string) *ClaudeEnricher {
	client := anthropic.NewClient(anthropicoption.WithAPIKey(apiKey))
	return &ClaudeEnricher{client: &client, model: anthropic.ModelClaude3_5HaikuLatest}
}

func (c *ClaudeEnricher) Name() string { return "claude" }

func (c *ClaudeEnricher) Enrich(ctx context.Context, l *listing.Listing) (listing.RawRecord, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: enrichSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(enrichUserPrompt(l))),
		},
	})
	if err != nil {
		return listing.RawRecord{}, fmt.Errorf("anthropic API error: %w", err)
	}
	if len(resp.Content) == 0 {
		return listing.RawRecord{}, fmt.Errorf("no response from anthropic")
	}

	parsed, err := extractJSON(resp.Content[0].Text)
	if err != nil {
		return listing.RawRecord{}, fmt.Errorf("anthropic completion for %q: %w", l.Name, err)
	}

	return listing.RawRecord{
		Source: listing.SourceLLMEnriched,
		Fields: enrichmentFields(parsed, l),
	}, nil
}
