// Package openai provides a Summarizer implementation using OpenAI.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/infrastructure/config"
)

// maxPromptActivities caps how many activities are sent in one prompt.
// The newest ones are kept.
const maxPromptActivities = 200

const digestPrompt = `You write short digests of a website's activity log for its owner.
The activities below all survived: anything undone by a site restore has already been removed.

Site: %s
Activities (JSON, newest first):
%s

Return ONLY a valid JSON object, no other text:
{"summary": "two or three sentences", "highlights": ["short bullet", "..."]}
Keep highlights to at most five entries. Mention restores, failures and security events first.`

// Client implements the Summarizer interface using OpenAI.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new OpenAI LLM client.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Summarize writes a digest of the given activities.
func (c *Client) Summarize(ctx context.Context, siteID string, activities []entities.Activity) (string, error) {
	if len(activities) == 0 {
		return "", errors.New("no activities to summarize")
	}

	activitiesJSON, err := json.Marshal(activitiesToRaw(activities))
	if err != nil {
		return "", fmt.Errorf("marshaling activities: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(digestPrompt, siteID, string(activitiesJSON)),
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return formatDigest(resp.Choices[0].Message.Content), nil
}

// rawDigest is the JSON structure the model is asked to return.
type rawDigest struct {
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
}

// rawActivity is the JSON structure sent to the model.
type rawActivity struct {
	Published string `json:"published"`
	Name      string `json:"name"`
	Summary   string `json:"summary"`
	Actor     string `json:"actor,omitempty"`
	Status    string `json:"status,omitempty"`
}

// activitiesToRaw converts entities to the prompt format, newest first.
func activitiesToRaw(activities []entities.Activity) []rawActivity {
	sorted := make([]entities.Activity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})
	if len(sorted) > maxPromptActivities {
		sorted = sorted[:maxPromptActivities]
	}

	raw := make([]rawActivity, 0, len(sorted))
	for i := range sorted {
		raw = append(raw, rawActivity{
			Published: sorted[i].PublishedAt.UTC().Format(time.RFC3339),
			Name:      sorted[i].Name,
			Summary:   sorted[i].Summary,
			Actor:     sorted[i].Actor,
			Status:    sorted[i].Status,
		})
	}
	return raw
}

// formatDigest renders the model's JSON answer as text.
// Answers that are not the requested JSON are returned as plain text.
func formatDigest(content string) string {
	content = cleanJSONResponse(content)

	var digest rawDigest
	if err := json.Unmarshal([]byte(content), &digest); err != nil || digest.Summary == "" {
		return content
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(digest.Summary))
	if len(digest.Highlights) > 0 {
		b.WriteString("\n")
		for _, h := range digest.Highlights {
			b.WriteString("\n- ")
			b.WriteString(strings.TrimSpace(h))
		}
	}
	return b.String()
}

// cleanJSONResponse removes markdown code blocks if present.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}

	return strings.TrimSpace(content)
}
