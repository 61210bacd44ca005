package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/drawmatch/internal/config"
	"github.com/timmy/drawmatch/internal/prompts"
)

// VLMVision labels and moderates drawings with an OpenAI-compatible vision
// language model. The model is instructed to answer with JSON labels.
type VLMVision struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewVLMVision creates a new VLM vision adapter.
// Parameters:
//   - cfg: vision configuration including model, API key and base URL.
//
// Returns:
//   - *VLMVision: initialized VLM client wrapper.
func NewVLMVision(cfg *config.VisionConfig) *VLMVision {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &VLMVision{
		client:   client,
		model:    cfg.Model,
		endpoint: strings.TrimSuffix(baseURL, "/") + "/chat/completions",
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for system, []interface{} for user with images
}

type openAITextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIImageContent struct {
	Type     string         `json:"type"`
	ImageURL openAIImageURL `json:"image_url"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type vlmLabelPayload struct {
	Labels []struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"labels"`
}

// DetectLabels implements VisionClient.
func (s *VLMVision) DetectLabels(ctx context.Context, image []byte, maxLabels int, minConfidence float64) ([]VisionLabel, error) {
	labels, err := s.complete(ctx, image, prompts.LabelSystemPrompt, prompts.LabelUserPrompt(maxLabels))
	if err != nil {
		return nil, err
	}
	labels = filterLabels(labels, minConfidence)
	if maxLabels > 0 && len(labels) > maxLabels {
		labels = labels[:maxLabels]
	}
	return labels, nil
}

// DetectModerationLabels implements VisionClient.
func (s *VLMVision) DetectModerationLabels(ctx context.Context, image []byte, minConfidence float64) ([]VisionLabel, error) {
	labels, err := s.complete(ctx, image, prompts.ModerationSystemPrompt, prompts.ModerationUserPrompt)
	if err != nil {
		return nil, err
	}
	return filterLabels(labels, minConfidence), nil
}

func (s *VLMVision) complete(ctx context.Context, image []byte, systemPrompt, userPrompt string) ([]VisionLabel, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", http.DetectContentType(image), base64.StdEncoding.EncodeToString(image))

	req := openAIRequest{
		Model: s.model,
		Messages: []openAIMessage{
			{
				Role:    "system",
				Content: systemPrompt,
			},
			{
				Role: "user",
				Content: []interface{}{
					openAITextContent{Type: "text", Text: userPrompt},
					openAIImageContent{
						Type:     "image_url",
						ImageURL: openAIImageURL{URL: dataURL, Detail: "low"},
					},
				},
			},
		},
		MaxTokens:      300,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var resp openAIResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call VLM API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return nil, fmt.Errorf("VLM API returned error: %s", errorMsg)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from VLM API (status: %d)", httpResp.StatusCode())
	}

	return parseVLMLabels(resp.Choices[0].Message.Content)
}

// parseVLMLabels reads the JSON label payload, tolerating a markdown code fence.
func parseVLMLabels(content string) ([]VisionLabel, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var payload vlmLabelPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse VLM labels: %w", err)
	}

	labels := make([]VisionLabel, 0, len(payload.Labels))
	for _, l := range payload.Labels {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			continue
		}
		labels = append(labels, VisionLabel{Name: name, Confidence: l.Confidence})
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Confidence > labels[j].Confidence
	})
	return labels, nil
}

func filterLabels(labels []VisionLabel, minConfidence float64) []VisionLabel {
	out := labels[:0]
	for _, l := range labels {
		if l.Confidence >= minConfidence {
			out = append(out, l)
		}
	}
	return out
}
