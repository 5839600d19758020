package estimate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"plate-go/internal/plate"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.0-flash"
)

const estimatePrompt = `You are a nutrition estimator. Identify the single food or meal %s and estimate its nutrition for one typical serving.
Respond with only a JSON object of the form {"name": string, "calories": number, "protein": number, "carbs": number, "fat": number}.
calories is in kcal; protein, carbs and fat are in grams.
If you cannot identify a food with confidence, respond with {"name": ""}.`

// GeminiEstimator estimates nutrition with the Gemini generateContent API.
// It supports both images and text descriptions.
type GeminiEstimator struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ plate.Estimator = (*GeminiEstimator)(nil)

// NewGeminiEstimator creates a GeminiEstimator. Empty baseURL or model select the defaults.
func NewGeminiEstimator(apiKey, baseURL, model string, timeout time.Duration) *GeminiEstimator {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiEstimator{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// EstimateImage asks the model to identify the food in frame.
func (g *GeminiEstimator) EstimateImage(ctx context.Context, frame plate.Frame) (*plate.Estimate, error) {
	mimeType := frame.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	parts := []geminiPart{
		{Text: fmt.Sprintf(estimatePrompt, "shown in this image")},
		{InlineData: &geminiInlineData{
			MIMEType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(frame.Data),
		}},
	}
	return g.estimate(ctx, parts)
}

// EstimateText asks the model to estimate the described food.
func (g *GeminiEstimator) EstimateText(ctx context.Context, description string) (*plate.Estimate, error) {
	parts := []geminiPart{
		{Text: fmt.Sprintf(estimatePrompt, "described as: "+description)},
	}
	return g.estimate(ctx, parts)
}

func (g *GeminiEstimator) estimate(ctx context.Context, parts []geminiPart) (*plate.Estimate, error) {
	text, err := g.generate(ctx, parts)
	if err != nil {
		return nil, err
	}
	return parseEstimate(text)
}

// generate sends one generateContent request and returns the first candidate's text.
func (g *GeminiEstimator) generate(ctx context.Context, parts []geminiPart) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMIMEType: "application/json",
			Temperature:      0.2,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling gemini: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", fmt.Errorf("parsing gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// parseEstimate decodes the model's JSON answer. Blank or null answers mean
// no confident result and yield a nil Estimate.
func parseEstimate(text string) (*plate.Estimate, error) {
	text = cleanModelResponse(text)
	if text == "" {
		return nil, nil
	}
	var est *plate.Estimate
	if err := json.Unmarshal([]byte(text), &est); err != nil {
		return nil, fmt.Errorf("parsing estimate: %w", err)
	}
	return est, nil
}

// cleanModelResponse strips markdown fences and anything around the outermost JSON object.
func cleanModelResponse(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		text = text[start : end+1]
	}
	return text
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
