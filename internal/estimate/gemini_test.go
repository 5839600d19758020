package estimate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"plate-go/internal/plate"
)

func geminiServer(t *testing.T, answer string, check func(*http.Request, geminiRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if check != nil {
			check(r, req)
		}
		resp := geminiResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content geminiContent `json:"content"`
		}{Content: geminiContent{Parts: []geminiPart{{Text: answer}}}})
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiEstimator_EstimateImage(t *testing.T) {
	srv := geminiServer(t, `{"name":"Apple","calories":95,"protein":0.5,"carbs":25,"fat":0.3}`,
		func(r *http.Request, req geminiRequest) {
			if r.URL.Path != "/models/test-model:generateContent" {
				t.Errorf("path = %q", r.URL.Path)
			}
			if got := r.Header.Get("x-goog-api-key"); got != "secret" {
				t.Errorf("api key header = %q", got)
			}
			parts := req.Contents[0].Parts
			if len(parts) != 2 || parts[1].InlineData == nil {
				t.Fatalf("expected prompt and inline image, got %+v", parts)
			}
			if parts[1].InlineData.MIMEType != "image/png" {
				t.Errorf("mime type = %q", parts[1].InlineData.MIMEType)
			}
			if parts[1].InlineData.Data != "cG5n" {
				t.Errorf("data = %q, want base64 of png", parts[1].InlineData.Data)
			}
		})

	g := NewGeminiEstimator("secret", srv.URL, "test-model", 5*time.Second)
	est, err := g.EstimateImage(context.Background(), plate.Frame{Data: []byte("png"), MIMEType: "image/png"})
	if err != nil {
		t.Fatalf("EstimateImage() error = %v", err)
	}
	want := plate.Estimate{Name: "Apple", Calories: 95, Protein: 0.5, Carbs: 25, Fat: 0.3}
	if est == nil || *est != want {
		t.Errorf("EstimateImage() = %+v, want %+v", est, want)
	}
}

func TestGeminiEstimator_EstimateText(t *testing.T) {
	srv := geminiServer(t, "```json\n{\"name\":\"Oatmeal\",\"calories\":150,\"protein\":5,\"carbs\":27,\"fat\":3}\n```",
		func(r *http.Request, req geminiRequest) {
			parts := req.Contents[0].Parts
			if len(parts) != 1 || !strings.Contains(parts[0].Text, "bowl of oatmeal") {
				t.Errorf("prompt does not carry description: %+v", parts)
			}
		})

	g := NewGeminiEstimator("secret", srv.URL, "", time.Second)
	est, err := g.EstimateText(context.Background(), "bowl of oatmeal")
	if err != nil {
		t.Fatalf("EstimateText() error = %v", err)
	}
	if est == nil || est.Name != "Oatmeal" || est.Calories != 150 {
		t.Errorf("EstimateText() = %+v", est)
	}
}

func TestGeminiEstimator_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGeminiEstimator("secret", srv.URL, "", time.Second)
	_, err := g.EstimateText(context.Background(), "toast")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("EstimateText() error = %v, want status 429", err)
	}
}

func TestParseEstimate(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    *plate.Estimate
		wantErr bool
	}{
		{name: "plain json", text: `{"name":"Egg","calories":78}`, want: &plate.Estimate{Name: "Egg", Calories: 78}},
		{name: "fenced", text: "```json\n{\"name\":\"Egg\",\"calories\":78}\n```", want: &plate.Estimate{Name: "Egg", Calories: 78}},
		{name: "surrounding prose", text: `Sure! {"name":"Egg","calories":78} Enjoy.`, want: &plate.Estimate{Name: "Egg", Calories: 78}},
		{name: "blank", text: "   ", want: nil},
		{name: "null", text: "null", want: nil},
		{name: "not json", text: "I am not sure", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEstimate(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseEstimate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("parseEstimate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
