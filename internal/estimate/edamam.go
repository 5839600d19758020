package estimate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"plate-go/internal/plate"
)

const defaultEdamamBaseURL = "https://api.edamam.com"

// EdamamEstimator estimates text descriptions with the Edamam Food Database
// parser. It cannot analyze images.
type EdamamEstimator struct {
	appID, appKey string
	baseURL       string
	client        *http.Client
}

var _ plate.Estimator = (*EdamamEstimator)(nil)

// NewEdamamEstimator creates an EdamamEstimator. An empty baseURL selects the public API.
func NewEdamamEstimator(appID, appKey, baseURL string, timeout time.Duration) *EdamamEstimator {
	if baseURL == "" {
		baseURL = defaultEdamamBaseURL
	}
	return &EdamamEstimator{
		appID:   appID,
		appKey:  appKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// edamamFood is a food record; nutrients are per 100 g.
type edamamFood struct {
	FoodID    string             `json:"foodId"`
	Label     string             `json:"label"`
	Nutrients map[string]float64 `json:"nutrients"`
}

type edamamMeasure struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

type edamamParserResponse struct {
	Parsed []struct {
		Food     edamamFood    `json:"food"`
		Quantity float64       `json:"quantity"`
		Measure  edamamMeasure `json:"measure"`
	} `json:"parsed"`
	Hints []struct {
		Food     edamamFood      `json:"food"`
		Measures []edamamMeasure `json:"measures"`
	} `json:"hints"`
}

// EstimateImage is not supported.
func (e *EdamamEstimator) EstimateImage(ctx context.Context, frame plate.Frame) (*plate.Estimate, error) {
	return nil, fmt.Errorf("edamam estimator cannot analyze images")
}

// EstimateText parses description and scales the best match to its quantity.
// Without an explicit quantity the food's serving measure is used, falling back to 100 g.
func (e *EdamamEstimator) EstimateText(ctx context.Context, description string) (*plate.Estimate, error) {
	u := fmt.Sprintf("%s/api/food-database/v2/parser?ingr=%s&app_id=%s&app_key=%s",
		e.baseURL, url.QueryEscape(description), url.QueryEscape(e.appID), url.QueryEscape(e.appKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating edamam request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling edamam parser: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading edamam response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edamam parser API error %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var pr edamamParserResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("parsing edamam response: %w", err)
	}

	switch {
	case len(pr.Parsed) > 0 && pr.Parsed[0].Measure.Weight > 0:
		p := pr.Parsed[0]
		qty := p.Quantity
		if qty <= 0 {
			qty = 1
		}
		return foodEstimate(p.Food, qty*p.Measure.Weight), nil
	case len(pr.Hints) > 0:
		h := pr.Hints[0]
		grams := 100.0
		for _, m := range h.Measures {
			if m.Label == "Serving" && m.Weight > 0 {
				grams = m.Weight
				break
			}
		}
		return foodEstimate(h.Food, grams), nil
	default:
		return nil, nil
	}
}

// foodEstimate scales per-100 g nutrients to grams.
func foodEstimate(f edamamFood, grams float64) *plate.Estimate {
	factor := grams / 100
	return &plate.Estimate{
		Name:     f.Label,
		Calories: f.Nutrients["ENERC_KCAL"] * factor,
		Protein:  f.Nutrients["PROCNT"] * factor,
		Carbs:    f.Nutrients["CHOCDF"] * factor,
		Fat:      f.Nutrients["FAT"] * factor,
	}
}
