package estimate

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"plate-go/internal/plate"
)

// genericLabels are Rekognition labels too broad to look up as a food.
var genericLabels = map[string]bool{
	"food": true, "meal": true, "dish": true, "plant": true, "produce": true,
	"fruit": true, "vegetable": true, "breakfast": true, "lunch": true,
	"dinner": true, "brunch": true, "plate": true, "bowl": true,
	"cutlery": true, "fork": true, "spoon": true, "table": true,
	"platter": true, "lunch box": true, "sweets": true,
}

// labelDetector is the subset of the Rekognition client used here.
type labelDetector interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionEstimator identifies the food in an image with AWS Rekognition
// and looks the most specific label up with a text estimator.
type RekognitionEstimator struct {
	client        labelDetector
	text          plate.Estimator
	minConfidence float32
}

var _ plate.Estimator = (*RekognitionEstimator)(nil)

// NewRekognitionEstimator creates a RekognitionEstimator. text resolves
// labels and handles text descriptions.
func NewRekognitionEstimator(client *rekognition.Client, text plate.Estimator, minConfidence float64) *RekognitionEstimator {
	return newRekognitionEstimator(client, text, minConfidence)
}

func newRekognitionEstimator(client labelDetector, text plate.Estimator, minConfidence float64) *RekognitionEstimator {
	if minConfidence <= 0 {
		minConfidence = 75
	}
	return &RekognitionEstimator{
		client:        client,
		text:          text,
		minConfidence: float32(minConfidence),
	}
}

// EstimateImage detects labels in frame and estimates the first food-specific one.
func (r *RekognitionEstimator) EstimateImage(ctx context.Context, frame plate.Frame) (*plate.Estimate, error) {
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: frame.Data},
		MaxLabels:     aws.Int32(10),
		MinConfidence: aws.Float32(r.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("detecting labels: %w", err)
	}

	label := pickFoodLabel(out.Labels)
	if label == "" {
		return nil, nil
	}
	return r.text.EstimateText(ctx, label)
}

// EstimateText delegates to the text estimator.
func (r *RekognitionEstimator) EstimateText(ctx context.Context, description string) (*plate.Estimate, error) {
	return r.text.EstimateText(ctx, description)
}

// pickFoodLabel returns the first label that is not generic and, when
// Rekognition reports parents, descends from Food.
func pickFoodLabel(labels []types.Label) string {
	for _, l := range labels {
		name := aws.ToString(l.Name)
		if name == "" || genericLabels[strings.ToLower(name)] {
			continue
		}
		if len(l.Parents) > 0 && !hasFoodParent(l.Parents) {
			continue
		}
		return name
	}
	return ""
}

func hasFoodParent(parents []types.Parent) bool {
	for _, p := range parents {
		switch strings.ToLower(aws.ToString(p.Name)) {
		case "food", "fruit", "vegetable", "produce", "meal", "dessert", "beverage", "drink":
			return true
		}
	}
	return false
}
