package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// RekognitionRecognizer reads menu text with AWS Rekognition DetectText.
type RekognitionRecognizer struct {
	client *rekognition.Client
}

func NewRekognitionRecognizer(ctx context.Context, region string) (*RekognitionRecognizer, error) {
	if region == "" {
		return nil, errors.New("AWS_REGION not set")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &RekognitionRecognizer{client: rekognition.NewFromConfig(cfg)}, nil
}

// RecognizeText joins LINE detections top to bottom. WORD detections repeat
// the same text and are skipped.
func (r *RekognitionRecognizer) RecognizeText(ctx context.Context, image []byte) (string, error) {
	out, err := r.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: image},
		Filters: &types.DetectTextFilters{
			WordFilter: &types.DetectionFilter{MinConfidence: aws.Float32(60)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("rekognition detect text: %w", err)
	}

	var lines []string
	for _, d := range out.TextDetections {
		if d.Type == types.TextTypesLine && d.DetectedText != nil {
			lines = append(lines, *d.DetectedText)
		}
	}
	return strings.Join(lines, "\n"), nil
}
