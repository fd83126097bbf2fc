package analysis

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// VisionRecognizer reads menu text with Google Cloud Vision
// DOCUMENT_TEXT_DETECTION, which handles dense multi-column text better than
// plain TEXT_DETECTION.
type VisionRecognizer struct {
	svc *vision.Service
}

// NewVisionRecognizer uses apiKey when set, Application Default Credentials
// otherwise.
func NewVisionRecognizer(ctx context.Context, apiKey string) (*VisionRecognizer, error) {
	opts := []option.ClientOption{option.WithScopes(vision.CloudPlatformScope)}
	if apiKey != "" {
		opts = []option.ClientOption{option.WithAPIKey(apiKey)}
	}
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	return &VisionRecognizer{svc: svc}, nil
}

func (r *VisionRecognizer) RecognizeText(ctx context.Context, image []byte) (string, error) {
	req := &vision.AnnotateImageRequest{
		Image: &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
		Features: []*vision.Feature{
			{Type: "DOCUMENT_TEXT_DETECTION"},
		},
		ImageContext: &vision.ImageContext{
			LanguageHints: []string{"en", "th", "ja"},
		},
	}

	call := r.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	})
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", nil
	}
	res := resp.Responses[0]
	if res.Error != nil {
		return "", fmt.Errorf("vision annotate: %s", res.Error.Message)
	}
	if res.FullTextAnnotation != nil {
		return res.FullTextAnnotation.Text, nil
	}
	if len(res.TextAnnotations) > 0 {
		return res.TextAnnotations[0].Description, nil
	}
	return "", nil
}
