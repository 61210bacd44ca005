package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/timmy/drawmatch/internal/config"
)

// VisionLabel is one detection with the adapter's confidence in percent.
type VisionLabel struct {
	Name       string
	Confidence float64
}

// VisionClient is the external image labeling and moderation service.
// Both calls return labels in descending confidence order.
type VisionClient interface {
	DetectLabels(ctx context.Context, image []byte, maxLabels int, minConfidence float64) ([]VisionLabel, error)
	DetectModerationLabels(ctx context.Context, image []byte, minConfidence float64) ([]VisionLabel, error)
}

// NewVisionClient creates the vision adapter selected by cfg.Provider.
func NewVisionClient(ctx context.Context, cfg *config.VisionConfig) (VisionClient, error) {
	switch cfg.Provider {
	case "rekognition":
		return NewRekognitionVision(ctx, cfg)
	case "openai":
		return NewVLMVision(cfg), nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q", cfg.Provider)
	}
}

// rekognitionAPI is the subset of *rekognition.Client used here.
type rekognitionAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
	DetectModerationLabels(ctx context.Context, params *rekognition.DetectModerationLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error)
}

// RekognitionVision labels and moderates images with AWS Rekognition.
type RekognitionVision struct {
	client rekognitionAPI
}

// NewRekognitionVision creates a Rekognition client. Static credentials are
// used when configured, otherwise the default AWS credential chain.
func NewRekognitionVision(ctx context.Context, cfg *config.VisionConfig) (*RekognitionVision, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &RekognitionVision{client: rekognition.NewFromConfig(awsCfg)}, nil
}

// DetectLabels implements VisionClient.
func (r *RekognitionVision) DetectLabels(ctx context.Context, image []byte, maxLabels int, minConfidence float64) ([]VisionLabel, error) {
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(int32(maxLabels)),
		MinConfidence: aws.Float32(float32(minConfidence)),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition DetectLabels: %w", err)
	}
	labels := make([]VisionLabel, 0, len(out.Labels))
	for _, l := range out.Labels {
		labels = append(labels, VisionLabel{
			Name:       aws.ToString(l.Name),
			Confidence: float64(aws.ToFloat32(l.Confidence)),
		})
	}
	return labels, nil
}

// DetectModerationLabels implements VisionClient.
func (r *RekognitionVision) DetectModerationLabels(ctx context.Context, image []byte, minConfidence float64) ([]VisionLabel, error) {
	out, err := r.client.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image:         &types.Image{Bytes: image},
		MinConfidence: aws.Float32(float32(minConfidence)),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition DetectModerationLabels: %w", err)
	}
	labels := make([]VisionLabel, 0, len(out.ModerationLabels))
	for _, l := range out.ModerationLabels {
		labels = append(labels, VisionLabel{
			Name:       aws.ToString(l.Name),
			Confidence: float64(aws.ToFloat32(l.Confidence)),
		})
	}
	return labels, nil
}
