package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/timmy/drawmatch/internal/config"
	"github.com/timmy/drawmatch/internal/domain"
)

func TestParseVLMLabels(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "plain json sorted by confidence",
			content: `{"labels":[{"name":"Pet","confidence":80},{"name":"Cat","confidence":97}]}`,
			want:    []string{"Cat", "Pet"},
		},
		{
			name:    "fenced json",
			content: "```json\n{\"labels\":[{\"name\":\"Tree\",\"confidence\":90}]}\n```",
			want:    []string{"Tree"},
		},
		{
			name:    "blank names dropped",
			content: `{"labels":[{"name":"  ","confidence":99},{"name":"Sun","confidence":70}]}`,
			want:    []string{"Sun"},
		},
		{name: "empty labels", content: `{"labels":[]}`, want: []string{}},
		{name: "not json", content: "I see a cat", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVLMLabels(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVLMLabels() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i].Name != tt.want[i] {
					t.Errorf("label %d = %q, want %q", i, got[i].Name, tt.want[i])
				}
			}
		})
	}
}

func TestVLMVisionDetectLabels(t *testing.T) {
	var gotReq map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		content := `{"labels":[{"name":"Cat","confidence":96},{"name":"Pet","confidence":88},{"name":"Blob","confidence":20}]}`
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": content}}},
		})
	}))
	defer srv.Close()

	v := NewVLMVision(&config.VisionConfig{Model: "gpt-4o-mini", APIKey: "k", BaseURL: srv.URL})
	labels, err := v.DetectLabels(context.Background(), []byte("\x89PNG\r\n\x1a\n"), 1, 75)
	if err != nil {
		t.Fatalf("DetectLabels() error = %v", err)
	}
	if len(labels) != 1 || labels[0].Name != "Cat" {
		t.Errorf("labels = %v", labels)
	}
	if gotReq["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", gotReq["model"])
	}
	raw, _ := json.Marshal(gotReq["messages"])
	if !strings.Contains(string(raw), "data:image/png;base64,") {
		t.Errorf("image not sent as png data url: %s", raw)
	}
}

func TestVLMVisionHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	v := NewVLMVision(&config.VisionConfig{Model: "m", BaseURL: srv.URL})
	_, err := v.DetectModerationLabels(context.Background(), []byte("x"), 60)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error = %v", err)
	}
}

type fakeRekognition struct {
	labelsIn *rekognition.DetectLabelsInput
	err      error
}

func (f *fakeRekognition) DetectLabels(_ context.Context, in *rekognition.DetectLabelsInput, _ ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	f.labelsIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &rekognition.DetectLabelsOutput{Labels: []types.Label{
		{Name: aws.String("Cat"), Confidence: aws.Float32(99.1)},
		{Name: aws.String("Animal"), Confidence: aws.Float32(98)},
	}}, nil
}

func (f *fakeRekognition) DetectModerationLabels(_ context.Context, _ *rekognition.DetectModerationLabelsInput, _ ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &rekognition.DetectModerationLabelsOutput{ModerationLabels: []types.ModerationLabel{
		{Name: aws.String("Violence"), Confidence: aws.Float32(72)},
	}}, nil
}

func TestRekognitionVision(t *testing.T) {
	fake := &fakeRekognition{}
	r := &RekognitionVision{client: fake}

	labels, err := r.DetectLabels(context.Background(), []byte("img"), 10, 75)
	if err != nil {
		t.Fatalf("DetectLabels() error = %v", err)
	}
	if len(labels) != 2 || labels[0].Name != "Cat" {
		t.Errorf("labels = %v", labels)
	}
	if aws.ToInt32(fake.labelsIn.MaxLabels) != 10 || aws.ToFloat32(fake.labelsIn.MinConfidence) != 75 {
		t.Errorf("request = %+v", fake.labelsIn)
	}

	mod, err := r.DetectModerationLabels(context.Background(), []byte("img"), 60)
	if err != nil || len(mod) != 1 || mod[0].Name != "Violence" {
		t.Errorf("moderation = %v, %v", mod, err)
	}

	fake.err = errors.New("throttled")
	if _, err := r.DetectLabels(context.Background(), []byte("img"), 10, 75); err == nil {
		t.Error("expected error")
	}
}

func TestNewVisionClientUnknownProvider(t *testing.T) {
	if _, err := NewVisionClient(context.Background(), &config.VisionConfig{Provider: "clippy"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSafetyGate(t *testing.T) {
	tests := []struct {
		name        string
		labels      []VisionLabel
		appropriate bool
	}{
		{name: "no labels", appropriate: true},
		{name: "below floor", labels: []VisionLabel{{Name: "Suggestive", Confidence: 59.9}}, appropriate: true},
		{name: "at floor", labels: []VisionLabel{{Name: "Violence", Confidence: 60}}, appropriate: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewSafetyGate(&fakeVision{moderation: tt.labels}, 0, 0)
			res, err := gate.Moderate(context.Background(), []byte("img"))
			if err != nil {
				t.Fatalf("Moderate() error = %v", err)
			}
			if res.IsAppropriate != tt.appropriate {
				t.Errorf("appropriate = %v, flagged = %v", res.IsAppropriate, res.FlaggedLabels)
			}
		})
	}

	gate := NewSafetyGate(&fakeVision{moderationErr: errors.New("down")}, 0, 0)
	if _, err := gate.Moderate(context.Background(), nil); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("error = %v", err)
	}
}

func TestLabelExtractor(t *testing.T) {
	vision := &fakeVision{labels: []VisionLabel{
		{Name: "Cat", Confidence: 99},
		{Name: "", Confidence: 95},
		{Name: "Pet", Confidence: 90},
		{Name: "Blur", Confidence: 30},
		{Name: "Animal", Confidence: 85},
	}}
	labels, err := NewLabelExtractor(vision, 2, 0, 0).ExtractLabels(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("ExtractLabels() error = %v", err)
	}
	if len(labels) != 2 || labels[0] != "Cat" || labels[1] != "Pet" {
		t.Errorf("labels = %v", labels)
	}

	vision.labels = nil
	labels, err = NewLabelExtractor(vision, 0, 0, 0).ExtractLabels(context.Background(), []byte("img"))
	if err != nil || len(labels) != 0 {
		t.Errorf("empty labels = %v, %v", labels, err)
	}
}
