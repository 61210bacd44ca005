package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	objects   map[string][]byte
	headErr   error
	bucketErr error
	created   bool
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.bucketErr != nil {
		return nil, f.bucketErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = true
	return &s3.CreateBucketOutput{}, nil
}

func TestS3StorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{objects: map[string][]byte{}}
	store := newS3Storage(client, "drawings", StorageTypeS3Compatible, "http://localhost:9000/drawings/")

	key := "drawings/p1/e1.png"
	if err := store.Upload(ctx, key, strings.NewReader("png"), 3, "image/png"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	exists, err := store.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v; want true, nil", exists, err)
	}

	if got, want := store.GetURL(key), "http://localhost:9000/drawings/drawings/p1/e1.png"; got != want {
		t.Errorf("GetURL() = %q, want %q", got, want)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	exists, err = store.Exists(ctx, key)
	if err != nil || exists {
		t.Fatalf("Exists() after delete = %v, %v; want false, nil", exists, err)
	}
}

func TestS3StorageExistsPropagatesErrors(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{}, headErr: errors.New("boom")}
	store := newS3Storage(client, "drawings", StorageTypeS3, "")
	if _, err := store.Exists(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsureBucket(t *testing.T) {
	tests := []struct {
		name        string
		storeType   StorageType
		wantErr     bool
		wantCreated bool
	}{
		{name: "creates missing bucket", storeType: StorageTypeS3Compatible, wantCreated: true},
		{name: "r2 cannot create", storeType: StorageTypeR2, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeS3{objects: map[string][]byte{}, bucketErr: errors.New("missing")}
			store := newS3Storage(client, "drawings", tt.storeType, "")
			err := store.EnsureBucket(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("EnsureBucket() error = %v, wantErr %v", err, tt.wantErr)
			}
			if client.created != tt.wantCreated {
				t.Errorf("created = %v, want %v", client.created, tt.wantCreated)
			}
		})
	}
}

func TestDetectStorageType(t *testing.T) {
	tests := map[string]StorageType{
		"":                                      StorageTypeS3,
		"https://acct.r2.cloudflarestorage.com": StorageTypeR2,
		"s3.eu-west-1.amazonaws.com":            StorageTypeS3,
		"localhost:9000":                        StorageTypeS3Compatible,
	}
	for endpoint, want := range tests {
		if got := detectStorageType(endpoint); got != want {
			t.Errorf("detectStorageType(%q) = %q, want %q", endpoint, got, want)
		}
	}
}

func TestResolvePublicURL(t *testing.T) {
	cfg := &S3Config{Bucket: "b", UseSSL: true}
	if got, want := resolvePublicURL(cfg, "", "eu-west-1"), "https://b.s3.eu-west-1.amazonaws.com"; got != want {
		t.Errorf("aws url = %q, want %q", got, want)
	}
	if got, want := resolvePublicURL(cfg, "minio:9000", "us-east-1"), "https://minio:9000/b"; got != want {
		t.Errorf("compatible url = %q, want %q", got, want)
	}
	if got := normalizeEndpoint("https://minio:9000/path"); got != "minio:9000" {
		t.Errorf("normalizeEndpoint() = %q", got)
	}
}
