package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/petshop-baronesa/api/internal/platform/storage"
)

type stubSignedURLClient struct {
	lastBucket string
	lastObject string
	lastOpts   storage.UploadOptions
	err        error
}

func (s *stubSignedURLClient) SignedUploadURL(_ context.Context, bucket, object string, opts storage.UploadOptions) (storage.SignedURLResult, error) {
	s.lastBucket = bucket
	s.lastObject = object
	s.lastOpts = opts
	if s.err != nil {
		return storage.SignedURLResult{}, s.err
	}
	return storage.SignedURLResult{
		URL:       "https://signed.example/" + object,
		Method:    "PUT",
		ExpiresAt: time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC),
		Headers:   map[string]string{"Content-Type": opts.ContentType},
	}, nil
}

func newMediaService(t *testing.T, signer SignedURLClient) MediaService {
	t.Helper()
	svc, err := NewMediaService(MediaServiceDeps{
		Signer: signer,
		Bucket: "petshop-media",
		IDFunc: func() string { return "upload01" },
	})
	if err != nil {
		t.Fatalf("NewMediaService: %v", err)
	}
	return svc
}

func TestCreateUploadURLBuildsProductPath(t *testing.T) {
	signer := &stubSignedURLClient{}
	svc := newMediaService(t, signer)

	upload, err := svc.CreateUploadURL(context.Background(), MediaUploadInput{
		Kind:        "product",
		OwnerID:     "prod-1",
		FileName:    "racao.webp",
		ContentType: "image/webp",
	})
	if err != nil {
		t.Fatalf("CreateUploadURL: %v", err)
	}

	if signer.lastBucket != "petshop-media" {
		t.Fatalf("unexpected bucket %q", signer.lastBucket)
	}
	if upload.ObjectKey != "media/products/prod-1/upload01/racao.webp" {
		t.Fatalf("unexpected object key %q", upload.ObjectKey)
	}
	if !strings.HasSuffix(upload.PublicURL, upload.ObjectKey) {
		t.Fatalf("public url should address the object: %q", upload.PublicURL)
	}
	if upload.Method != "PUT" || upload.UploadURL == "" {
		t.Fatalf("unexpected upload result %+v", upload)
	}
	if signer.lastOpts.MaxSize != mediaUploadMaxSize {
		t.Fatalf("size cap not applied: %d", signer.lastOpts.MaxSize)
	}
}

func TestCreateUploadURLRejectsUnknownKind(t *testing.T) {
	svc := newMediaService(t, &stubSignedURLClient{})

	_, err := svc.CreateUploadURL(context.Background(), MediaUploadInput{
		Kind:        "video",
		OwnerID:     "prod-1",
		FileName:    "clip.mp4",
		ContentType: "video/mp4",
	})
	if !errors.Is(err, ErrMediaInvalidInput) {
		t.Fatalf("expected ErrMediaInvalidInput, got %v", err)
	}
}

func TestCreateUploadURLRequiresOwner(t *testing.T) {
	svc := newMediaService(t, &stubSignedURLClient{})

	_, err := svc.CreateUploadURL(context.Background(), MediaUploadInput{
		Kind:        "dica",
		FileName:    "capa.webp",
		ContentType: "image/webp",
	})
	if !errors.Is(err, ErrMediaInvalidInput) {
		t.Fatalf("expected ErrMediaInvalidInput, got %v", err)
	}
}

func TestCreateUploadURLWrapsSignerFailure(t *testing.T) {
	signer := &stubSignedURLClient{err: errors.New("content type not allowed")}
	svc := newMediaService(t, signer)

	_, err := svc.CreateUploadURL(context.Background(), MediaUploadInput{
		Kind:        "slide",
		OwnerID:     "slide-1",
		FileName:    "banner.bin",
		ContentType: "application/octet-stream",
	})
	if !errors.Is(err, ErrMediaInvalidInput) {
		t.Fatalf("expected ErrMediaInvalidInput, got %v", err)
	}
}
