package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/petshop-baronesa/api/internal/platform/storage"
)

var (
	// ErrMediaSignerMissing signals that the signed URL client dependency is absent.
	ErrMediaSignerMissing = errors.New("media service: signed url client is not configured")
	// ErrMediaInvalidInput marks validation failures on upload requests.
	ErrMediaInvalidInput = errors.New("media service: invalid input")
)

const (
	mediaUploadExpiry  = 15 * time.Minute
	mediaUploadMaxSize = 5 << 20
)

var mediaAllowedContentTypes = []string{"image/*"}

// SignedURLClient abstracts the storage client so tests can stub signing.
type SignedURLClient interface {
	SignedUploadURL(ctx context.Context, bucket, object string, opts storage.UploadOptions) (storage.SignedURLResult, error)
}

// MediaServiceDeps groups constructor parameters for the media service.
type MediaServiceDeps struct {
	Signer SignedURLClient
	Bucket string
	Errors ErrorLogService
	IDFunc func() string
}

type mediaService struct {
	signer SignedURLClient
	bucket string
	errlog ErrorLogService
	newID  func() string
}

var _ MediaService = (*mediaService)(nil)

// NewMediaService constructs the media service with the supplied dependencies.
func NewMediaService(deps MediaServiceDeps) (MediaService, error) {
	if deps.Signer == nil {
		return nil, ErrMediaSignerMissing
	}
	bucket := strings.TrimSpace(deps.Bucket)
	if bucket == "" {
		return nil, errors.New("media service: bucket is required")
	}
	newID := deps.IDFunc
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &mediaService{
		signer: deps.Signer,
		bucket: bucket,
		errlog: deps.Errors,
		newID:  newID,
	}, nil
}

// CreateUploadURL validates the request and signs a direct upload URL for the
// admin panel. The object lands under a per-entity prefix so the storefront
// can reference it by its public address.
func (s *mediaService) CreateUploadURL(ctx context.Context, input MediaUploadInput) (MediaUpload, error) {
	kind, err := mediaKind(input.Kind)
	if err != nil {
		return MediaUpload{}, err
	}
	if strings.TrimSpace(input.OwnerID) == "" {
		return MediaUpload{}, fmt.Errorf("%w: ownerId is required", ErrMediaInvalidInput)
	}
	if strings.TrimSpace(input.FileName) == "" {
		return MediaUpload{}, fmt.Errorf("%w: fileName is required", ErrMediaInvalidInput)
	}
	if strings.TrimSpace(input.ContentType) == "" {
		return MediaUpload{}, fmt.Errorf("%w: contentType is required", ErrMediaInvalidInput)
	}

	objectKey, err := storage.BuildObjectPath(kind, storage.PathParams{
		OwnerID:  strings.TrimSpace(input.OwnerID),
		UploadID: s.newID(),
		FileName: strings.TrimSpace(input.FileName),
	})
	if err != nil {
		return MediaUpload{}, fmt.Errorf("%w: %s", ErrMediaInvalidInput, err.Error())
	}

	result, err := s.signer.SignedUploadURL(ctx, s.bucket, objectKey, storage.UploadOptions{
		ContentType:         strings.TrimSpace(input.ContentType),
		ContentMD5:          strings.TrimSpace(input.ContentMD5),
		AllowedContentTypes: mediaAllowedContentTypes,
		MaxSize:             mediaUploadMaxSize,
		ExpiresIn:           mediaUploadExpiry,
	})
	if err != nil {
		s.record(ctx, "media.sign_upload", err)
		return MediaUpload{}, fmt.Errorf("%w: %s", ErrMediaInvalidInput, err.Error())
	}

	return MediaUpload{
		UploadURL: result.URL,
		Method:    result.Method,
		Headers:   result.Headers,
		ExpiresAt: result.ExpiresAt,
		ObjectKey: objectKey,
		PublicURL: fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectKey),
	}, nil
}

func (s *mediaService) record(ctx context.Context, scope string, err error) {
	if s.errlog != nil {
		s.errlog.Record(ctx, scope, err)
	}
}

func mediaKind(raw string) (storage.MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(storage.KindProductImage):
		return storage.KindProductImage, nil
	case string(storage.KindSlideImage):
		return storage.KindSlideImage, nil
	case string(storage.KindTipImage):
		return storage.KindTipImage, nil
	default:
		return "", fmt.Errorf("%w: unknown media kind %q", ErrMediaInvalidInput, raw)
	}
}
