package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const (
	defaultSignedURLExpiry = 15 * time.Minute

	httpMethodPut  = "PUT"
	httpMethodPost = "POST"
)

var (
	errNoSigner           = errors.New("storage: signer is required")
	errInvalidBucket      = errors.New("storage: bucket name is required")
	errInvalidObject      = errors.New("storage: object name is required")
	errMethodNotAllowed   = errors.New("storage: HTTP method not allowed for uploads")
	errContentTypeMissing = errors.New("storage: content type is required for uploads")
	errContentTypeDenied  = errors.New("storage: content type not allowed")
	errMD5Invalid         = errors.New("storage: content MD5 must be base64 encoded")
)

// Client issues V4 signed upload URLs through a Signer. Published media is
// served from the public bucket URL, so only uploads require signing.
type Client struct {
	signer Signer
	now    func() time.Time
}

// ClientOption customises client behaviour.
type ClientOption func(*Client)

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewClient builds a signed URL client around the given signer.
func NewClient(signer Signer, opts ...ClientOption) (*Client, error) {
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}
	client := &Client{signer: signer, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// UploadOptions control upload-specific validation.
type UploadOptions struct {
	Method              string
	ContentType         string
	ContentMD5          string
	AllowedContentTypes []string
	MaxSize             int64
	ExpiresIn           time.Duration
}

// SignedURLResult describes the generated signed URL details.
type SignedURLResult struct {
	URL       string
	Method    string
	ExpiresAt time.Time
	Headers   map[string]string
}

// uploadRequest is an UploadOptions value that passed validation.
type uploadRequest struct {
	method      string
	contentType string
	contentMD5  string
	expiry      time.Duration
}

func (o UploadOptions) normalize() (uploadRequest, error) {
	req := uploadRequest{expiry: o.ExpiresIn}
	if req.expiry <= 0 {
		req.expiry = defaultSignedURLExpiry
	}

	switch method := strings.ToUpper(strings.TrimSpace(o.Method)); method {
	case "":
		req.method = httpMethodPut
	case httpMethodPut, httpMethodPost:
		req.method = method
	default:
		return uploadRequest{}, errMethodNotAllowed
	}

	req.contentType = strings.TrimSpace(o.ContentType)
	if req.contentType == "" {
		return uploadRequest{}, errContentTypeMissing
	}
	if len(o.AllowedContentTypes) > 0 && !contentTypeAllowed(req.contentType, o.AllowedContentTypes) {
		return uploadRequest{}, errContentTypeDenied
	}

	req.contentMD5 = strings.TrimSpace(o.ContentMD5)
	if req.contentMD5 != "" {
		if _, err := base64.StdEncoding.DecodeString(req.contentMD5); err != nil {
			return uploadRequest{}, errMD5Invalid
		}
	}
	return req, nil
}

// SignedUploadURL creates a signed URL the caller uses to upload the object
// directly. The returned headers must be sent verbatim with the upload or
// the signature check fails.
func (c *Client) SignedUploadURL(ctx context.Context, bucket, object string, opts UploadOptions) (SignedURLResult, error) {
	if c == nil {
		return SignedURLResult{}, errNoSigner
	}
	if ctx == nil {
		return SignedURLResult{}, errors.New("storage: context is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return SignedURLResult{}, errInvalidBucket
	}
	if object = strings.TrimSpace(object); object == "" {
		return SignedURLResult{}, errInvalidObject
	}

	req, err := opts.normalize()
	if err != nil {
		return SignedURLResult{}, err
	}

	headers := map[string]string{"Content-Type": req.contentType}
	if req.contentMD5 != "" {
		headers["Content-MD5"] = req.contentMD5
	}

	var signedHeaders []string
	if opts.MaxSize > 0 {
		lengthRange := fmt.Sprintf("0,%d", opts.MaxSize)
		signedHeaders = append(signedHeaders, "x-goog-content-length-range:"+lengthRange)
		headers["x-goog-content-length-range"] = lengthRange
	}

	expiresAt := c.now().Add(req.expiry)
	signedURL, err := storage.SignedURL(bucket, object, &storage.SignedURLOptions{
		GoogleAccessID: c.signer.Email(),
		Scheme:         storage.SigningSchemeV4,
		Method:         req.method,
		ContentType:    req.contentType,
		MD5:            req.contentMD5,
		Headers:        signedHeaders,
		Expires:        expiresAt,
		SignBytes: func(payload []byte) ([]byte, error) {
			return c.signer.SignBytes(ctx, payload)
		},
	})
	if err != nil {
		return SignedURLResult{}, fmt.Errorf("storage: sign upload url: %w", err)
	}

	return SignedURLResult{
		URL:       signedURL,
		Method:    req.method,
		ExpiresAt: expiresAt,
		Headers:   headers,
	}, nil
}

// contentTypeAllowed matches a content type against an allow list that may
// contain exact types, "type/*" wildcards, or "*".
func contentTypeAllowed(contentType string, allowed []string) bool {
	have := strings.ToLower(contentType)
	for _, pattern := range allowed {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		switch {
		case pattern == "":
		case pattern == "*":
			return true
		case strings.HasSuffix(pattern, "/*"):
			if strings.HasPrefix(have, strings.TrimSuffix(pattern, "*")) {
				return true
			}
		case have == pattern:
			return true
		}
	}
	return false
}
