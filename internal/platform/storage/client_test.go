package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

type captureSigner struct {
	email   string
	signed  int
	signErr error
}

func (s *captureSigner) Email() string { return s.email }

func (s *captureSigner) SignBytes(_ context.Context, _ []byte) ([]byte, error) {
	if s.signErr != nil {
		return nil, s.signErr
	}
	s.signed++
	return []byte("sig"), nil
}

func newUploadClient(t *testing.T, at time.Time) (*Client, *captureSigner) {
	t.Helper()
	signer := &captureSigner{email: "uploads@petshop-baronesa.iam.gserviceaccount.com"}
	client, err := NewClient(signer, WithClock(func() time.Time { return at }))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, signer
}

func TestSignedUploadURLSuccess(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	client, signer := newUploadClient(t, now)

	res, err := client.SignedUploadURL(context.Background(), "media-bucket", "media/products/prod123/upload456/file.webp", UploadOptions{
		Method:              "put",
		ContentType:         "image/webp",
		ContentMD5:          "xN0dYbCPv0CM0k9d1u8G7g==",
		AllowedContentTypes: []string{"image/*"},
		MaxSize:             1 << 20,
		ExpiresIn:           10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("SignedUploadURL: %v", err)
	}

	if res.Method != httpMethodPut {
		t.Fatalf("method %q, want PUT", res.Method)
	}
	if want := now.Add(10 * time.Minute); !res.ExpiresAt.Equal(want) {
		t.Fatalf("expiry %v, want %v", res.ExpiresAt, want)
	}
	for header, want := range map[string]string{
		"Content-Type":                "image/webp",
		"Content-MD5":                 "xN0dYbCPv0CM0k9d1u8G7g==",
		"x-goog-content-length-range": "0,1048576",
	} {
		if got := res.Headers[header]; got != want {
			t.Fatalf("header %s = %q, want %q", header, got, want)
		}
	}

	parsed, err := url.Parse(res.URL)
	if err != nil {
		t.Fatalf("parse signed URL: %v", err)
	}
	if !strings.Contains(parsed.RawQuery, "X-Goog-Signature=") {
		t.Fatalf("signature missing from query: %s", parsed.RawQuery)
	}
	if signer.signed == 0 {
		t.Fatal("signer was never invoked")
	}
}

func TestSignedUploadURLValidation(t *testing.T) {
	cases := []struct {
		name string
		opts UploadOptions
		want error
	}{
		{
			name: "content type outside allow list",
			opts: UploadOptions{Method: "PUT", ContentType: "application/pdf", AllowedContentTypes: []string{"image/*"}},
			want: errContentTypeDenied,
		},
		{
			name: "missing content type",
			opts: UploadOptions{Method: "PUT"},
			want: errContentTypeMissing,
		},
		{
			name: "read method rejected",
			opts: UploadOptions{Method: "GET", ContentType: "image/png"},
			want: errMethodNotAllowed,
		},
		{
			name: "md5 not base64",
			opts: UploadOptions{Method: "PUT", ContentType: "image/png", ContentMD5: "not base64!!"},
			want: errMD5Invalid,
		},
	}

	client, _ := newUploadClient(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.SignedUploadURL(context.Background(), "media-bucket", "object", tc.opts)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNewClientRequiresSigner(t *testing.T) {
	if _, err := NewClient(nil); !errors.Is(err, errNoSigner) {
		t.Fatalf("got %v, want errNoSigner", err)
	}
	if _, err := NewClient(&captureSigner{email: "  "}); !errors.Is(err, errNoSigner) {
		t.Fatalf("got %v, want errNoSigner for blank email", err)
	}
}
