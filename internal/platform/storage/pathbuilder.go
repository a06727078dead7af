package storage

import (
	"fmt"
	"strings"
)

// MediaKind says which catalog entity an upload belongs to. The kind picks
// the bucket prefix, so the storefront can address media predictably.
type MediaKind string

const (
	KindProductImage MediaKind = "product"
	KindSlideImage   MediaKind = "slide"
	KindTipImage     MediaKind = "dica"
)

// PathParams carries the identifiers that make up an object key.
type PathParams struct {
	OwnerID  string
	UploadID string
	FileName string
}

// BuildObjectPath composes the object key
// <prefix>/<ownerID>/<uploadID>/<fileName> for the media kind. Every segment
// is validated so client-supplied names cannot escape the prefix.
func BuildObjectPath(kind MediaKind, params PathParams) (string, error) {
	var prefix string
	switch kind {
	case KindProductImage:
		prefix = "media/products"
	case KindSlideImage:
		prefix = "media/slides"
	case KindTipImage:
		prefix = "media/dicas"
	default:
		return "", fmt.Errorf("storage: unsupported media kind %q", kind)
	}

	segments := []string{prefix}
	for _, part := range []struct {
		name  string
		value string
	}{
		{"ownerID", params.OwnerID},
		{"uploadID", params.UploadID},
		{"fileName", params.FileName},
	} {
		segment, err := cleanPathSegment(part.name, part.value)
		if err != nil {
			return "", err
		}
		segments = append(segments, segment)
	}
	return strings.Join(segments, "/"), nil
}

func cleanPathSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "", fmt.Errorf("storage: %s is required", name)
	case strings.ContainsAny(value, "/\\"):
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	case strings.Contains(value, ".."):
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}
