package firestore

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/petshop-baronesa/api/internal/platform/firestore"
)

// notFoundError builds a repository not-found error for query paths where
// Firestore itself returns an empty result rather than a status error.
func notFoundError(op string) error {
	return pfirestore.WrapError(op, status.Error(codes.NotFound, "document not found"))
}
