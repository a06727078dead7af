package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/petshop-baronesa/api/internal/domain"
	pfirestore "github.com/petshop-baronesa/api/internal/platform/firestore"
	"github.com/petshop-baronesa/api/internal/repositories"
)

const errorLogCollection = "errorLog"

// ErrorLogRepository persists the capped error log within Firestore.
// Appends evict the oldest entries beyond domain.ErrorLogCap.
type ErrorLogRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[errorLogDocument]
	cap      int
}

// NewErrorLogRepository constructs a Firestore-backed error log repository.
func NewErrorLogRepository(provider *pfirestore.Provider) (*ErrorLogRepository, error) {
	if provider == nil {
		return nil, errors.New("error log repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[errorLogDocument](provider, errorLogCollection, nil, nil)
	return &ErrorLogRepository{provider: provider, base: base, cap: domain.ErrorLogCap}, nil
}

// Append stores the entry, then prunes entries past the cap oldest-first.
func (r *ErrorLogRepository) Append(ctx context.Context, entry domain.ErrorLogEntry) error {
	if r == nil || r.base == nil {
		return errors.New("error log repository not initialised")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return errors.New("error log repository: entry id is required")
	}

	if _, err := r.base.Set(ctx, id, encodeErrorLog(entry)); err != nil {
		return err
	}
	return r.evict(ctx)
}

// Recent returns the newest entries, bounded by limit when positive.
func (r *ErrorLogRepository) Recent(ctx context.Context, limit int) ([]domain.ErrorLogEntry, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("error log repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.OrderBy("occurredAt", firestore.Desc)
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ErrorLogEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, decodeErrorLog(doc.ID, doc.Data))
	}
	return entries, nil
}

// evict deletes everything past the cap in one transaction, so concurrent
// appends cannot each observe an under-cap log and skip pruning.
func (r *ErrorLogRepository) evict(ctx context.Context) error {
	coll, err := r.base.Collection(ctx)
	if err != nil {
		return err
	}

	overflow := coll.Query.OrderBy("occurredAt", firestore.Desc).Offset(r.cap)
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		iter := tx.Documents(overflow)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			if err != nil {
				return pfirestore.WrapError("errorLog.evict", err)
			}
			if err := tx.Delete(snap.Ref); err != nil {
				return pfirestore.WrapError("errorLog.evict", err)
			}
		}
	})
}

func encodeErrorLog(entry domain.ErrorLogEntry) errorLogDocument {
	return errorLogDocument{
		Scope:      strings.TrimSpace(entry.Scope),
		Message:    strings.TrimSpace(entry.Message),
		OccurredAt: entry.OccurredAt.UTC(),
	}
}

func decodeErrorLog(id string, doc errorLogDocument) domain.ErrorLogEntry {
	return domain.ErrorLogEntry{
		ID:         id,
		Scope:      doc.Scope,
		Message:    doc.Message,
		OccurredAt: doc.OccurredAt,
	}
}

type errorLogDocument struct {
	Scope      string    `firestore:"scope"`
	Message    string    `firestore:"message"`
	OccurredAt time.Time `firestore:"occurredAt"`
}

var _ repositories.ErrorLogRepository = (*ErrorLogRepository)(nil)
