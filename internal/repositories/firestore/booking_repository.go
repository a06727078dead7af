package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/petshop-baronesa/api/internal/domain"
	pfirestore "github.com/petshop-baronesa/api/internal/platform/firestore"
	"github.com/petshop-baronesa/api/internal/repositories"
)

const bookingCollection = "agendamentos"

// BookingRepository persists grooming appointment requests within Firestore.
type BookingRepository struct {
	base *pfirestore.BaseRepository[bookingDocument]
}

// NewBookingRepository constructs a Firestore-backed booking repository.
func NewBookingRepository(provider *pfirestore.Provider) (*BookingRepository, error) {
	if provider == nil {
		return nil, errors.New("booking repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[bookingDocument](provider, bookingCollection, nil, nil)
	return &BookingRepository{base: base}, nil
}

// Insert stores a new booking document under its assigned id.
func (r *BookingRepository) Insert(ctx context.Context, booking domain.Booking) error {
	if r == nil || r.base == nil {
		return errors.New("booking repository not initialised")
	}
	id := strings.TrimSpace(booking.ID)
	if id == "" {
		return errors.New("booking repository: booking id is required")
	}
	_, err := r.base.Set(ctx, id, encodeBooking(booking))
	return err
}

// List returns bookings ordered newest first, bounded by limit when positive.
func (r *BookingRepository) List(ctx context.Context, limit int) ([]domain.Booking, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("booking repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.OrderBy("createdAt", firestore.Desc)
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	bookings := make([]domain.Booking, 0, len(docs))
	for _, doc := range docs {
		bookings = append(bookings, decodeBooking(doc.ID, doc.Data))
	}
	return bookings, nil
}

func encodeBooking(booking domain.Booking) bookingDocument {
	return bookingDocument{
		CustomerName:  strings.TrimSpace(booking.CustomerName),
		CustomerPhone: strings.TrimSpace(booking.CustomerPhone),
		PetName:       strings.TrimSpace(booking.PetName),
		PetType:       strings.TrimSpace(booking.PetType),
		PetSize:       strings.TrimSpace(booking.PetSize),
		Service:       strings.TrimSpace(booking.Service),
		Coat:          strings.TrimSpace(booking.Coat),
		Addons:        append([]string(nil), booking.Addons...),
		RequestedDate: booking.RequestedDate.UTC(),
		Notes:         strings.TrimSpace(booking.Notes),
		EstimateBase:  booking.EstimateBase,
		EstimateTotal: booking.EstimateTotal,
		CreatedAt:     booking.CreatedAt.UTC(),
	}
}

func decodeBooking(id string, doc bookingDocument) domain.Booking {
	return domain.Booking{
		ID:            id,
		CustomerName:  doc.CustomerName,
		CustomerPhone: doc.CustomerPhone,
		PetName:       doc.PetName,
		PetType:       doc.PetType,
		PetSize:       doc.PetSize,
		Service:       doc.Service,
		Coat:          doc.Coat,
		Addons:        append([]string(nil), doc.Addons...),
		RequestedDate: doc.RequestedDate,
		Notes:         doc.Notes,
		EstimateBase:  doc.EstimateBase,
		EstimateTotal: doc.EstimateTotal,
		CreatedAt:     doc.CreatedAt,
	}
}

type bookingDocument struct {
	CustomerName  string    `firestore:"customerName"`
	CustomerPhone string    `firestore:"customerPhone"`
	PetName       string    `firestore:"petName"`
	PetType       string    `firestore:"petType"`
	PetSize       string    `firestore:"petSize,omitempty"`
	Service       string    `firestore:"service"`
	Coat          string    `firestore:"coat,omitempty"`
	Addons        []string  `firestore:"addons,omitempty"`
	RequestedDate time.Time `firestore:"requestedDate"`
	Notes         string    `firestore:"notes,omitempty"`
	EstimateBase  float64   `firestore:"estimateBase"`
	EstimateTotal float64   `firestore:"estimateTotal"`
	CreatedAt     time.Time `firestore:"createdAt"`
}

var _ repositories.BookingRepository = (*BookingRepository)(nil)
