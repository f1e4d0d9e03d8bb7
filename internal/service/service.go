package service

import (
	"context"
	"time"

	"cinebook/internal/external"
	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/models"
	"cinebook/internal/repository"
)

// Store interfaces let the lifecycle logic run against the Postgres
// repositories in production and in-memory fakes in tests. The
// repositories are the only implementations shipped.

type ShowtimeStore interface {
	CreateIfAbsent(ctx context.Context, st *models.Showtime) (bool, error)
	ListByMovie(ctx context.Context, movieID, dateFrom, dateTo string) ([]models.Showtime, error)
	GetByID(ctx context.Context, id int64) (*models.Showtime, error)
	Update(ctx context.Context, id int64, req *models.UpdateShowtimeRequest) (*models.Showtime, error)
	Delete(ctx context.Context, id int64) error
	AdjustAvailability(ctx context.Context, id int64, delta int) (bool, error)
	Analytics(ctx context.Context, id int64) (*models.ShowtimeAnalytics, error)
}

type BookingStore interface {
	CreateBatch(ctx context.Context, bookings []*models.Booking) error
	AttachSession(ctx context.Context, bookingIDs []int64, sessionRef string) error
	GetByIDs(ctx context.Context, ids []int64) ([]models.Booking, error)
	GetByUser(ctx context.Context, userID string) ([]models.Booking, error)
	GetBySession(ctx context.Context, sessionRef string) ([]models.Booking, error)
	GetLiveForShowtime(ctx context.Context, movieID, showDate, showTime string) ([]models.Booking, error)
	TransitionBySession(ctx context.Context, sessionRef string, to models.BookingStatus, txnRef *string) ([]models.Booking, error)
	CancelOwned(ctx context.Context, userID string, bookingIDs []int64) ([]models.Booking, error)
	ExpireDue(ctx context.Context, createdBefore time.Time) ([]models.Booking, error)
}

type PaymentStore interface {
	Record(ctx context.Context, p *models.Payment) error
	ListBySession(ctx context.Context, sessionRef string) ([]models.Payment, error)
}

// PaymentGateway is the hosted checkout provider surface the core needs.
type PaymentGateway interface {
	CreateSession(ctx context.Context, amount int64, orderID, currency, description string, metadata map[string]string) (*external.CreateSessionResponse, error)
	CheckSession(ctx context.Context, sessionRef string) (*external.CheckSessionResponse, error)
	CancelSession(ctx context.Context, sessionRef, reason string) error
}

// Catalog is the read-only movie metadata provider surface.
type Catalog interface {
	GetMovie(ctx context.Context, movieID string) (*external.CatalogMovie, error)
	Search(ctx context.Context, query string) ([]external.CatalogMovie, error)
}

// Policy carries the booking-domain knobs.
type Policy struct {
	HoldTTL  time.Duration
	Currency string
}

type Services struct {
	Showtimes  *ShowtimeService
	Bookings   *BookingService
	Reconciler *ReconcilerService
	Sweeper    *SweeperService
	Movies     *MovieService
}

func NewServices(repos *repository.Repositories, natsClient *messaging.NATSClient, paymentClient *external.PaymentClient, catalogClient *external.CatalogClient, policy Policy) *Services {
	return Wire(repos.Showtimes, repos.Bookings, repos.Payments, natsClient, paymentClient, catalogClient, policy)
}

// warnPublish keeps event publishing strictly best-effort: a broker
// outage is logged, never surfaced to the booking path.
func warnPublish(ctx context.Context, err error, subject string) {
	if err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}

// Wire assembles the services from their collaborator interfaces. Tests
// use it directly with fakes.
func Wire(showtimes ShowtimeStore, bookings BookingStore, payments PaymentStore, natsClient *messaging.NATSClient, gateway PaymentGateway, catalog Catalog, policy Policy) *Services {
	showtimeService := NewShowtimeService(showtimes)
	sweeperService := NewSweeperService(bookings, natsClient, policy.HoldTTL)
	reconcilerService := NewReconcilerService(bookings, payments, gateway, natsClient)
	bookingService := NewBookingService(bookings, showtimes, gateway, natsClient, sweeperService, reconcilerService, policy)
	movieService := NewMovieService(catalog)

	return &Services{
		Showtimes:  showtimeService,
		Bookings:   bookingService,
		Reconciler: reconcilerService,
		Sweeper:    sweeperService,
		Movies:     movieService,
	}
}
