package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/i474232898/energy-data-aggregation/internal/metrics"
)

// Service owns user registration and ledger reads/writes on top of a Store.
type Service struct {
	store    Store
	log      *zap.Logger
	location *time.Location
	now      func() time.Time
	cost     int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used to pick the default date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone that defines "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithHashCost sets the bcrypt cost; tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates a new Service.
func NewService(store Store, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		log:      log.Named("ledger"),
		location: time.UTC,
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current date in the service timezone.
func (s *Service) Today() string {
	return s.now().In(s.location).Format(DateLayout)
}

// Register creates a user with a bcrypt password digest and empty ledgers.
func (s *Service) Register(ctx context.Context, name, email, password string) (UserRecord, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return UserRecord{}, ErrInvalidUser
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return UserRecord{}, fmt.Errorf("hashing password: %w", err)
	}

	user := UserRecord{
		Name:           name,
		Email:          email,
		PasswordDigest: string(digest),
		CreatedAt:      s.now().UTC(),
	}

	err = s.store.CreateUser(ctx, user)
	metrics.UsersRegisteredTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return UserRecord{}, err
	}

	s.log.Info("user registered", zap.String("email", email))
	return user, nil
}

// User returns the registered user for email.
func (s *Service) User(ctx context.Context, email string) (UserRecord, error) {
	return s.store.GetUser(ctx, email)
}

// Record adds r.Value to its ledger cell.
func (s *Service) Record(ctx context.Context, r Reading) error {
	if err := r.Validate(); err != nil {
		return err
	}

	err := s.store.Increment(ctx, r)
	metrics.LedgerWritesTotal.WithLabelValues(string(r.Kind), metrics.Result(err)).Inc()
	if err != nil {
		s.log.Debug("ledger increment rejected",
			zap.String("email", r.Email),
			zap.String("kind", string(r.Kind)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Day returns the raw, possibly sparse record for one ledger date.
// An empty date means today.
func (s *Service) Day(ctx context.Context, kind Kind, email, date string) (HourRecord, error) {
	if err := ValidateKind(kind); err != nil {
		return nil, err
	}
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, email); err != nil {
		return nil, err
	}
	return s.store.LedgerForDate(ctx, kind, email, date)
}

// DaySeries returns the normalized 24-hour series for one ledger date.
func (s *Service) DaySeries(ctx context.Context, kind Kind, email, date string) (Series, error) {
	rec, err := s.Day(ctx, kind, email, date)
	if err != nil {
		return nil, err
	}
	return Normalize(rec, 0), nil
}

// Surplus returns production minus consumption per hour for one date.
func (s *Service) Surplus(ctx context.Context, email, date string) (HourRecord, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, email); err != nil {
		return nil, err
	}

	cons, err := s.store.LedgerForDate(ctx, KindConsumption, email, date)
	if err != nil {
		return nil, fmt.Errorf("reading consumption: %w", err)
	}
	prod, err := s.store.LedgerForDate(ctx, KindProduction, email, date)
	if err != nil {
		return nil, fmt.Errorf("reading production: %w", err)
	}
	return Surplus(prod, cons), nil
}

// Export returns the full document for email.
func (s *Service) Export(ctx context.Context, email string) (UserDocument, error) {
	return s.store.Export(ctx, email)
}

func (s *Service) resolveDate(date string) (string, error) {
	if date == "" {
		return s.Today(), nil
	}
	if err := ValidateDate(date); err != nil {
		return "", err
	}
	return date, nil
}

func (s *Service) requireUser(ctx context.Context, email string) error {
	if _, err := s.store.GetUser(ctx, email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownUser, email)
		}
		return err
	}
	return nil
}
