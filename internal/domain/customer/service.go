package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"customer-directory/internal/event"
	"customer-directory/internal/pkg/apperrors"
)

const customerNotFound = "Customer not found by repository"

// DirectoryService implements the customer lifecycle: list, get, create,
// update, delete. Uniqueness of the email column and existence of the
// addressed row are checked before every write; store-level failures are
// remapped to the apperrors taxonomy and never leak raw.
type DirectoryService interface {
	ListCustomers(ctx context.Context) ([]*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	CreateCustomer(ctx context.Context, input CreateInput) (*Customer, error)
	UpdateCustomer(ctx context.Context, customerID int64, patch Patch) (*Customer, error)
	DeleteCustomer(ctx context.Context, customerID int64) error
}

var _ DirectoryService = (*directoryService)(nil)

type directoryService struct {
	repo   Repository
	store  StoreStatus
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewDirectoryService(repo Repository, store StoreStatus, pub event.EventPublisher, logger *slog.Logger) DirectoryService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if store == nil {
		panic("store status cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewDirectoryService, using default stderr handler")
	}
	if pub == nil {
		pub = event.NewNoOpEventPublisher(logger)
		logger.Warn("Warning: No event publisher provided to NewDirectoryService, dropping events")
	}

	return &directoryService{
		repo:   repo,
		store:  store,
		pub:    pub,
		logger: logger.With(slog.String("component", "directoryService")),
	}
}

// ensureStoreReady fails fast before any query when the connector is
// degraded or was never initialized.
func (s *directoryService) ensureStoreReady(ctx context.Context) error {
	if s.store.Ready() {
		return nil
	}
	s.logger.WarnContext(ctx, "Store connector not ready, rejecting operation")
	return fmt.Errorf("%w: store connector is not ready", apperrors.ErrStoreUnavailable)
}

func newEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID: cust.ID,
		Name:       cust.Name,
		Email:      cust.Email,
		Phone:      cust.Phone,
		CreatedAt:  cust.CreatedAt,
		UpdatedAt:  cust.UpdatedAt,
	}
}

func (s *directoryService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to list all customers")

	if err := s.ensureStoreReady(ctx); err != nil {
		return nil, err
	}

	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *directoryService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to get customer by ID", slog.Int64("customerID", customerID))

	if err := s.ensureStoreReady(ctx); err != nil {
		return nil, err
	}

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, customerNotFound, slog.Int64("customerID", customerID))
			return nil, fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customer")
	return cust, nil
}

func (s *directoryService) CreateCustomer(ctx context.Context, input CreateInput) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to create new customer")

	if err := s.ensureStoreReady(ctx); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)
	if name == "" {
		s.logger.WarnContext(ctx, "Validation failed: name is empty")
		return nil, fmt.Errorf("%w: customer name cannot be empty", apperrors.ErrInvalidArgument)
	}
	if email == "" {
		s.logger.WarnContext(ctx, "Validation failed: email is empty", slog.String("name", name))
		return nil, fmt.Errorf("%w: customer email cannot be empty", apperrors.ErrInvalidArgument)
	}

	existing, err := s.repo.FindByEmail(ctx, email, 0)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.ErrorContext(ctx, "Repository error checking email uniqueness", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if existing != nil {
		s.logger.WarnContext(ctx, "Email already in use", slog.String("email", email))
		return nil, fmt.Errorf("%w: email %s is already in use", apperrors.ErrConflict, email)
	}

	cust := &Customer{
		Name:  name,
		Email: email,
	}
	if phone != "" {
		cust.Phone = &phone
	}

	created, err := s.repo.Insert(ctx, cust)
	if err != nil {
		// The pre-check above is advisory only. Under concurrent
		// creates the store's unique index is the arbiter, and its
		// violation surfaces here as ErrConflict.
		if errors.Is(err, apperrors.ErrConflict) {
			s.logger.WarnContext(ctx, "Insert rejected by unique constraint", slog.String("email", email))
			return nil, fmt.Errorf("%w: email %s is already in use", apperrors.ErrConflict, email)
		}
		s.logger.ErrorContext(ctx, "Repository failed to insert customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully created new customer", slog.Int64("customerID", created.ID))
	s.publishCreated(ctx, created)
	return created, nil
}

func (s *directoryService) UpdateCustomer(ctx context.Context, customerID int64, patch Patch) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customerID", customerID))

	if err := s.ensureStoreReady(ctx); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found by repository for update")
			return nil, fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer for update", slog.Any("error", err))
		return nil, fmt.Errorf("cannot find customer %d to update: %w", customerID, err)
	}

	normalized, err := s.normalizePatch(ctx, customerID, existing, patch)
	if err != nil {
		return nil, err
	}
	if normalized.IsEmpty() {
		s.logger.DebugContext(ctx, "Patch carries no fields, refreshing updated_at only")
	}

	updated, err := s.repo.Update(ctx, customerID, normalized)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			// Concurrent writer claimed the email between our check
			// and the update.
			s.logger.WarnContext(ctx, "Update rejected by unique constraint")
			return nil, fmt.Errorf("%w: email is already in use", apperrors.ErrConflict)
		case errors.Is(err, apperrors.ErrNotFound):
			s.logger.WarnContext(ctx, "Customer disappeared before update completed")
			return nil, fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
		default:
			s.logger.ErrorContext(ctx, "Repository failed to update customer", slog.Any("error", err))
			return nil, fmt.Errorf("failed to update customer %d: %w", customerID, err)
		}
	}

	s.logger.InfoContext(ctx, "Successfully updated customer")
	s.publishUpdated(ctx, updated)
	return updated, nil
}

// normalizePatch trims present fields, validates them and runs the
// email uniqueness check against all other rows when the email changes.
func (s *directoryService) normalizePatch(ctx context.Context, customerID int64, existing *Customer, patch Patch) (Patch, error) {
	var normalized Patch

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			s.logger.WarnContext(ctx, "Validation failed: name is empty")
			return Patch{}, fmt.Errorf("%w: customer name cannot be empty", apperrors.ErrInvalidArgument)
		}
		normalized.Name = &name
	}

	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if email == "" {
			s.logger.WarnContext(ctx, "Validation failed: email is empty")
			return Patch{}, fmt.Errorf("%w: customer email cannot be empty", apperrors.ErrInvalidArgument)
		}
		if email != existing.Email {
			other, err := s.repo.FindByEmail(ctx, email, customerID)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				s.logger.ErrorContext(ctx, "Repository error checking email uniqueness", slog.Any("error", err))
				return Patch{}, fmt.Errorf("failed to check email uniqueness: %w", err)
			}
			if other != nil {
				s.logger.WarnContext(ctx, "Email already in use by another customer", slog.String("email", email))
				return Patch{}, fmt.Errorf("%w: email %s is already in use", apperrors.ErrConflict, email)
			}
		}
		normalized.Email = &email
	}

	if patch.Phone != nil {
		// A present-but-empty phone clears the stored value.
		phone := strings.TrimSpace(*patch.Phone)
		normalized.Phone = &phone
	}

	return normalized, nil
}

func (s *directoryService) DeleteCustomer(ctx context.Context, customerID int64) error {
	s.logger.InfoContext(ctx, "Attempting to delete customer", slog.Int64("customerID", customerID))

	if err := s.ensureStoreReady(ctx); err != nil {
		return err
	}

	if _, err := s.repo.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, customerNotFound, slog.Int64("customerID", customerID))
			return fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer for delete", slog.Any("error", err))
		return fmt.Errorf("cannot find customer %d to delete: %w", customerID, err)
	}

	if err := s.repo.Delete(ctx, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer disappeared before delete completed")
			return fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
		}
		s.logger.ErrorContext(ctx, "Repository failed to delete customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}

	s.logger.InfoContext(ctx, "Successfully deleted customer")
	s.publishDeleted(ctx, customerID)
	return nil
}

func (s *directoryService) publishCreated(ctx context.Context, cust *Customer) {
	evt := event.CustomerCreatedEvent{
		Timestamp: time.Now(),
		Payload:   newEventPayload(cust),
	}
	if err := s.pub.PublishCustomerCreated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Customer created, but failed to publish creation event", slog.Any("error", err))
	}
}

func (s *directoryService) publishUpdated(ctx context.Context, cust *Customer) {
	evt := event.CustomerUpdatedEvent{
		Timestamp: time.Now(),
		Payload:   newEventPayload(cust),
	}
	if err := s.pub.PublishCustomerUpdated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Customer updated, but failed to publish update event", slog.Any("error", err))
	}
}

func (s *directoryService) publishDeleted(ctx context.Context, customerID int64) {
	evt := event.CustomerDeletedEvent{
		Timestamp:  time.Now(),
		CustomerID: customerID,
	}
	if err := s.pub.PublishCustomerDeleted(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Customer deleted, but failed to publish deletion event", slog.Any("error", err))
	}
}
