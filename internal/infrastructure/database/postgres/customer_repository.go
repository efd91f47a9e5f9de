package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"customer-directory/internal/domain/customer"
	"customer-directory/internal/infrastructure/monitoring"
	"customer-directory/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// HandleSource yields the live store handle. The Connector implements it;
// tests substitute a stub around a pgxmock pool.
type HandleSource interface {
	Handle() (DBPool, error)
}

var _ HandleSource = (*Connector)(nil)

type CustomerRepository struct {
	source HandleSource
	logger *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(source HandleSource, logger *slog.Logger) *CustomerRepository {
	if source == nil {
		panic("handle source cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		source: source,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func observeQuery(operation string, start time.Time) {
	monitoring.ObserveQueryDuration(operation, time.Since(start))
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var cust customer.Customer
	err := row.Scan(
		&cust.ID,
		&cust.Name,
		&cust.Email,
		&cust.Phone,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	defer observeQuery("FindAll", time.Now())
	r.logger.DebugContext(ctx, "Attempting to find all customers")

	db, err := r.source.Handle()
	if err != nil {
		return nil, err
	}

	query := `
        SELECT id, name, email, phone, created_at, updated_at
        FROM customers
        ORDER BY created_at DESC`

	rows, err := db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	r.logger.DebugContext(ctx, "Finished finding customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	defer observeQuery("FindByID", time.Now())
	r.logger.DebugContext(ctx, "Attempting to find customer by ID")

	db, err := r.source.Handle()
	if err != nil {
		return nil, err
	}

	query := `
        SELECT id, name, email, phone, created_at, updated_at
        FROM customers
        WHERE id = $1`

	cust, err := scanCustomer(db.QueryRow(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found")
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}

	return cust, nil
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string, excludeID int64) (*customer.Customer, error) {
	defer observeQuery("FindByEmail", time.Now())
	r.logger.DebugContext(ctx, "Attempting to find customer by email")

	db, err := r.source.Handle()
	if err != nil {
		return nil, err
	}

	query := `
        SELECT id, name, email, phone, created_at, updated_at
        FROM customers
        WHERE email = $1`
	args := []any{email}
	if excludeID != 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	query += " LIMIT 1"

	cust, err := scanCustomer(db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by email", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by email: %w", apperrors.ErrDatabase, err)
	}

	return cust, nil
}

func (r *CustomerRepository) Insert(ctx context.Context, cust *customer.Customer) (*customer.Customer, error) {
	defer observeQuery("Insert", time.Now())
	if cust == nil {
		return nil, fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.DebugContext(ctx, "Attempting to insert new customer", slog.String("email", cust.Email))

	db, err := r.source.Handle()
	if err != nil {
		return nil, err
	}

	query := `
        INSERT INTO customers (name, email, phone, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING id, name, email, phone, created_at, updated_at`

	created, err := scanCustomer(db.QueryRow(ctx, query, cust.Name, cust.Email, cust.Phone))
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrConflict) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation", slog.String("email", cust.Email))
			return nil, translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", created.ID))
	return created, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customerID int64, patch customer.Patch) (*customer.Customer, error) {
	defer observeQuery("Update", time.Now())
	r.logger.DebugContext(ctx, "Attempting to update customer")

	db, err := r.source.Handle()
	if err != nil {
		return nil, err
	}

	// Only fields present in the patch are written; updated_at is
	// refreshed unconditionally, even for an empty patch.
	set := []string{"updated_at = NOW()"}
	args := []any{}
	idx := 1
	if patch.Name != nil {
		set = append(set, fmt.Sprintf("name = $%d", idx))
		args = append(args, *patch.Name)
		idx++
	}
	if patch.Email != nil {
		set = append(set, fmt.Sprintf("email = $%d", idx))
		args = append(args, *patch.Email)
		idx++
	}
	if patch.Phone != nil {
		var phone *string
		if *patch.Phone != "" {
			phone = patch.Phone
		}
		set = append(set, fmt.Sprintf("phone = $%d", idx))
		args = append(args, phone)
		idx++
	}

	query := fmt.Sprintf(`
        UPDATE customers
        SET %s
        WHERE id = $%d
        RETURNING id, name, email, phone, created_at, updated_at`, strings.Join(set, ", "), idx)
	args = append(args, customerID)

	updated, err := scanCustomer(db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Update matched zero rows, customer likely not found")
			return nil, apperrors.ErrNotFound
		}
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrConflict) {
			r.logger.WarnContext(ctx, "Failed to update customer due to unique constraint violation")
			return nil, translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer updated successfully")
	return updated, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, customerID int64) error {
	defer observeQuery("Delete", time.Now())
	r.logger.DebugContext(ctx, "Attempting to delete customer")

	db, err := r.source.Handle()
	if err != nil {
		return err
	}

	query := `DELETE FROM customers WHERE id = $1`

	cmdTag, err := db.Exec(ctx, query, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to execute delete customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Delete affected zero rows, customer likely not found")
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer deleted successfully")
	return nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {

		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrConflict, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return apperrors.WrapDatabaseError(err, "unexpected database error")
}
