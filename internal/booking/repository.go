package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Create stores the booking and its provider links in one transaction.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	GetByIdempotencyKey(ctx context.Context, userID int64, key string) (*Booking, error)
	// ListByUser returns the user's bookings, most recent date first.
	ListByUser(ctx context.Context, userID int64) ([]*Booking, error)
	UpdateStatus(ctx context.Context, b *Booking) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var columns = []string{
	"id", "user_id", "venue_id", "booking_date", "total_price", "status",
	"idempotency_key", "created_at", "updated_at",
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.VenueID, &b.BookingDate, &b.TotalPrice, &b.Status,
		&b.IdempotencyKey, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("user_id", "venue_id", "booking_date", "total_price", "status", "idempotency_key").
		Values(b.UserID, b.VenueID, b.BookingDate, b.TotalPrice, string(b.Status), b.IdempotencyKey).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return errDuplicateKey
		}
		return fmt.Errorf("create booking failed: %w", err)
	}

	providerIDs := append(append([]int64{}, b.VendorIDs...), b.CarterIDs...)
	if len(providerIDs) > 0 {
		insert := psql.Insert("public.booking_providers").Columns("booking_id", "provider_id", "position")
		for i, id := range providerIDs {
			insert = insert.Values(b.ID, id, i)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build booking providers query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("link booking providers failed: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *pgxRepository) GetByIdempotencyKey(ctx context.Context, userID int64, key string) (*Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"user_id": userID, "idempotency_key": key})
}

func (r *pgxRepository) getOne(ctx context.Context, where squirrel.Eq) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(columns...).
		From("public.bookings").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	if err := r.loadProviders(ctx, []*Booking{b}); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *pgxRepository) ListByUser(ctx context.Context, userID int64) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(columns...).
		From("public.bookings").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("booking_date DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadProviders(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// loadProviders fills VendorIDs and CarterIDs in link order.
func (r *pgxRepository) loadProviders(ctx context.Context, bookings []*Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	byID := make(map[int64]*Booking, len(bookings))
	ids := make([]int64, len(bookings))
	for i, b := range bookings {
		byID[b.ID] = b
		ids[i] = b.ID
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("bp.booking_id", "bp.provider_id", "p.kind").
		From("public.booking_providers bp").
		Join("public.providers p ON bp.provider_id = p.id").
		Where(squirrel.Eq{"bp.booking_id": ids}).
		OrderBy("bp.booking_id", "bp.position").
		ToSql()
	if err != nil {
		return fmt.Errorf("build booking providers query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list booking providers failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID, providerID int64
		var kind string
		if err := rows.Scan(&bookingID, &providerID, &kind); err != nil {
			return fmt.Errorf("scan booking provider failed: %w", err)
		}
		b := byID[bookingID]
		if kind == "carter" {
			b.CarterIDs = append(b.CarterIDs, providerID)
		} else {
			b.VendorIDs = append(b.VendorIDs, providerID)
		}
	}
	return rows.Err()
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", string(b.Status)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update booking failed: %w", err)
	}
	return nil
}
