package venue

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/event-planner/internal/model"
)

type Repository interface {
	Create(ctx context.Context, v *Venue) error
	GetByID(ctx context.Context, id int64) (*Venue, error)
	List(ctx context.Context, filter Filter) ([]*Venue, error)
	Delete(ctx context.Context, id int64) error

	// ServicesFor returns the attached catalog services of each venue.
	ServicesFor(ctx context.Context, venueIDs []int64) (map[int64][]model.Service, error)
	AttachServices(ctx context.Context, venueID int64, serviceIDs []int64) error
	DetachService(ctx context.Context, venueID, serviceID int64) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, v *Venue) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.venues").
		Columns("owner_id", "name", "address", "price").
		Values(v.OwnerID, v.Name, v.Address, v.Price).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create venue query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&v.ID, &v.CreatedAt); err != nil {
		return fmt.Errorf("create venue failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Venue, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "owner_id", "name", "address", "price", "created_at").
		From("public.venues").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get venue query failed: %w", err)
	}

	var v Venue
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&v.ID, &v.OwnerID, &v.Name, &v.Address, &v.Price, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get venue failed: %w", err)
	}
	return &v, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Venue, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	q := psql.Select("id", "owner_id", "name", "address", "price", "created_at").
		From("public.venues")

	if filter.OwnerID != 0 {
		q = q.Where(squirrel.Eq{"owner_id": filter.OwnerID})
	}
	if filter.IDs != nil {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	q = q.OrderBy("created_at DESC", "id DESC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list venues query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list venues failed: %w", err)
	}
	defer rows.Close()

	var venues []*Venue
	for rows.Next() {
		var v Venue
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Address, &v.Price, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan venue failed: %w", err)
		}
		venues = append(venues, &v)
	}
	return venues, rows.Err()
}

func (r *pgxRepository) Delete(ctx context.Context, id int64) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.venues").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete venue query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete venue failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) ServicesFor(ctx context.Context, venueIDs []int64) (map[int64][]model.Service, error) {
	out := make(map[int64][]model.Service, len(venueIDs))
	if len(venueIDs) == 0 {
		return out, nil
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("vs.venue_id", "s.id", "s.name", "s.description", "s.price").
		From("public.venue_services vs").
		Join("public.services s ON vs.service_id = s.id").
		Where(squirrel.Eq{"vs.venue_id": venueIDs}).
		OrderBy("vs.venue_id", "s.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build venue services query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list venue services failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var venueID int64
		var s model.Service
		if err := rows.Scan(&venueID, &s.ID, &s.Name, &s.Description, &s.Price); err != nil {
			return nil, fmt.Errorf("scan venue service failed: %w", err)
		}
		out[venueID] = append(out[venueID], s)
	}
	return out, rows.Err()
}

func (r *pgxRepository) AttachServices(ctx context.Context, venueID int64, serviceIDs []int64) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	insert := psql.Insert("public.venue_services").Columns("venue_id", "service_id")
	for _, id := range serviceIDs {
		insert = insert.Values(venueID, id)
	}
	query, args, err := insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build attach services query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("attach services failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) DetachService(ctx context.Context, venueID, serviceID int64) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.venue_services").
		Where(squirrel.Eq{"venue_id": venueID, "service_id": serviceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build detach service query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("detach service failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrServiceNotLinked
	}
	return nil
}
