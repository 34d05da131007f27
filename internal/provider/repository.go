package provider

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, p *Provider) error
	// List returns providers of kind, newest first.
	List(ctx context.Context, kind Kind) ([]*Provider, error)
	// GetByIDs returns the providers of kind that exist among ids.
	GetByIDs(ctx context.Context, kind Kind, ids []int64) ([]*Provider, error)
	Delete(ctx context.Context, id int64) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var columns = []string{"id", "kind", "name", "contact", "specialties", "description", "price", "created_at"}

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	if err := row.Scan(&p.ID, &p.Kind, &p.Name, &p.Contact, &p.Specialties, &p.Description, &p.Price, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgxRepository) Create(ctx context.Context, p *Provider) error {
	specialties := p.Specialties
	if specialties == nil {
		specialties = []string{}
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.providers").
		Columns("kind", "name", "contact", "specialties", "description", "price").
		Values(string(p.Kind), p.Name, p.Contact, specialties, p.Description, p.Price).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create %s query failed: %w", p.Kind, err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("create %s failed: %w", p.Kind, err)
	}
	return nil
}

func (r *pgxRepository) List(ctx context.Context, kind Kind) ([]*Provider, error) {
	return r.list(ctx, squirrel.Eq{"kind": string(kind)})
}

func (r *pgxRepository) GetByIDs(ctx context.Context, kind Kind, ids []int64) ([]*Provider, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, squirrel.Eq{"kind": string(kind), "id": ids})
}

func (r *pgxRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*Provider, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(columns...).
		From("public.providers").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list providers query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list providers failed: %w", err)
	}
	defer rows.Close()

	var providers []*Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider failed: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (r *pgxRepository) Delete(ctx context.Context, id int64) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.providers").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete provider query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete provider failed: %w", err)
	}
	return nil
}
