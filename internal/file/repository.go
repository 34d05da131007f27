package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, img *Image) error
	GetByName(ctx context.Context, name string) (*Image, error)
	ListByOwners(ctx context.Context, kind OwnerKind, ownerIDs []int64) ([]*Image, error)
	Delete(ctx context.Context, id int64) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var imageColumns = []string{
	"id", "name", "owner_kind", "owner_id", "position",
	"storage_path", "thumbnail_path", "content_type", "size", "created_at",
}

func scanImage(row pgx.Row) (*Image, error) {
	var img Image
	err := row.Scan(
		&img.ID, &img.Name, &img.OwnerKind, &img.OwnerID, &img.Position,
		&img.StoragePath, &img.ThumbnailPath, &img.ContentType, &img.Size, &img.CreatedAt,
	)
	return &img, err
}

func (r *pgxRepository) Create(ctx context.Context, img *Image) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.images").
		Columns("name", "owner_kind", "owner_id", "position", "storage_path", "thumbnail_path", "content_type", "size").
		Values(img.Name, img.OwnerKind, img.OwnerID, img.Position, img.StoragePath, img.ThumbnailPath, img.ContentType, img.Size).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create image query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&img.ID, &img.CreatedAt); err != nil {
		return fmt.Errorf("create image failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByName(ctx context.Context, name string) (*Image, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(imageColumns...).
		From("public.images").
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get image query failed: %w", err)
	}

	img, err := scanImage(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get image failed: %w", err)
	}
	return img, nil
}

func (r *pgxRepository) ListByOwners(ctx context.Context, kind OwnerKind, ownerIDs []int64) ([]*Image, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(imageColumns...).
		From("public.images").
		Where(squirrel.Eq{"owner_kind": kind, "owner_id": ownerIDs}).
		OrderBy("owner_id", "position", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list images query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list images failed: %w", err)
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image failed: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *pgxRepository) Delete(ctx context.Context, id int64) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.images").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete image query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete image failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
