package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// ---- genres ----

func (r *Repo) CreateGenre(ctx context.Context, name string) (Genre, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM genres WHERE name=$1 AND deleted_at IS NULL)`, name).Scan(&exists)
	if err != nil {
		return Genre{}, err
	}
	if exists {
		return Genre{}, ErrDuplicateGenre
	}

	g := Genre{ID: uuid.NewString(), Name: name}
	err = r.DB.QueryRow(ctx, `
		INSERT INTO genres(id, name) VALUES ($1, $2)
		RETURNING created_at, updated_at`, g.ID, g.Name).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return Genre{}, err
	}
	return g, nil
}

func (r *Repo) GetGenre(ctx context.Context, id string) (Genre, error) {
	var g Genre
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at FROM genres
		WHERE id=$1 AND deleted_at IS NULL`, id).
		Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Genre{}, ErrGenreNotFound
	}
	if err != nil {
		return Genre{}, err
	}
	return g, nil
}

func (r *Repo) UpdateGenre(ctx context.Context, id, name string) (Genre, error) {
	var g Genre
	err := r.DB.QueryRow(ctx, `
		UPDATE genres SET name=$2, updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL
		RETURNING id, name, created_at, updated_at`, id, name).
		Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Genre{}, ErrGenreNotFound
	}
	if err != nil {
		return Genre{}, err
	}
	return g, nil
}

func (r *Repo) SoftDeleteGenre(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE genres SET deleted_at=now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrGenreNotFound
	}
	return nil
}

// ---- books ----

func (r *Repo) CreateBook(ctx context.Context, b Book) (Book, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE title=$1 AND deleted_at IS NULL)`, b.Title).Scan(&exists)
	if err != nil {
		return Book{}, err
	}
	if exists {
		return Book{}, ErrDuplicateBook
	}
	if _, err := r.GetGenre(ctx, b.GenreID); err != nil {
		return Book{}, err
	}

	b.ID = uuid.NewString()
	err = r.DB.QueryRow(ctx, `
		INSERT INTO books(id, title, writer, publisher, publication_year, description, price, stock_quantity, genre_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		b.ID, b.Title, b.Writer, b.Publisher, b.PublicationYear, b.Description, b.Price, b.StockQuantity, b.GenreID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Book{}, err
	}
	return b, nil
}

func (r *Repo) GetBook(ctx context.Context, id string) (Book, error) {
	var b Book
	err := r.DB.QueryRow(ctx, `
		SELECT id, title, writer, publisher, publication_year, description, price, stock_quantity, genre_id, created_at, updated_at
		FROM books WHERE id=$1 AND deleted_at IS NULL`, id).
		Scan(&b.ID, &b.Title, &b.Writer, &b.Publisher, &b.PublicationYear, &b.Description,
			&b.Price, &b.StockQuantity, &b.GenreID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return b, nil
}

func (r *Repo) UpdateBook(ctx context.Context, id string, patch BookPatch) (Book, error) {
	b, err := r.GetBook(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if patch.Description != nil {
		b.Description = patch.Description
	}
	if patch.Price != nil {
		b.Price = *patch.Price
	}
	if patch.StockQuantity != nil {
		b.StockQuantity = *patch.StockQuantity
	}
	err = r.DB.QueryRow(ctx, `
		UPDATE books SET description=$2, price=$3, stock_quantity=$4, updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL
		RETURNING updated_at`, id, b.Description, b.Price, b.StockQuantity).Scan(&b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return b, nil
}

func (r *Repo) SoftDeleteBook(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE books SET deleted_at=now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

// FindBooksByIDs is the batch lookup order placement validates against.
// Soft-deleted books are excluded: a deleted book is not sellable.
func (r *Repo) FindBooksByIDs(ctx context.Context, ids []string) ([]Book, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, title, writer, publisher, publication_year, description, price, stock_quantity, genre_id, created_at, updated_at
		FROM books WHERE id = ANY($1) AND deleted_at IS NULL`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Writer, &b.Publisher, &b.PublicationYear, &b.Description,
			&b.Price, &b.StockQuantity, &b.GenreID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
