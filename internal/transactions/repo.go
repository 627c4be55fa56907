package transactions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// CreateOrder commits the order header, its line items and the stock
// decrements as one transaction. The decrement is conditional on
// stock_quantity >= quantity, so the advisory pre-transaction stock check can
// be raced by a concurrent placement without stock ever going negative: the
// loser's guard affects zero rows and the whole transaction rolls back.
func (r *Repo) CreateOrder(ctx context.Context, userID string, items []ItemInput) (string, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderID := uuid.NewString()
	if _, err := tx.Exec(ctx,
		`INSERT INTO orders(id, user_id) VALUES ($1, $2)`, orderID, userID); err != nil {
		return "", err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items(order_id, book_id, quantity) VALUES ($1, $2, $3)`,
			orderID, it.BookID, it.Quantity); err != nil {
			return "", err
		}
	}

	for _, it := range items {
		ct, err := tx.Exec(ctx, `
			UPDATE books SET stock_quantity = stock_quantity - $2, updated_at = now()
			WHERE id = $1 AND deleted_at IS NULL AND stock_quantity >= $2`,
			it.BookID, it.Quantity)
		if err != nil {
			return "", err
		}
		if ct.RowsAffected() == 0 {
			var title string
			err := tx.QueryRow(ctx, `SELECT title FROM books WHERE id=$1`, it.BookID).Scan(&title)
			if errors.Is(err, pgx.ErrNoRows) {
				return "", BookNotFoundError{ID: it.BookID}
			}
			if err != nil {
				return "", err
			}
			return "", InsufficientStockError{Title: title}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return orderID, nil
}

func (r *Repo) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
	return n, err
}

// ItemPrices joins line items to their book's current price. nil orderIDs
// means every item. The join is by book id only, so items of a soft-deleted
// book still price; only a physically dangling reference drops out.
func (r *Repo) ItemPrices(ctx context.Context, orderIDs []string) ([]ItemPriceRow, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if orderIDs == nil {
		rows, err = r.DB.Query(ctx, `
			SELECT oi.order_id, oi.quantity, b.price
			FROM order_items oi JOIN books b ON b.id = oi.book_id`)
	} else {
		rows, err = r.DB.Query(ctx, `
			SELECT oi.order_id, oi.quantity, b.price
			FROM order_items oi JOIN books b ON b.id = oi.book_id
			WHERE oi.order_id = ANY($1)`, orderIDs)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemPriceRow
	for rows.Next() {
		var row ItemPriceRow
		if err := rows.Scan(&row.OrderID, &row.Quantity, &row.Price); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// BookSales sums quantity sold per book across all orders.
func (r *Repo) BookSales(ctx context.Context) ([]BookSale, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT book_id, SUM(quantity)::int FROM order_items GROUP BY book_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BookSale
	for rows.Next() {
		var s BookSale
		if err := rows.Scan(&s.BookID, &s.Quantity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) GenreNames(ctx context.Context, bookIDs []string) ([]BookGenre, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT b.id, g.name
		FROM books b JOIN genres g ON g.id = b.genre_id
		WHERE b.id = ANY($1)`, bookIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BookGenre
	for rows.Next() {
		var bg BookGenre
		if err := rows.Scan(&bg.BookID, &bg.GenreName); err != nil {
			return nil, err
		}
		out = append(out, bg)
	}
	return out, rows.Err()
}

// ListOrderIDsPage is the pushed-down history path: when the sort key is the
// id (not the derived amount), filtering, ordering and pagination all happen
// in SQL and only the requested page's totals get computed.
func (r *Repo) ListOrderIDsPage(ctx context.Context, search string, asc bool, limit, offset int) ([]string, error) {
	dir := "DESC"
	if asc {
		dir = "ASC"
	}
	var (
		rows pgx.Rows
		err  error
	)
	if search != "" {
		rows, err = r.DB.Query(ctx,
			`SELECT id FROM orders WHERE id ILIKE '%'||$1||'%' ORDER BY id `+dir+` LIMIT $2 OFFSET $3`,
			search, limit, offset)
	} else {
		rows, err = r.DB.Query(ctx,
			`SELECT id FROM orders ORDER BY id `+dir+` LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ListAllOrderIDs loads the full filtered candidate set. Used only when
// sorting by the derived amount, which SQL cannot order by.
func (r *Repo) ListAllOrderIDs(ctx context.Context, search string) ([]string, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if search != "" {
		rows, err = r.DB.Query(ctx, `SELECT id FROM orders WHERE id ILIKE '%'||$1||'%'`, search)
	} else {
		rows, err = r.DB.Query(ctx, `SELECT id FROM orders`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (r *Repo) CountFiltered(ctx context.Context, search string) (int, error) {
	var n int
	var err error
	if search != "" {
		err = r.DB.QueryRow(ctx,
			`SELECT COUNT(*) FROM orders WHERE id ILIKE '%'||$1||'%'`, search).Scan(&n)
	} else {
		err = r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
	}
	return n, err
}

func (r *Repo) GetOrder(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.UserID, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// DetailItems resolves each line item against the current catalog. The LEFT
// JOIN keeps items whose book is soft-deleted or gone; those come back with
// nil title/price and the caller degrades them instead of failing.
func (r *Repo) DetailItems(ctx context.Context, orderID string) ([]DetailRow, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT oi.book_id, oi.quantity, b.title, b.price
		FROM order_items oi
		LEFT JOIN books b ON b.id = oi.book_id AND b.deleted_at IS NULL
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DetailRow
	for rows.Next() {
		var d DetailRow
		if err := rows.Scan(&d.BookID, &d.Quantity, &d.Title, &d.Price); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanIDs(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
