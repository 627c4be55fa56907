package transactions

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemInput is one requested (book, quantity) pair of a placement.
type ItemInput struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

// Order is the purchase header. Totals are never stored: they are always
// recomputed from each book's current price at read time, so they drift
// when a catalog edit changes a price after purchase.
type Order struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

type OrderItem struct {
	ID       int64
	OrderID  string
	BookID   string
	Quantity int
}

// PlacementResult carries the new order id plus the totals computed during
// validation, not re-read from storage.
type PlacementResult struct {
	OrderID       string
	TotalQuantity int
	TotalPrice    decimal.Decimal
}

type Statistics struct {
	TotalTransactions int64
	AverageAmount     decimal.Decimal
	MostSoldGenre     string
	FewestSoldGenre   string
}

// GenreNotApplicable is reported for both genre ranks when nothing has sold.
const GenreNotApplicable = "N/A"

type OrderSummary struct {
	ID            string
	TotalQuantity int
	TotalPrice    decimal.Decimal
}

type HistoryQuery struct {
	Page          int
	Limit         int
	Search        string // case-insensitive substring match on order id
	OrderByID     string // "asc" | "desc" | ""
	OrderByAmount string // "asc" | "desc" | ""
}

type HistoryPage struct {
	Items    []OrderSummary
	Page     int
	Limit    int
	Total    int
	PrevPage *int
	NextPage *int
}

type DetailItem struct {
	BookID        string
	BookTitle     string
	Quantity      int
	SubtotalPrice decimal.Decimal
}

type OrderDetail struct {
	ID            string
	Items         []DetailItem
	TotalQuantity int
	TotalPrice    decimal.Decimal
}

// ---- repository row shapes ----

// ItemPriceRow is one line item joined to its book's current price.
type ItemPriceRow struct {
	OrderID  string
	Quantity int
	Price    decimal.Decimal
}

type BookSale struct {
	BookID   string
	Quantity int
}

type BookGenre struct {
	BookID    string
	GenreName string
}

// DetailRow is one line item of a single order. Title and Price are nil when
// the referenced book is soft-deleted or gone.
type DetailRow struct {
	BookID   string
	Quantity int
	Title    *string
	Price    decimal.NullDecimal
}
