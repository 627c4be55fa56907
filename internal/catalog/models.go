package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Genre struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type Book struct {
	ID              string
	Title           string
	Writer          string
	Publisher       string
	PublicationYear int
	Description     *string
	Price           decimal.Decimal
	StockQuantity   int
	GenreID         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// BookPatch carries the fields a catalog edit may change. Nil means "leave as is".
type BookPatch struct {
	Description   *string
	Price         *decimal.Decimal
	StockQuantity *int
}
