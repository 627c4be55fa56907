package transactions

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nadfk/pweb-reactjs-p01-2025/internal/catalog"
)

// BookFinder is the batch catalog lookup placement validates against.
type BookFinder interface {
	FindBooksByIDs(ctx context.Context, ids []string) ([]catalog.Book, error)
}

// OrderStore is the slice of the order repository the service needs.
type OrderStore interface {
	CreateOrder(ctx context.Context, userID string, items []ItemInput) (string, error)
	CountOrders(ctx context.Context) (int64, error)
	ItemPrices(ctx context.Context, orderIDs []string) ([]ItemPriceRow, error)
	BookSales(ctx context.Context) ([]BookSale, error)
	GenreNames(ctx context.Context, bookIDs []string) ([]BookGenre, error)
	ListOrderIDsPage(ctx context.Context, search string, asc bool, limit, offset int) ([]string, error)
	ListAllOrderIDs(ctx context.Context, search string) ([]string, error)
	CountFiltered(ctx context.Context, search string) (int, error)
	GetOrder(ctx context.Context, id string) (Order, error)
	DetailItems(ctx context.Context, orderID string) ([]DetailRow, error)
}

type Service struct {
	Books  BookFinder
	Orders OrderStore
}

// PlaceOrder validates the requested items against current stock and commits
// the order atomically. The pre-check here is advisory: the store re-validates
// stock inside the transaction, so two racing placements against the same
// book cannot both win. Returned totals are the ones computed during
// validation, at the price current when the call was made.
func (s *Service) PlaceOrder(ctx context.Context, userID string, items []ItemInput) (PlacementResult, error) {
	if len(items) == 0 {
		return PlacementResult{}, ErrEmptyItems
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return PlacementResult{}, ErrInvalidQuantity
		}
		ids = append(ids, it.BookID)
	}

	books, err := s.Books.FindBooksByIDs(ctx, ids)
	if err != nil {
		return PlacementResult{}, err
	}
	byID := make(map[string]catalog.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	totalQuantity := 0
	totalPrice := decimal.Zero
	for _, it := range items {
		b, ok := byID[it.BookID]
		if !ok {
			return PlacementResult{}, BookNotFoundError{ID: it.BookID}
		}
		if b.StockQuantity < it.Quantity {
			return PlacementResult{}, InsufficientStockError{Title: b.Title}
		}
		totalQuantity += it.Quantity
		totalPrice = totalPrice.Add(b.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	orderID, err := s.Orders.CreateOrder(ctx, userID, items)
	if err != nil {
		return PlacementResult{}, err
	}
	return PlacementResult{
		OrderID:       orderID,
		TotalQuantity: totalQuantity,
		TotalPrice:    totalPrice,
	}, nil
}

// GetStatistics derives the reporting aggregates in application code: the
// per-order total depends on quantity x current price, which is not a stored
// column anywhere.
func (s *Service) GetStatistics(ctx context.Context) (Statistics, error) {
	total, err := s.Orders.CountOrders(ctx)
	if err != nil {
		return Statistics{}, err
	}

	rows, err := s.Orders.ItemPrices(ctx, nil)
	if err != nil {
		return Statistics{}, err
	}
	perOrder := make(map[string]decimal.Decimal)
	for _, row := range rows {
		sub := row.Price.Mul(decimal.NewFromInt(int64(row.Quantity)))
		perOrder[row.OrderID] = perOrder[row.OrderID].Add(sub)
	}
	average := decimal.Zero
	if len(perOrder) > 0 {
		sum := decimal.Zero
		for _, t := range perOrder {
			sum = sum.Add(t)
		}
		average = sum.Div(decimal.NewFromInt(int64(len(perOrder))))
	}

	stats := Statistics{
		TotalTransactions: total,
		AverageAmount:     average,
		MostSoldGenre:     GenreNotApplicable,
		FewestSoldGenre:   GenreNotApplicable,
	}

	sales, err := s.Orders.BookSales(ctx)
	if err != nil {
		return Statistics{}, err
	}
	if len(sales) == 0 {
		return stats, nil
	}

	bookIDs := make([]string, 0, len(sales))
	for _, sale := range sales {
		bookIDs = append(bookIDs, sale.BookID)
	}
	genres, err := s.Orders.GenreNames(ctx, bookIDs)
	if err != nil {
		return Statistics{}, err
	}
	genreOf := make(map[string]string, len(genres))
	for _, g := range genres {
		genreOf[g.BookID] = g.GenreName
	}

	byGenre := make(map[string]int)
	for _, sale := range sales {
		if name, ok := genreOf[sale.BookID]; ok {
			byGenre[name] += sale.Quantity
		}
	}
	if len(byGenre) == 0 {
		return stats, nil
	}

	type genreTotal struct {
		name  string
		total int
	}
	ranked := make([]genreTotal, 0, len(byGenre))
	for name, t := range byGenre {
		ranked = append(ranked, genreTotal{name: name, total: t})
	}
	// Ascending by quantity sold; equal totals rank lexicographically by name
	// so the answer never depends on map iteration order.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].total != ranked[j].total {
			return ranked[i].total < ranked[j].total
		}
		return ranked[i].name < ranked[j].name
	})
	stats.FewestSoldGenre = ranked[0].name
	stats.MostSoldGenre = ranked[len(ranked)-1].name
	return stats, nil
}

// ListOrders pages through history. Sorting by the derived amount forces a
// full load and an in-app sort; every other ordering is pushed down to SQL
// and only the visible page's totals get computed.
func (s *Service) ListOrders(ctx context.Context, q HistoryQuery) (HistoryPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 5
	}
	skip := (q.Page - 1) * q.Limit

	total, err := s.Orders.CountFiltered(ctx, q.Search)
	if err != nil {
		return HistoryPage{}, err
	}

	var ids []string
	if q.OrderByAmount == "asc" || q.OrderByAmount == "desc" {
		all, err := s.Orders.ListAllOrderIDs(ctx, q.Search)
		if err != nil {
			return HistoryPage{}, err
		}
		summaries, err := s.summarize(ctx, all)
		if err != nil {
			return HistoryPage{}, err
		}
		asc := q.OrderByAmount == "asc"
		sort.SliceStable(summaries, func(i, j int) bool {
			if asc {
				return summaries[i].TotalPrice.LessThan(summaries[j].TotalPrice)
			}
			return summaries[j].TotalPrice.LessThan(summaries[i].TotalPrice)
		})
		return s.page(summaries, q, skip, total), nil
	}

	asc := q.OrderByID == "asc"
	ids, err = s.Orders.ListOrderIDsPage(ctx, q.Search, asc, q.Limit, skip)
	if err != nil {
		return HistoryPage{}, err
	}
	summaries, err := s.summarize(ctx, ids)
	if err != nil {
		return HistoryPage{}, err
	}
	return s.page(summaries, q, 0, total), nil
}

// summarize computes each listed order's totals, keeping orders without a
// single priceable item (their totals are zero).
func (s *Service) summarize(ctx context.Context, ids []string) ([]OrderSummary, error) {
	summaries := make([]OrderSummary, len(ids))
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		summaries[i] = OrderSummary{ID: id, TotalPrice: decimal.Zero}
		index[id] = i
	}
	if len(ids) == 0 {
		return summaries, nil
	}
	rows, err := s.Orders.ItemPrices(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		i, ok := index[row.OrderID]
		if !ok {
			continue
		}
		summaries[i].TotalQuantity += row.Quantity
		summaries[i].TotalPrice = summaries[i].TotalPrice.Add(
			row.Price.Mul(decimal.NewFromInt(int64(row.Quantity))))
	}
	return summaries, nil
}

func (s *Service) page(summaries []OrderSummary, q HistoryQuery, skip, total int) HistoryPage {
	items := summaries
	if skip > 0 || len(items) > q.Limit {
		if skip >= len(items) {
			items = []OrderSummary{}
		} else {
			end := skip + q.Limit
			if end > len(items) {
				end = len(items)
			}
			items = items[skip:end]
		}
	}
	totalPages := (total + q.Limit - 1) / q.Limit
	p := HistoryPage{Items: items, Page: q.Page, Limit: q.Limit, Total: total}
	if q.Page > 1 {
		prev := q.Page - 1
		p.PrevPage = &prev
	}
	if q.Page < totalPages {
		next := q.Page + 1
		p.NextPage = &next
	}
	return p
}

// GetOrder resolves one order's line items against the current catalog. A
// soft-deleted book never makes history unreadable: its items degrade to a
// placeholder title with a zero price contribution, quantity still counted.
func (s *Service) GetOrder(ctx context.Context, id string) (OrderDetail, error) {
	o, err := s.Orders.GetOrder(ctx, id)
	if err != nil {
		return OrderDetail{}, err
	}
	rows, err := s.Orders.DetailItems(ctx, o.ID)
	if err != nil {
		return OrderDetail{}, err
	}

	detail := OrderDetail{ID: o.ID, Items: make([]DetailItem, 0, len(rows)), TotalPrice: decimal.Zero}
	for _, row := range rows {
		title := DeletedBookTitle
		price := decimal.Zero
		if row.Title != nil {
			title = *row.Title
		}
		if row.Price.Valid {
			price = row.Price.Decimal
		}
		sub := price.Mul(decimal.NewFromInt(int64(row.Quantity)))
		detail.Items = append(detail.Items, DetailItem{
			BookID:        row.BookID,
			BookTitle:     title,
			Quantity:      row.Quantity,
			SubtotalPrice: sub,
		})
		detail.TotalQuantity += row.Quantity
		detail.TotalPrice = detail.TotalPrice.Add(sub)
	}
	return detail, nil
}

// DeletedBookTitle stands in for a line item whose book no longer resolves.
const DeletedBookTitle = "[Book Deleted]"
