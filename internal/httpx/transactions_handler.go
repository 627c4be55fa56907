package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/nadfk/pweb-reactjs-p01-2025/internal/kafka"
	"github.com/nadfk/pweb-reactjs-p01-2025/internal/redisx"
	"github.com/nadfk/pweb-reactjs-p01-2025/internal/transactions"
)

// TransactionsHandler exposes order placement and the reporting reads.
// Producer and Redis are optional: without them placement still works, it
// just skips event publication and statistics caching.
type TransactionsHandler struct {
	Service  *transactions.Service
	Tokens   TokenVerifier
	Producer *kafkax.Producer
	Redis    *redis.Client
	Name     string
}

func (h *TransactionsHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Tokens))
		r.Post("/transactions", h.create)
		r.Get("/transactions", h.list)
		r.Get("/transactions/statistics", h.statistics)
		r.Get("/transactions/{id}", h.detail)
	})
}

type createTransactionReq struct {
	Items []transactions.ItemInput `json:"items"`
}

type transactionData struct {
	TransactionID string  `json:"transaction_id"`
	TotalQuantity int     `json:"total_quantity"`
	TotalPrice    float64 `json:"total_price"`
}

func (h *TransactionsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	userID := UserID(r.Context())
	res, err := h.Service.PlaceOrder(r.Context(), userID, req.Items)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.afterPlacement(r, userID, req.Items, res)

	writeSuccess(w, http.StatusCreated, "Transaction created successfully", transactionData{
		TransactionID: res.OrderID,
		TotalQuantity: res.TotalQuantity,
		TotalPrice:    res.TotalPrice.InexactFloat64(),
	})
}

// afterPlacement runs the post-commit integrations. The order is already
// durable here, so nothing in this path may fail the request.
func (h *TransactionsHandler) afterPlacement(r *http.Request, userID string, items []transactions.ItemInput, res transactions.PlacementResult) {
	if h.Redis != nil {
		if err := h.Redis.Del(r.Context(), redisx.KeyStatistics).Err(); err != nil {
			log.Warn().Err(err).Msg("statistics cache invalidation failed")
		}
	}
	if h.Producer == nil {
		return
	}
	ev := transactions.Envelope{
		EventID:       uuid.NewString(),
		EventType:     transactions.EventTransactionPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Name,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: res.OrderID,
		Payload: kafkax.MustMarshal(transactions.TransactionPlacedPayload{
			TransactionID: res.OrderID,
			UserID:        userID,
			Items:         items,
			TotalQuantity: res.TotalQuantity,
			TotalPrice:    res.TotalPrice,
		}),
	}
	h.Producer.Publish(transactions.PartitionKey(res.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(transactions.EventTransactionPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

type statisticsData struct {
	TotalTransactions    int64   `json:"total_transactions"`
	AverageAmount        float64 `json:"average_transaction_amount"`
	FewestBookSalesGenre string  `json:"fewest_book_sales_genre"`
	MostBookSalesGenre   string  `json:"most_book_sales_genre"`
}

func (h *TransactionsHandler) statistics(w http.ResponseWriter, r *http.Request) {
	const msg = "Get transactions statistics successfully"

	if data, ok := h.cachedStatistics(r.Context()); ok {
		writeSuccess(w, http.StatusOK, msg, data)
		return
	}

	stats, err := h.Service.GetStatistics(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	data := statisticsData{
		TotalTransactions:    stats.TotalTransactions,
		AverageAmount:        stats.AverageAmount.InexactFloat64(),
		FewestBookSalesGenre: stats.FewestSoldGenre,
		MostBookSalesGenre:   stats.MostSoldGenre,
	}
	if h.Redis != nil {
		_ = h.Redis.Set(r.Context(), redisx.KeyStatistics, kafkax.MustMarshal(data), redisx.TTLStatistics).Err()
	}
	writeSuccess(w, http.StatusOK, msg, data)
}

func (h *TransactionsHandler) cachedStatistics(ctx context.Context) (statisticsData, bool) {
	var data statisticsData
	if h.Redis == nil {
		return data, false
	}
	raw, err := h.Redis.Get(ctx, redisx.KeyStatistics).Result()
	if err != nil || raw == "" {
		return data, false
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return data, false
	}
	return data, true
}

type historyItem struct {
	ID            string  `json:"id"`
	TotalQuantity int     `json:"total_quantity"`
	TotalPrice    float64 `json:"total_price"`
}

func (h *TransactionsHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := transactions.HistoryQuery{
		Page:          atoiDefault(q.Get("page"), 1),
		Limit:         atoiDefault(q.Get("limit"), 5),
		Search:        q.Get("search"),
		OrderByID:     q.Get("orderById"),
		OrderByAmount: q.Get("orderByAmount"),
	}
	page, err := h.Service.ListOrders(r.Context(), query)
	if err != nil {
		h.respondError(w, err)
		return
	}
	items := make([]historyItem, 0, len(page.Items))
	for _, s := range page.Items {
		items = append(items, historyItem{
			ID:            s.ID,
			TotalQuantity: s.TotalQuantity,
			TotalPrice:    s.TotalPrice.InexactFloat64(),
		})
	}
	writeSuccessMeta(w, http.StatusOK, "Get all transaction successfully", items, Meta{
		Page:     page.Page,
		Limit:    page.Limit,
		Total:    page.Total,
		PrevPage: page.PrevPage,
		NextPage: page.NextPage,
	})
}

type detailItem struct {
	BookID        string  `json:"book_id"`
	BookTitle     string  `json:"book_title"`
	Quantity      int     `json:"quantity"`
	SubtotalPrice float64 `json:"subtotal_price"`
}

type detailData struct {
	ID            string       `json:"id"`
	Items         []detailItem `json:"items"`
	TotalQuantity int          `json:"total_quantity"`
	TotalPrice    float64      `json:"total_price"`
}

func (h *TransactionsHandler) detail(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	items := make([]detailItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, detailItem{
			BookID:        it.BookID,
			BookTitle:     it.BookTitle,
			Quantity:      it.Quantity,
			SubtotalPrice: it.SubtotalPrice.InexactFloat64(),
		})
	}
	writeSuccess(w, http.StatusOK, "Get transaction detail successfully", detailData{
		ID:            d.ID,
		Items:         items,
		TotalQuantity: d.TotalQuantity,
		TotalPrice:    d.TotalPrice.InexactFloat64(),
	})
}

// respondError maps the core error taxonomy onto the wire: invalid input and
// stock violations are 400, missing entities 404, everything else a generic
// 500 with the detail kept server-side.
func (h *TransactionsHandler) respondError(w http.ResponseWriter, err error) {
	var notFound transactions.BookNotFoundError
	var noStock transactions.InsufficientStockError
	switch {
	case errors.Is(err, transactions.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, "Items array is required and cannot be empty")
	case errors.Is(err, transactions.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "Item quantity must be a positive integer")
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "Book with ID "+notFound.ID+" not found")
	case errors.As(err, &noStock):
		writeError(w, http.StatusBadRequest, `Insufficient stock for book: "`+noStock.Title+`"`)
	case errors.Is(err, transactions.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "Transaction not found")
	default:
		log.Error().Err(err).Msg("transaction operation failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
