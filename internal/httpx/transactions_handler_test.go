package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadfk/pweb-reactjs-p01-2025/internal/catalog"
	"github.com/nadfk/pweb-reactjs-p01-2025/internal/transactions"
)

type staticTokens struct{ userID string }

func (s staticTokens) Verify(token string) (string, error) {
	if token != "valid-token" {
		return "", errors.New("bad token")
	}
	return s.userID, nil
}

// txStore is a minimal in-memory BookFinder + OrderStore for handler tests.
type txStore struct {
	books  map[string]catalog.Book
	orders []transactions.Order
	items  map[string][]transactions.ItemInput
	seq    int
}

func newTxStore() *txStore {
	return &txStore{books: map[string]catalog.Book{}, items: map[string][]transactions.ItemInput{}}
}

func (s *txStore) addBook(id, title, price string, stock int) {
	s.books[id] = catalog.Book{ID: id, Title: title, Price: decimal.RequireFromString(price), StockQuantity: stock}
}

func (s *txStore) FindBooksByIDs(_ context.Context, ids []string) ([]catalog.Book, error) {
	var out []catalog.Book
	for _, id := range ids {
		if b, ok := s.books[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *txStore) CreateOrder(_ context.Context, userID string, items []transactions.ItemInput) (string, error) {
	for _, it := range items {
		b := s.books[it.BookID]
		b.StockQuantity -= it.Quantity
		s.books[it.BookID] = b
	}
	s.seq++
	id := fmt.Sprintf("order-%04d", s.seq)
	s.orders = append(s.orders, transactions.Order{ID: id, UserID: userID})
	s.items[id] = items
	return id, nil
}

func (s *txStore) CountOrders(context.Context) (int64, error) { return int64(len(s.orders)), nil }

func (s *txStore) ItemPrices(_ context.Context, orderIDs []string) ([]transactions.ItemPriceRow, error) {
	wanted := map[string]bool{}
	for _, id := range orderIDs {
		wanted[id] = true
	}
	var out []transactions.ItemPriceRow
	for _, o := range s.orders {
		if orderIDs != nil && !wanted[o.ID] {
			continue
		}
		for _, it := range s.items[o.ID] {
			out = append(out, transactions.ItemPriceRow{
				OrderID: o.ID, Quantity: it.Quantity, Price: s.books[it.BookID].Price,
			})
		}
	}
	return out, nil
}

func (s *txStore) BookSales(context.Context) ([]transactions.BookSale, error) {
	totals := map[string]int{}
	for _, items := range s.items {
		for _, it := range items {
			totals[it.BookID] += it.Quantity
		}
	}
	var out []transactions.BookSale
	for id, q := range totals {
		out = append(out, transactions.BookSale{BookID: id, Quantity: q})
	}
	return out, nil
}

func (s *txStore) GenreNames(_ context.Context, bookIDs []string) ([]transactions.BookGenre, error) {
	var out []transactions.BookGenre
	for _, id := range bookIDs {
		out = append(out, transactions.BookGenre{BookID: id, GenreName: "Fiction"})
	}
	return out, nil
}

func (s *txStore) ListOrderIDsPage(_ context.Context, _ string, asc bool, limit, offset int) ([]string, error) {
	ids := make([]string, 0, len(s.orders))
	for _, o := range s.orders {
		ids = append(ids, o.ID)
	}
	if !asc {
		for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
			ids[i], ids[j] = ids[j], ids[i]
		}
	}
	if offset >= len(ids) {
		return nil, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end], nil
}

func (s *txStore) ListAllOrderIDs(context.Context, string) ([]string, error) {
	ids := make([]string, 0, len(s.orders))
	for _, o := range s.orders {
		ids = append(ids, o.ID)
	}
	return ids, nil
}

func (s *txStore) CountFiltered(context.Context, string) (int, error) { return len(s.orders), nil }

func (s *txStore) GetOrder(_ context.Context, id string) (transactions.Order, error) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return transactions.Order{}, transactions.ErrOrderNotFound
}

func (s *txStore) DetailItems(_ context.Context, orderID string) ([]transactions.DetailRow, error) {
	var out []transactions.DetailRow
	for _, it := range s.items[orderID] {
		b := s.books[it.BookID]
		title := b.Title
		out = append(out, transactions.DetailRow{
			BookID: it.BookID, Quantity: it.Quantity,
			Title: &title, Price: decimal.NewNullDecimal(b.Price),
		})
	}
	return out, nil
}

func newTestServer(store *txStore) *httptest.Server {
	router := NewRouter()
	h := &TransactionsHandler{
		Service: &transactions.Service{Books: store, Orders: store},
		Tokens:  staticTokens{userID: "user-1"},
		Name:    "test-api",
	}
	h.Register(router)
	return httptest.NewServer(router)
}

func doJSON(t *testing.T, method, url, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestCreateTransactionRequiresAuth(t *testing.T) {
	srv := newTestServer(newTxStore())
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/transactions", "", `{"items":[]}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestCreateTransactionSuccess(t *testing.T) {
	store := newTxStore()
	store.addBook("A", "Book A", "10", 5)
	store.addBook("B", "Book B", "20", 2)
	srv := newTestServer(store)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/transactions", "valid-token",
		`{"items":[{"book_id":"A","quantity":2},{"book_id":"B","quantity":1}]}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["transaction_id"])
	assert.EqualValues(t, 3, data["total_quantity"])
	assert.EqualValues(t, 40, data["total_price"])
	assert.Equal(t, "user-1", store.orders[0].UserID)
}

func TestCreateTransactionEmptyItems(t *testing.T) {
	srv := newTestServer(newTxStore())
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/transactions", "valid-token", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestCreateTransactionUnknownBook(t *testing.T) {
	srv := newTestServer(newTxStore())
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/transactions", "valid-token",
		`{"items":[{"book_id":"ghost","quantity":1}]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["message"], "ghost")
}

func TestCreateTransactionInsufficientStock(t *testing.T) {
	store := newTxStore()
	store.addBook("A", "Book A", "10", 1)
	srv := newTestServer(store)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/transactions", "valid-token",
		`{"items":[{"book_id":"A","quantity":3}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["message"], "Book A")
}

func TestGetStatisticsEndpoint(t *testing.T) {
	store := newTxStore()
	store.addBook("A", "Book A", "10", 10)
	srv := newTestServer(store)
	defer srv.Close()

	_, _ = doJSON(t, http.MethodPost, srv.URL+"/transactions", "valid-token",
		`{"items":[{"book_id":"A","quantity":2}]}`)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/transactions/statistics", "valid-token", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 1, data["total_transactions"])
	assert.EqualValues(t, 20, data["average_transaction_amount"])
	assert.Equal(t, "Fiction", data["most_book_sales_genre"])
	assert.Equal(t, "Fiction", data["fewest_book_sales_genre"])
}

func TestListTransactionsMeta(t *testing.T) {
	store := newTxStore()
	store.addBook("A", "Book A", "10", 100)
	srv := newTestServer(store)
	defer srv.Close()

	for i := 0; i < 7; i++ {
		_, _ = doJSON(t, http.MethodPost, srv.URL+"/transactions", "valid-token",
			`{"items":[{"book_id":"A","quantity":1}]}`)
	}

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/transactions?page=1&limit=5", "valid-token", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 5)

	meta := body["meta"].(map[string]any)
	assert.EqualValues(t, 1, meta["page"])
	assert.EqualValues(t, 7, meta["total"])
	assert.Nil(t, meta["prev_page"])
	assert.EqualValues(t, 2, meta["next_page"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/transactions?page=2&limit=5", "valid-token", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 2)
	meta = body["meta"].(map[string]any)
	assert.EqualValues(t, 1, meta["prev_page"])
	assert.Nil(t, meta["next_page"])
}

func TestGetTransactionDetail(t *testing.T) {
	store := newTxStore()
	store.addBook("A", "Book A", "10", 5)
	srv := newTestServer(store)
	defer srv.Close()

	_, created := doJSON(t, http.MethodPost, srv.URL+"/transactions", "valid-token",
		`{"items":[{"book_id":"A","quantity":2}]}`)
	id := created["data"].(map[string]any)["transaction_id"].(string)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/transactions/"+id, "valid-token", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, id, data["id"])
	assert.EqualValues(t, 2, data["total_quantity"])
	assert.EqualValues(t, 20, data["total_price"])
	items := data["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Book A", items[0].(map[string]any)["book_title"])
}

func TestGetTransactionDetailNotFound(t *testing.T) {
	srv := newTestServer(newTxStore())
	defer srv.Close()

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/transactions/missing", "valid-token", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}
