package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/nadfk/pweb-reactjs-p01-2025/internal/catalog"
)

// CatalogHandler exposes the genre and book write paths plus detail reads.
// The generic paginated list endpoints are intentionally absent.
type CatalogHandler struct {
	Repo   *catalog.Repo
	Tokens TokenVerifier
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Tokens))
		r.Post("/genre", h.createGenre)
		r.Patch("/genre/{id}", h.updateGenre)
		r.Delete("/genre/{id}", h.deleteGenre)
		r.Post("/books", h.createBook)
		r.Get("/books/{id}", h.getBook)
		r.Patch("/books/{id}", h.updateBook)
		r.Delete("/books/{id}", h.deleteBook)
	})
	// Genre detail is public, like the reference API.
	r.Get("/genre/{id}", h.getGenre)
}

func (h *CatalogHandler) createGenre(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	g, err := h.Repo.CreateGenre(r.Context(), req.Name)
	if errors.Is(err, catalog.ErrDuplicateGenre) {
		writeError(w, http.StatusConflict, "Genre already exists")
		return
	}
	if err != nil {
		h.internal(w, err, "create genre")
		return
	}
	writeSuccess(w, http.StatusCreated, "Genre created successfully", genreJSON(g))
}

func (h *CatalogHandler) getGenre(w http.ResponseWriter, r *http.Request) {
	g, err := h.Repo.GetGenre(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrGenreNotFound) {
		writeError(w, http.StatusNotFound, "Genre not found")
		return
	}
	if err != nil {
		h.internal(w, err, "get genre")
		return
	}
	writeSuccess(w, http.StatusOK, "Get genre detail successfully", genreJSON(g))
}

func (h *CatalogHandler) updateGenre(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	g, err := h.Repo.UpdateGenre(r.Context(), chi.URLParam(r, "id"), req.Name)
	if errors.Is(err, catalog.ErrGenreNotFound) {
		writeError(w, http.StatusNotFound, "Genre not found")
		return
	}
	if err != nil {
		h.internal(w, err, "update genre")
		return
	}
	writeSuccess(w, http.StatusOK, "Genre updated successfully", genreJSON(g))
}

func (h *CatalogHandler) deleteGenre(w http.ResponseWriter, r *http.Request) {
	err := h.Repo.SoftDeleteGenre(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrGenreNotFound) {
		writeError(w, http.StatusNotFound, "Genre not found")
		return
	}
	if err != nil {
		h.internal(w, err, "delete genre")
		return
	}
	writeSuccess(w, http.StatusOK, "Genre removed successfully", nil)
}

type bookReq struct {
	Title           string       `json:"title"`
	Writer          string       `json:"writer"`
	Publisher       string       `json:"publisher"`
	PublicationYear int          `json:"publication_year"`
	Description     *string      `json:"description"`
	Price           *json.Number `json:"price"`
	StockQuantity   *int         `json:"stock_quantity"`
	GenreID         string       `json:"genre_id"`
}

func (h *CatalogHandler) createBook(w http.ResponseWriter, r *http.Request) {
	var req bookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Title == "" || req.Writer == "" || req.Publisher == "" || req.PublicationYear == 0 ||
		req.Price == nil || req.StockQuantity == nil || req.GenreID == "" {
		writeError(w, http.StatusBadRequest, "All fields except description are required")
		return
	}
	price, err := decimal.NewFromString(req.Price.String())
	if err != nil || price.IsNegative() {
		writeError(w, http.StatusBadRequest, "Price must be a non-negative number")
		return
	}
	if *req.StockQuantity < 0 {
		writeError(w, http.StatusBadRequest, "Stock quantity must be non-negative")
		return
	}
	b, err := h.Repo.CreateBook(r.Context(), catalog.Book{
		Title:           req.Title,
		Writer:          req.Writer,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		Description:     req.Description,
		Price:           price,
		StockQuantity:   *req.StockQuantity,
		GenreID:         req.GenreID,
	})
	switch {
	case errors.Is(err, catalog.ErrDuplicateBook):
		writeError(w, http.StatusConflict, "Book with this title already exists")
		return
	case errors.Is(err, catalog.ErrGenreNotFound):
		writeError(w, http.StatusNotFound, "Genre not found")
		return
	case err != nil:
		h.internal(w, err, "create book")
		return
	}
	writeSuccess(w, http.StatusCreated, "Book added successfully", bookJSON(b))
}

func (h *CatalogHandler) getBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.Repo.GetBook(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrBookNotFound) {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		h.internal(w, err, "get book")
		return
	}
	writeSuccess(w, http.StatusOK, "Get book detail successfully", bookJSON(b))
}

func (h *CatalogHandler) updateBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description   *string      `json:"description"`
		Price         *json.Number `json:"price"`
		StockQuantity *int         `json:"stock_quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	patch := catalog.BookPatch{Description: req.Description, StockQuantity: req.StockQuantity}
	if req.Price != nil {
		price, err := decimal.NewFromString(req.Price.String())
		if err != nil || price.IsNegative() {
			writeError(w, http.StatusBadRequest, "Price must be a non-negative number")
			return
		}
		patch.Price = &price
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		writeError(w, http.StatusBadRequest, "Stock quantity must be non-negative")
		return
	}
	b, err := h.Repo.UpdateBook(r.Context(), chi.URLParam(r, "id"), patch)
	if errors.Is(err, catalog.ErrBookNotFound) {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		h.internal(w, err, "update book")
		return
	}
	writeSuccess(w, http.StatusOK, "Book updated successfully", bookJSON(b))
}

func (h *CatalogHandler) deleteBook(w http.ResponseWriter, r *http.Request) {
	err := h.Repo.SoftDeleteBook(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrBookNotFound) {
		writeError(w, http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		h.internal(w, err, "delete book")
		return
	}
	writeSuccess(w, http.StatusOK, "Book removed successfully", nil)
}

func (h *CatalogHandler) internal(w http.ResponseWriter, err error, op string) {
	log.Error().Err(err).Str("op", op).Msg("catalog operation failed")
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func genreJSON(g catalog.Genre) map[string]any {
	return map[string]any{"id": g.ID, "name": g.Name}
}

func bookJSON(b catalog.Book) map[string]any {
	return map[string]any{
		"id":               b.ID,
		"title":            b.Title,
		"writer":           b.Writer,
		"publisher":        b.Publisher,
		"publication_year": b.PublicationYear,
		"description":      b.Description,
		"price":            b.Price.InexactFloat64(),
		"stock_quantity":   b.StockQuantity,
		"genre_id":         b.GenreID,
	}
}
