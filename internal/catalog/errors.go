package catalog

import "errors"

var (
	ErrGenreNotFound  = errors.New("genre not found")
	ErrBookNotFound   = errors.New("book not found")
	ErrDuplicateGenre = errors.New("genre already exists")
	ErrDuplicateBook  = errors.New("book with this title already exists")
)
