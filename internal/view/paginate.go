package view

// DefaultPageSize is the number of items per page
const DefaultPageSize = 10

// Page is one slice of a result list
type Page[T any] struct {
	Items      []T `json:"items"`
	Number     int `json:"page"`
	Size       int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Paginate returns page number (1-based) of items. Out of range numbers are
// clamped to the first or last page.
func Paginate[T any](items []T, number, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	start := (number - 1) * size
	end := min(start+size, total)
	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)

	return Page[T]{
		Items:      out,
		Number:     number,
		Size:       size,
		TotalItems: total,
		TotalPages: pages,
	}
}
