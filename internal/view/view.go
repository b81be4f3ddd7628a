// Package view derives the visible slice of the board from the cached
// product list. Every function here is pure.
package view

import (
	"strings"
	"time"

	"github.com/aaravmahajanofficial/productboard/internal/models"
)

const createdAtLayout = "2006-01-02 15:04:05"

// Filter keeps the products whose name contains term, ignoring case.
// An empty term returns products as is.
func Filter(products []models.Product, term string) []models.Product {
	if term == "" {
		return products
	}

	needle := strings.ToLower(term)
	filtered := make([]models.Product, 0, len(products))

	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			filtered = append(filtered, p)
		}
	}

	return filtered
}

// TotalPages is ceil(n/pageSize), never less than 1.
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 || n <= 0 {
		return 1
	}

	return (n + pageSize - 1) / pageSize
}

// ClampPage pins page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}

	return max(1, min(page, totalPages))
}

// Paginate returns items [(page-1)*pageSize, page*pageSize). A page past the
// end yields an empty slice rather than being clamped.
func Paginate(list []models.Product, page, pageSize int) models.Page {
	if pageSize <= 0 {
		pageSize = models.DefaultItemsPerPage
	}
	if page < 1 {
		page = 1
	}

	result := models.Page{
		Items:      []models.Product{},
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(len(list), pageSize),
		TotalItems: len(list),
	}

	start := (page - 1) * pageSize
	if start >= len(list) {
		return result
	}

	end := min(start+pageSize, len(list))
	result.Items = list[start:end]

	return result
}

// Derive runs Filter then Paginate for the given view state.
func Derive(products []models.Product, vs models.ViewState) models.Page {
	return Paginate(Filter(products, vs.SearchTerm), vs.CurrentPage, vs.ItemsPerPage)
}

// NextPage advances one page unless already on the last one.
func NextPage(current, totalPages int) int {
	if current < totalPages {
		return current + 1
	}

	return current
}

// PreviousPage goes back one page unless already on the first one.
func PreviousPage(current int) int {
	if current > 1 {
		return current - 1
	}

	return current
}

// FormatCreatedAt renders a timestamp as "YYYY-MM-DD HH:MM:SS" in UTC.
func FormatCreatedAt(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.UTC().Format(createdAtLayout)
}
