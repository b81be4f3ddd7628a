package models

const DefaultItemsPerPage = 5

// ViewState is the search and paging input of the board.
type ViewState struct {
	SearchTerm   string `json:"searchTerm"`
	CurrentPage  int    `json:"currentPage"`
	ItemsPerPage int    `json:"itemsPerPage"`
}

// Page is the visible slice of the filtered product list.
type Page struct {
	Items      []Product `json:"data"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
	TotalItems int       `json:"total"`
}

func (p Page) HasNext() bool {
	return p.Page < p.TotalPages
}

func (p Page) HasPrevious() bool {
	return p.Page > 1
}
