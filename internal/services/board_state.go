package service

import (
	"maps"
	"slices"
	"strconv"

	"github.com/aaravmahajanofficial/productboard/internal/models"
	"github.com/aaravmahajanofficial/productboard/internal/view"
)

// State is one immutable snapshot of the board. Reduce always returns a new
// value and never writes through the slices or maps of its input.
type State struct {
	Products []models.Product        `json:"products"`
	Draft    models.Draft            `json:"draft"`
	Errors   models.ValidationResult `json:"errors"`
	View     models.ViewState        `json:"view"`
	// LastError is the message of the most recent failed sync, cleared by the
	// next successful one.
	LastError string `json:"lastError,omitempty"`
}

func NewState(itemsPerPage int) State {
	if itemsPerPage <= 0 {
		itemsPerPage = models.DefaultItemsPerPage
	}

	return State{
		Products: []models.Product{},
		Errors:   models.ValidationResult{},
		View:     models.ViewState{CurrentPage: 1, ItemsPerPage: itemsPerPage},
	}
}

// Page derives the visible slice for this snapshot.
func (s State) Page() models.Page {
	return view.Derive(s.Products, s.View)
}

// Find returns the product with the given id from the cached list.
func (s State) Find(id string) (models.Product, bool) {
	i := slices.IndexFunc(s.Products, func(p models.Product) bool { return p.ID == id })
	if i < 0 {
		return models.Product{}, false
	}

	return s.Products[i], true
}

type Action interface {
	isAction()
}

type (
	SetSearch struct {
		Term      string
		ResetPage bool
	}
	NextPage      struct{}
	PreviousPage  struct{}
	GoToPage      struct{ Page int }
	SetDraftField struct{ Field, Value string }
	BeginEdit     struct{ ID string }
	CancelEdit    struct{}

	ProductsLoaded struct{ Products []models.Product }
	ProductCreated struct{ Product models.Product }
	ProductUpdated struct {
		// ID is the product sent for update; empty means Product.ID.
		ID      string
		Product models.Product
	}
	ProductRemoved struct{ ID string }
	// DraftValidated carries the result of every submit attempt, valid or not.
	DraftValidated struct{ Result models.ValidationResult }
	SyncFailed     struct {
		Message string
		// ClearProducts empties the cached list; set when a list call fails.
		ClearProducts bool
	}
)

func (SetSearch) isAction()      {}
func (NextPage) isAction()       {}
func (PreviousPage) isAction()   {}
func (GoToPage) isAction()       {}
func (SetDraftField) isAction()  {}
func (BeginEdit) isAction()      {}
func (CancelEdit) isAction()     {}
func (ProductsLoaded) isAction() {}
func (ProductCreated) isAction() {}
func (ProductUpdated) isAction() {}
func (ProductRemoved) isAction() {}
func (DraftValidated) isAction() {}
func (SyncFailed) isAction()     {}

// Reduce applies a to s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {

	case SetSearch:
		s.View.SearchTerm = a.Term
		if a.ResetPage {
			s.View.CurrentPage = 1
		}

	case NextPage:
		s.View.CurrentPage = view.NextPage(s.View.CurrentPage, s.totalPages())

	case PreviousPage:
		s.View.CurrentPage = view.PreviousPage(s.View.CurrentPage)

	case GoToPage:
		s.View.CurrentPage = view.ClampPage(a.Page, s.totalPages())

	case SetDraftField:
		switch a.Field {
		case models.FieldName:
			s.Draft.Name = a.Value
		case models.FieldWeight:
			s.Draft.Weight = a.Value
		case models.FieldPrice:
			s.Draft.Price = a.Value
		}

	case BeginEdit:
		p, ok := s.Find(a.ID)
		if !ok {
			return s
		}
		s.Draft = draftFrom(p)
		s.Errors = models.ValidationResult{}

	case CancelEdit:
		s.Draft = models.Draft{}
		s.Errors = models.ValidationResult{}

	case ProductsLoaded:
		s.Products = slices.Clone(a.Products)
		if s.Products == nil {
			s.Products = []models.Product{}
		}
		s.LastError = ""

	case ProductCreated:
		s.Products = append(slices.Clone(s.Products), a.Product)
		if !s.Draft.IsEditing() {
			s.Draft = models.Draft{}
			s.Errors = models.ValidationResult{}
		}
		s.LastError = ""

	case ProductUpdated:
		id := a.ID
		if id == "" {
			id = a.Product.ID
		}
		products := slices.Clone(s.Products)
		for i := range products {
			if products[i].ID == id {
				products[i] = a.Product
			}
		}
		s.Products = products
		// only unbind if the user is still editing this product
		if s.Draft.EditingID == id {
			s.Draft = models.Draft{}
			s.Errors = models.ValidationResult{}
		}
		s.LastError = ""

	case ProductRemoved:
		s.Products = slices.DeleteFunc(slices.Clone(s.Products), func(p models.Product) bool { return p.ID == a.ID })
		if s.Draft.EditingID == a.ID {
			s.Draft = models.Draft{}
			s.Errors = models.ValidationResult{}
		}
		s.LastError = ""

	case DraftValidated:
		s.Errors = maps.Clone(a.Result)
		if s.Errors == nil {
			s.Errors = models.ValidationResult{}
		}

	case SyncFailed:
		s.LastError = a.Message
		if a.ClearProducts {
			s.Products = []models.Product{}
		}
	}

	return s
}

func (s State) totalPages() int {
	return view.TotalPages(len(view.Filter(s.Products, s.View.SearchTerm)), s.View.ItemsPerPage)
}

func draftFrom(p models.Product) models.Draft {
	return models.Draft{
		Name:      p.Name,
		Weight:    strconv.FormatFloat(p.Weight, 'f', -1, 64),
		Price:     strconv.FormatFloat(p.Price, 'f', -1, 64),
		EditingID: p.ID,
	}
}
