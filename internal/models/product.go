package models

import (
	"encoding/json"
	"time"
)

// Product is the server-owned inventory record. The API may name the
// identifier either "_id" or "id".
type Product struct {
	ID        string    `json:"_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Weight    float64   `json:"weight" validate:"gt=0"`
	Price     float64   `json:"price" validate:"gt=0"`
	CreatedAt time.Time `json:"createdAt"`
}

type productWire struct {
	MongoID   string    `json:"_id"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Weight    float64   `json:"weight"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var w productWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	p.ID = w.MongoID
	if p.ID == "" {
		p.ID = w.ID
	}
	p.Name = w.Name
	p.Weight = w.Weight
	p.Price = w.Price
	p.CreatedAt = w.CreatedAt

	return nil
}

// ProductPayload is the body sent on create and update.
type ProductPayload struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Price  float64 `json:"price"`
}

// Draft stages a new product or an edit of an existing one. Fields hold raw
// user input; EditingID is empty in create mode.
type Draft struct {
	Name      string `json:"name"`
	Weight    string `json:"weight"`
	Price     string `json:"price"`
	EditingID string `json:"-"`
}

func (d Draft) IsEditing() bool {
	return d.EditingID != ""
}

const (
	FieldName   = "name"
	FieldWeight = "weight"
	FieldPrice  = "price"
)

// ValidationResult maps a field name to its error message. Empty means valid.
type ValidationResult map[string]string

func (v ValidationResult) Valid() bool {
	return len(v) == 0
}
