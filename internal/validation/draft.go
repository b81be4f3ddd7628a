// Package validation checks drafts before they are submitted and products
// as they arrive from the API.
package validation

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/aaravmahajanofficial/productboard/internal/models"
	"github.com/go-playground/validator/v10"
)

var lettersAndSpaces = regexp.MustCompile(`^[a-zA-Z ]+$`)

// draftInput is the Draft after trimming, annotated for the validator.
type draftInput struct {
	Name   string `json:"name" validate:"required,alphaspace"`
	Weight string `json:"weight" validate:"required,positivenum"`
	Price  string `json:"price" validate:"required,positivenum"`
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
		return lettersAndSpaces.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("positivenum", func(fl validator.FieldLevel) bool {
		_, ok := parsePositive(fl.Field().String())
		return ok
	})

	return &Validator{validate: v}
}

var defaultValidator = New()

// Validate checks a draft with the package default validator.
func Validate(d models.Draft) models.ValidationResult {
	return defaultValidator.Validate(d)
}

// Validate returns one message per failing field. It never performs I/O.
func (v *Validator) Validate(d models.Draft) models.ValidationResult {
	input := draftInput{
		Name:   strings.TrimSpace(d.Name),
		Weight: strings.TrimSpace(d.Weight),
		Price:  strings.TrimSpace(d.Price),
	}

	result := models.ValidationResult{}

	err := v.validate.Struct(input)
	if err == nil {
		return result
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		slog.Error("Unexpected validation error", slog.String("error", err.Error()))
		result[models.FieldName] = "Draft could not be validated."
		return result
	}

	for _, fe := range validationErrs {
		// the first failing tag per field wins
		if _, seen := result[fe.Field()]; seen {
			continue
		}
		result[fe.Field()] = message(fe)
	}

	return result
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case models.FieldName:
		if fe.Tag() == "required" {
			return "Name is required."
		}
		return "Name must contain only letters."
	case models.FieldWeight:
		if fe.Tag() == "required" {
			return "Weight is required."
		}
		return "Weight must be a positive number."
	case models.FieldPrice:
		return "Price must be a positive number."
	default:
		return fmt.Sprintf("Field %s is invalid: %s", fe.Field(), fe.Tag())
	}
}

// Payload converts a draft into the wire body. It fails with the validation
// result when the draft is not valid.
func (v *Validator) Payload(d models.Draft) (models.ProductPayload, models.ValidationResult) {
	if result := v.Validate(d); !result.Valid() {
		return models.ProductPayload{}, result
	}

	weight, _ := parsePositive(strings.TrimSpace(d.Weight))
	price, _ := parsePositive(strings.TrimSpace(d.Price))

	return models.ProductPayload{
		Name:   strings.TrimSpace(d.Name),
		Weight: weight,
		Price:  price,
	}, nil
}

// Product checks a decoded server product against the product schema.
func (v *Validator) Product(p models.Product) error {
	if err := v.validate.Struct(p); err != nil {
		return fmt.Errorf("product %q does not match schema: %w", p.ID, err)
	}

	return nil
}

func parsePositive(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, f > 0
}
