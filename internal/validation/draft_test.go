package validation_test

import (
	"testing"

	"github.com/aaravmahajanofficial/productboard/internal/models"
	"github.com/aaravmahajanofficial/productboard/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		draft models.Draft
		want  models.ValidationResult
	}{
		{
			name:  "Valid Draft",
			draft: models.Draft{Name: "Widget", Weight: "2", Price: "9.99"},
			want:  models.ValidationResult{},
		},
		{
			name:  "Valid Draft With Spaces And Padding",
			draft: models.Draft{Name: "  Blue Widget ", Weight: " 0.5", Price: "10 "},
			want:  models.ValidationResult{},
		},
		{
			name:  "Everything Missing",
			draft: models.Draft{Name: "   "},
			want: models.ValidationResult{
				"name":   "Name is required.",
				"weight": "Weight is required.",
				"price":  "Price must be a positive number.",
			},
		},
		{
			name:  "Digits In Name",
			draft: models.Draft{Name: "123", Weight: "2", Price: "3"},
			want:  models.ValidationResult{"name": "Name must contain only letters."},
		},
		{
			name:  "Punctuation In Name",
			draft: models.Draft{Name: "Widget!", Weight: "2", Price: "3"},
			want:  models.ValidationResult{"name": "Name must contain only letters."},
		},
		{
			name:  "Zero Weight",
			draft: models.Draft{Name: "Widget", Weight: "0", Price: "3"},
			want:  models.ValidationResult{"weight": "Weight must be a positive number."},
		},
		{
			name:  "Negative Weight",
			draft: models.Draft{Name: "Widget", Weight: "-1", Price: "3"},
			want:  models.ValidationResult{"weight": "Weight must be a positive number."},
		},
		{
			name:  "Non Numeric Weight",
			draft: models.Draft{Name: "Widget", Weight: "heavy", Price: "3"},
			want:  models.ValidationResult{"weight": "Weight must be a positive number."},
		},
		{
			name:  "NaN Price",
			draft: models.Draft{Name: "Widget", Weight: "1", Price: "NaN"},
			want:  models.ValidationResult{"price": "Price must be a positive number."},
		},
		{
			name:  "Zero Price",
			draft: models.Draft{Name: "Widget", Weight: "1", Price: "0"},
			want:  models.ValidationResult{"price": "Price must be a positive number."},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := validation.Validate(tc.draft)

			assert.Equal(t, tc.want, got)
			assert.Equal(t, len(tc.want) == 0, got.Valid())
		})
	}
}

func TestPayload(t *testing.T) {
	v := validation.New()

	t.Run("Success - Parses Numbers", func(t *testing.T) {
		payload, result := v.Payload(models.Draft{Name: " Widget ", Weight: "2", Price: "9.99"})

		require.Nil(t, result)
		assert.Equal(t, models.ProductPayload{Name: "Widget", Weight: 2, Price: 9.99}, payload)
	})

	t.Run("Failure - Invalid Draft", func(t *testing.T) {
		payload, result := v.Payload(models.Draft{Name: "123", Weight: "2", Price: "1"})

		assert.Equal(t, models.ProductPayload{}, payload)
		assert.Contains(t, result, "name")
	})
}

func TestProduct(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Product(models.Product{ID: "1", Name: "Widget", Weight: 1, Price: 2}))

	err := v.Product(models.Product{Name: "Widget", Weight: 1, Price: 2})
	assert.Error(t, err)

	err = v.Product(models.Product{ID: "1", Name: "Widget", Weight: 0, Price: 2})
	assert.ErrorContains(t, err, "does not match schema")
}
