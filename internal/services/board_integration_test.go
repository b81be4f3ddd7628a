package service_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	appErrors "github.com/aaravmahajanofficial/productboard/internal/errors"
	"github.com/aaravmahajanofficial/productboard/internal/models"
	repository "github.com/aaravmahajanofficial/productboard/internal/repositories"
	service "github.com/aaravmahajanofficial/productboard/internal/services"
	"github.com/aaravmahajanofficial/productboard/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLiveBoard(t *testing.T) (service.BoardService, *testutils.FakeAPI) {
	t.Helper()

	api := testutils.NewFakeAPI()
	t.Cleanup(api.Close)

	repo := repository.NewProductRepo(repository.NewHTTPClient(5*time.Second), api.URL())

	return service.NewBoardService(repo, nil, service.BoardOptions{ItemsPerPage: 5}), api
}

func TestBoardAgainstAPI(t *testing.T) {
	ctx := t.Context()

	t.Run("Create Then Display", func(t *testing.T) {
		// Arrange
		board, api := setupLiveBoard(t)
		_, err := board.Refresh(ctx)
		require.NoError(t, err)

		// Act
		product, err := board.Create(ctx, models.Draft{Name: "Widget", Weight: "2", Price: "9.99"})

		// Assert
		require.NoError(t, err)
		assert.NotEmpty(t, product.ID)
		assert.Len(t, api.Products(), 1)

		page := board.Page()
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Widget", page.Items[0].Name)
		assert.Equal(t, 2.0, page.Items[0].Weight)
		assert.Equal(t, 9.99, page.Items[0].Price)
	})

	t.Run("Twelve Products Span Three Pages", func(t *testing.T) {
		// Arrange
		board, api := setupLiveBoard(t)
		names := make([]string, 12)
		for i := range names {
			names[i] = fmt.Sprintf("Product %d", i+1)
		}
		api.Seed(names...)

		// Act
		_, err := board.Refresh(ctx)
		require.NoError(t, err)
		board.NextPage()
		board.NextPage()

		// Assert
		page := board.Page()
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 3, page.Page)
		assert.Len(t, page.Items, 2)
		assert.False(t, page.HasNext())
	})

	t.Run("Delete Removes From List And Views", func(t *testing.T) {
		// Arrange
		board, api := setupLiveBoard(t)
		seeded := api.Seed("Alpha", "Beta", "Gamma")
		_, err := board.Refresh(ctx)
		require.NoError(t, err)

		// Act
		err = board.Remove(ctx, seeded[1].ID)

		// Assert
		require.NoError(t, err)
		assert.Len(t, api.Products(), 2)
		_, err = board.Show(seeded[1].ID)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNotFound))
		for _, p := range board.Page().Items {
			assert.NotEqual(t, seeded[1].ID, p.ID)
		}
	})

	t.Run("Invalid Draft Sends Nothing", func(t *testing.T) {
		// Arrange
		board, api := setupLiveBoard(t)

		// Act
		_, err := board.Create(ctx, models.Draft{Name: "123", Weight: "2", Price: "3"})

		// Assert
		var draftErr *appErrors.DraftValidationError
		require.ErrorAs(t, err, &draftErr)
		assert.Equal(t, "Name must contain only letters.", draftErr.Fields[models.FieldName])
		assert.Zero(t, api.Calls())
	})

	t.Run("Edit Through Submit", func(t *testing.T) {
		// Arrange
		board, api := setupLiveBoard(t)
		seeded := api.Seed("Alpha")
		_, err := board.Refresh(ctx)
		require.NoError(t, err)
		require.NoError(t, board.BeginEdit(seeded[0].ID))
		require.NoError(t, board.SetDraftField(models.FieldName, "Omega"))

		// Act
		product, err := board.Submit(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Omega", product.Name)
		assert.Equal(t, "Omega", api.Products()[0].Name)
		assert.False(t, board.State().Draft.IsEditing())
	})

	t.Run("Server Failure Shows Banner And Empties List", func(t *testing.T) {
		// Arrange
		board, api := setupLiveBoard(t)
		api.Seed("Alpha")
		_, err := board.Refresh(ctx)
		require.NoError(t, err)
		api.FailNext(http.StatusInternalServerError)

		// Act
		products, err := board.Refresh(ctx)

		// Assert
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeServer))
		assert.Empty(t, products)
		assert.Empty(t, board.State().Products)
		assert.NotEmpty(t, board.State().LastError)

		_, err = board.Refresh(ctx)
		require.NoError(t, err)
		assert.Empty(t, board.State().LastError)
		assert.Len(t, board.State().Products, 1)
	})
}
