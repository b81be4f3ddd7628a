package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation(t *testing.T) {
	tests := []struct {
		method, url, want string
	}{
		{http.MethodGet, "http://api/api/products", "list"},
		{http.MethodGet, "http://api/api/products/", "list"},
		{http.MethodGet, "http://api/api/products/abc", "get"},
		{http.MethodPost, "http://api/api/products", "create"},
		{http.MethodPut, "http://api/api/products/abc", "update"},
		{http.MethodDelete, "http://api/prefix/api/products/abc", "remove"},
		{http.MethodPatch, "http://api/api/products/abc", "patch"},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.url, nil)
		assert.Equal(t, tc.want, Operation(req), "%s %s", tc.method, tc.url)
	}
}

func TestTransport(t *testing.T) {
	respond := func(status int, err error) http.RoundTripper {
		return roundTripper(func(r *http.Request) (*http.Response, error) {
			if err != nil {
				return nil, err
			}
			return &http.Response{StatusCode: status, Body: http.NoBody, Request: r}, nil
		})
	}

	t.Run("Success", func(t *testing.T) {
		before := testutil.ToFloat64(syncRequestsTotal.WithLabelValues("create", OutcomeSuccess))

		_, err := Transport(respond(http.StatusCreated, nil)).RoundTrip(httptest.NewRequest(http.MethodPost, "http://api/api/products", nil))

		require.NoError(t, err)
		assert.Equal(t, before+1, testutil.ToFloat64(syncRequestsTotal.WithLabelValues("create", OutcomeSuccess)))
		assert.Equal(t, 0.0, testutil.ToFloat64(syncRequestsInFlight))
	})

	t.Run("Server Error", func(t *testing.T) {
		before := testutil.ToFloat64(syncRequestsTotal.WithLabelValues("update", OutcomeServerError))

		_, err := Transport(respond(http.StatusInternalServerError, nil)).RoundTrip(httptest.NewRequest(http.MethodPut, "http://api/api/products/1", nil))

		require.NoError(t, err)
		assert.Equal(t, before+1, testutil.ToFloat64(syncRequestsTotal.WithLabelValues("update", OutcomeServerError)))
	})

	t.Run("Transport Error", func(t *testing.T) {
		before := testutil.ToFloat64(syncRequestsTotal.WithLabelValues("list", OutcomeTransportError))

		_, err := Transport(respond(0, errors.New("refused"))).RoundTrip(httptest.NewRequest(http.MethodGet, "http://api/api/products", nil))

		require.Error(t, err)
		assert.Equal(t, before+1, testutil.ToFloat64(syncRequestsTotal.WithLabelValues("list", OutcomeTransportError)))
	})
}

func TestRecordRejected(t *testing.T) {
	before := testutil.ToFloat64(syncRejectedTotal.WithLabelValues("remove"))

	RecordRejected("remove")

	assert.Equal(t, before+1, testutil.ToFloat64(syncRejectedTotal.WithLabelValues("remove")))
}

func TestHandler(t *testing.T) {
	RecordRejected("update")

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "productboard_sync_rejected_total"))
}
