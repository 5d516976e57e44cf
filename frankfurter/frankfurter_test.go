package frankfurter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenqin/folio"
)

func TestFetchRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("from"))
		assert.Equal(t, "CNY", r.URL.Query().Get("to"))
		w.Write([]byte(`{"amount":1.0,"base":"USD","rates":{"CNY":7.1845}}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	rate, err := c.FetchRate(context.Background(), "USD", "CNY")
	require.NoError(t, err)
	assert.Equal(t, "7.1845", rate.String())
}

func TestFetchRate_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"server error", "", http.StatusBadGateway},
		{"missing quote currency", `{"rates":{"EUR":0.93}}`, http.StatusOK},
		{"non positive rate", `{"rates":{"CNY":0}}`, http.StatusOK},
		{"garbage payload", `not json`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(WithBaseURL(srv.URL)).FetchRate(context.Background(), "USD", "CNY")
			require.Error(t, err)
			if tt.name != "garbage payload" {
				assert.True(t, errors.Is(err, folio.ErrDataUnavailable), "err = %v", err)
			}
		})
	}
}
