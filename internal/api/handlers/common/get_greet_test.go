package common_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/test"
)

func TestGetGreet(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		tests := []struct {
			path string
			want string
		}{
			{"/api/v1/greet?name=Alice", "Hello, Alice!"},
			{"/api/v1/greet?name=", "Hello, !"},
			{"/api/v1/greet", "Hello, !"},
		}

		for _, tt := range tests {
			res := test.PerformRequest(t, s, "GET", tt.path, nil, nil)
			require.Equal(t, http.StatusOK, res.Result().StatusCode, tt.path)
			assert.Equal(t, tt.want, res.Body.String(), tt.path)
		}
	})
}
