package server_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/victornm/asking/internal/server"
)

func TestInit(t *testing.T) {
	tests := map[string]struct {
		config  func(t *testing.T, c *server.Config)
		wantErr bool
	}{
		"memory store": {
			config: func(*testing.T, *server.Config) {},
		},
		"redis store": {
			config: func(t *testing.T, c *server.Config) {
				c.Leaderboard.Store = server.StoreRedis
				c.Redis.Addrs = []string{miniredis.RunT(t).Addr()}
			},
		},
		"sqlite store": {
			config: func(t *testing.T, c *server.Config) {
				c.Leaderboard.Store = server.StoreSQLite
				c.SQLite.Path = filepath.Join(t.TempDir(), "asking.db")
			},
		},
		"redis store without redis": {
			config: func(_ *testing.T, c *server.Config) {
				c.Leaderboard.Store = server.StoreRedis
			},
			wantErr: true,
		},
		"unknown store": {
			config: func(_ *testing.T, c *server.Config) {
				c.Leaderboard.Store = "firestore"
			},
			wantErr: true,
		},
		"missing secret": {
			config: func(_ *testing.T, c *server.Config) {
				c.Identity.Secret = ""
			},
			wantErr: true,
		},
		"missing bank file": {
			config: func(t *testing.T, c *server.Config) {
				c.Quiz.BankFile = filepath.Join(t.TempDir(), "bank.yaml")
			},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := makeConfig()
			tt.config(t, &c)

			s, err := server.Init(c)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(s.Shutdown)

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		})
	}
}

func TestHealthz_Unhealthy(t *testing.T) {
	rs := miniredis.RunT(t)

	c := makeConfig()
	c.Redis.Addrs = []string{rs.Addr()}

	s, err := server.Init(c)
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)

	rs.Close()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), `"redis"`)
}

func TestCORS(t *testing.T) {
	c := makeConfig()
	c.HTTP.CORSOrigins = []string{"http://localhost:3000"}

	s, err := server.Init(c)
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)

	req := httptest.NewRequest(http.MethodOptions, "/v1/leaderboard", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func makeConfig() server.Config {
	c := server.DefaultConfig()
	c.Identity.Secret = "test-secret"
	c.HTTP.Port = 0
	c.GRPC.Port = 0
	return c
}
