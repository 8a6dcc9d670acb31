package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nsyszr/toybroker/config"
	"github.com/nsyszr/toybroker/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		DeveloperToken: "dev-token-0123456789",
		APIBaseURL:     "http://127.0.0.1:1",
		RouterMode:     "hybrid",
		TokenScope:     "process",
		DefaultUID:     "default",
	}
}

func TestNewBrokerDefaults(t *testing.T) {
	c := testConfig()
	b, err := NewBroker(c)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "memory", c.Storage)
	assert.NotNil(t, b.mem)
	assert.Nil(t, b.nc)
	assert.Equal(t, router.ModeHybrid, b.router.Mode())
	assert.NotNil(t, b.Controller())
}

func TestNewBrokerRejectsBadConfig(t *testing.T) {
	for name, mutate := range map[string]func(*config.Config){
		"mode":    func(c *config.Config) { c.RouterMode = "carrier-pigeon" },
		"scope":   func(c *config.Config) { c.TokenScope = "galaxy" },
		"storage": func(c *config.Config) { c.Storage = "floppy" },
		"direct":  func(c *config.Config) { c.RouterMode = "direct" },
	} {
		c := testConfig()
		mutate(c)
		_, err := NewBroker(c)
		assert.Error(t, err, name)
	}
}

func TestServerRoutes(t *testing.T) {
	c := testConfig()
	s, err := newBrokerServer(c)
	require.NoError(t, err)
	defer s.broker.Close()

	e := s.newEcho()

	req := httptest.NewRequest(http.MethodPost, "/lovense/callback",
		strings.NewReader(`{"uid":"alice","domain":"10-0-0-2.lovense.club","httpsPort":30010}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/toys", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestMaskedDeveloperToken(t *testing.T) {
	c := &config.Config{DeveloperToken: "abcd1234secretwxyz"}
	assert.Equal(t, "abcd1234...wxyz", c.MaskedDeveloperToken())

	c.DeveloperToken = "short"
	assert.Equal(t, "****", c.MaskedDeveloperToken())
}
