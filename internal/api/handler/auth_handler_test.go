package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"customer-directory/internal/api/handler"
	"customer-directory/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func newAuthHandler() *handler.AuthHandler {
	cfg := config.Config{}
	cfg.Server.Auth.JWTSecret = "test-secret"
	return handler.NewAuthHandler(cfg, testLogger)
}

func TestGenerateBearerToken(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h := newAuthHandler()
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewBufferString(`{"username":"tester"}`))
		rr := httptest.NewRecorder()

		h.GenerateBearerToken(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp map[string]string
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp["token"], "Bearer "))

		tokenString := strings.TrimPrefix(resp["token"], "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		assert.NoError(t, err)
		assert.True(t, token.Valid)

		claims, ok := token.Claims.(jwt.MapClaims)
		assert.True(t, ok)
		assert.Equal(t, "tester", claims["username"])
	})

	t.Run("Error_MissingUsername", func(t *testing.T) {
		h := newAuthHandler()
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewBufferString(`{}`))
		rr := httptest.NewRecorder()

		h.GenerateBearerToken(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Error_MalformedBody", func(t *testing.T) {
		h := newAuthHandler()
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewBufferString(`{"username":`))
		rr := httptest.NewRecorder()

		h.GenerateBearerToken(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
