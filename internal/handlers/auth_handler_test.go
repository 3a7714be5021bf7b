package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthHandler_RegisterLoginMe(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"email":    "Amina@Example.dz",
		"password": "motdepasse",
		"name":     "Amina",
		"language": "ar",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered tokenResponse
	decodeJSON(t, w, &registered)
	require.NotEmpty(t, registered.Token)

	w = env.do(t, "POST", "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "amina@example.dz",
		"password": "motdepasse",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var logged tokenResponse
	decodeJSON(t, w, &logged)
	require.NotEmpty(t, logged.Token)

	w = env.do(t, "GET", "/api/v1/auth/me", logged.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var me map[string]interface{}
	decodeJSON(t, w, &me)
	require.Equal(t, "amina@example.dz", me["email"])
	require.Equal(t, "ar", me["language"])
}

func TestAuthHandler_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	payload := map[string]interface{}{
		"email":    "karim@example.dz",
		"password": "motdepasse",
	}

	w := env.do(t, "POST", "/api/v1/auth/register", "", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "POST", "/api/v1/auth/register", "", payload)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_WrongPassword(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"email":    "yacine@example.dz",
		"password": "motdepasse",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "POST", "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "yacine@example.dz",
		"password": "mauvais-mot-de-passe",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RejectsShortPassword(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"email":    "short@example.dz",
		"password": "abc",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
