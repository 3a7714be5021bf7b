package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServiceHandler_AdminCreateThenPublicRead(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.tokenFor(t, 1, "admin", "fr")
	citizen := env.tokenFor(t, 2, "citizen", "fr")

	w := env.do(t, "POST", "/api/v1/admin/services", admin, map[string]interface{}{
		"id":       "svc_passport",
		"title_fr": "Passeport biométrique",
		"title_ar": "جواز السفر البيومتري",
		"category": "identite",
		"steps": []map[string]interface{}{
			{"order": 1, "title": "Dossier"},
			{"order": 2, "title": "Dépôt"},
		},
		"faq": []map[string]interface{}{
			{"question": "Quel est le délai ?", "answer": "Environ quinze jours."},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, "GET", "/api/v1/services/svc_passport", citizen, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var svc struct {
		ID    string `json:"id"`
		Steps []struct {
			Title string `json:"title"`
		} `json:"steps"`
		FAQ []struct {
			Question string `json:"question"`
		} `json:"faq"`
	}
	decodeJSON(t, w, &svc)
	require.Equal(t, "svc_passport", svc.ID)
	require.Len(t, svc.Steps, 2)
	require.Len(t, svc.FAQ, 1)

	w = env.do(t, "GET", "/api/v1/services?category=identite", citizen, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list PaginatedResponse
	decodeJSON(t, w, &list)
	require.EqualValues(t, 1, list.Total)
}

func TestServiceHandler_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.tokenFor(t, 1, "admin", "fr")

	w := env.do(t, "POST", "/api/v1/admin/services", admin, map[string]interface{}{
		"id":       "svc_permis",
		"title_fr": "Permis de conduire",
		"category": "transport",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "PUT", "/api/v1/admin/services/svc_permis", admin, map[string]interface{}{
		"title_fr": "Permis de conduire biométrique",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated struct {
		TitleFr string `json:"title_fr"`
	}
	decodeJSON(t, w, &updated)
	require.Equal(t, "Permis de conduire biométrique", updated.TitleFr)

	w = env.do(t, "DELETE", "/api/v1/admin/services/svc_permis", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/api/v1/services/svc_permis", admin, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestServiceHandler_GetMissing(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.tokenFor(t, 1, "citizen", "fr")

	w := env.do(t, "GET", "/api/v1/services/svc_absent", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
