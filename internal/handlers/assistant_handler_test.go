package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssistantHandler_ChatWithGateway(t *testing.T) {
	env := newTestEnv(t, &routerGateway{answer: "Voici la procédure complète."})
	token := env.tokenFor(t, 1, "citizen", "fr")

	w := env.do(t, "POST", "/api/v1/assistant/chat", token, map[string]interface{}{
		"message": "Comment obtenir un passeport ?",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp chatResponse
	decodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.ConversationID)
	require.Equal(t, "Voici la procédure complète.", resp.Content)
	require.Equal(t, "ai", resp.Source)

	// both the question and the reply must be stored
	conv := env.do(t, "GET", "/api/v1/conversations/"+resp.ConversationID, token, nil)
	require.Equal(t, http.StatusOK, conv.Code)

	var stored struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	decodeJSON(t, conv, &stored)
	require.Len(t, stored.Messages, 2)
	require.Equal(t, "user", stored.Messages[0].Role)
	require.Equal(t, "assistant", stored.Messages[1].Role)
}

func TestAssistantHandler_ChatFallsBackWhenGatewayFails(t *testing.T) {
	env := newTestEnv(t, &routerGateway{err: fmt.Errorf("connection refused")})
	token := env.tokenFor(t, 1, "citizen", "fr")

	w := env.do(t, "POST", "/api/v1/assistant/chat", token, map[string]interface{}{
		"message": "Comment obtenir un acte de naissance ?",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp chatResponse
	decodeJSON(t, w, &resp)
	require.NotEqual(t, "ai", resp.Source)
	require.NotEmpty(t, resp.Content)
}

func TestAssistantHandler_ChatReusesConversation(t *testing.T) {
	env := newTestEnv(t, &routerGateway{answer: "D'accord."})
	token := env.tokenFor(t, 1, "citizen", "fr")

	w := env.do(t, "POST", "/api/v1/assistant/chat", token, map[string]interface{}{
		"message": "Bonjour",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var first chatResponse
	decodeJSON(t, w, &first)

	w = env.do(t, "POST", "/api/v1/assistant/chat", token, map[string]interface{}{
		"conversation_id": first.ConversationID,
		"message":         "Et pour un renouvellement ?",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var second chatResponse
	decodeJSON(t, w, &second)
	require.Equal(t, first.ConversationID, second.ConversationID)
}

func TestAssistantHandler_ChatUnknownConversation(t *testing.T) {
	env := newTestEnv(t, &routerGateway{answer: "ok"})
	token := env.tokenFor(t, 1, "citizen", "fr")

	w := env.do(t, "POST", "/api/v1/assistant/chat", token, map[string]interface{}{
		"conversation_id": "does-not-exist",
		"message":         "Bonjour",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssistantHandler_ChatRequiresMessage(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.tokenFor(t, 1, "citizen", "fr")

	w := env.do(t, "POST", "/api/v1/assistant/chat", token, map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssistantHandler_Status(t *testing.T) {
	env := newTestEnv(t, &routerGateway{answer: "ok"})
	token := env.tokenFor(t, 1, "citizen", "fr")

	w := env.do(t, "GET", "/api/v1/assistant/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	decodeJSON(t, w, &status)
	require.Equal(t, true, status["ai_enabled"])
	require.Contains(t, status, "answers_ai")
	require.Contains(t, status, "answers_fallback")
}
