package rafiqai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newLegacyTestClient(t *testing.T, handler http.Handler, mode string) *LegacyClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw := New(&Config{
		BaseURL:     server.URL,
		Style:       StyleLegacy,
		Timeout:     2 * time.Second,
		PayloadMode: mode,
	}, quietLogger())
	client, ok := gw.(*LegacyClient)
	if !ok {
		t.Fatalf("expected *LegacyClient, got %T", gw)
	}
	return client
}

func TestLegacyClient_JSONPayload(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// text, prompt and message carry the same composed prompt.
		if req.Text == "" || req.Text != req.Prompt || req.Prompt != req.Message {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"analysis": "réponse analysée"})
	})

	client := newLegacyTestClient(t, handler, PayloadJSON)
	answer, err := client.Chat(context.Background(), "", []Message{{Role: "user", Content: "question"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if answer != "réponse analysée" {
		t.Errorf("answer = %q", answer)
	}
}

func TestLegacyClient_FilePayload(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		json.NewEncoder(w).Encode(map[string]string{"response": "depuis fichier"})
	})

	client := newLegacyTestClient(t, handler, PayloadFile)
	answer, err := client.Chat(context.Background(), "", []Message{{Role: "user", Content: "question"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if answer != "depuis fichier" {
		t.Errorf("answer = %q", answer)
	}
}

func TestLegacyClient_AutoFallsBackToJSON(t *testing.T) {
	var jsonCalls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			// Endpoint that never understood uploads.
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("cannot parse form"))
			return
		}
		atomic.AddInt32(&jsonCalls, 1)
		json.NewEncoder(w).Encode(map[string]string{"answer": "via json"})
	})

	client := newLegacyTestClient(t, handler, PayloadAuto)
	answer, err := client.Chat(context.Background(), "", []Message{{Role: "user", Content: "question"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if answer != "via json" {
		t.Errorf("answer = %q", answer)
	}
	if atomic.LoadInt32(&jsonCalls) != 1 {
		t.Error("expected JSON retry after multipart rejection")
	}
}

func TestLegacyClient_RawTextResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("réponse brute"))
	})

	client := newLegacyTestClient(t, handler, PayloadJSON)
	answer, err := client.Chat(context.Background(), "", []Message{{Role: "user", Content: "q"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if answer != "réponse brute" {
		t.Errorf("answer = %q", answer)
	}
}

func TestLegacyClient_UnrecognizedAnswerIsSoftFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	client := newLegacyTestClient(t, handler, PayloadJSON)
	_, err := client.Chat(context.Background(), "", []Message{{Role: "user", Content: "q"}})
	if err == nil {
		t.Fatal("expected soft failure for answer-less payload")
	}
}

func TestLegacyClient_NotConfigured(t *testing.T) {
	gw := New(&Config{Style: StyleLegacy}, quietLogger())
	if _, err := gw.Chat(context.Background(), "", nil); err != ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if err := gw.TestConnection(context.Background()); err != ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestShouldRetryAsJSON(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"parse error", context.DeadlineExceeded, false},
		{"status 400", errString("AI API error [400]: bad form"), true},
		{"parsing message", errString("cannot Parse multipart body"), true},
		{"server error", errString("AI API error [500]: boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetryAsJSON(tt.err); got != tt.want {
				t.Errorf("shouldRetryAsJSON(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
