package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/xhad/medisimplify/pkg/llm"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens int `json:"max_tokens"`
}

func TestOpenAIModel_GenerateContent(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "- Your heart is enlarged."},
				"finish_reason": "stop",
			}},
		})
	}))
	defer srv.Close()

	model := llm.NewOpenAIModel("sk-test", srv.URL+"/v1/", "local-model")
	resp, err := model.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, "be kind"),
		llms.TextParts(llms.ChatMessageTypeHuman, "simplify this"),
	}, llms.WithMaxTokens(300))
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "- Your heart is enlarged.", resp.Choices[0].Content)
	assert.Equal(t, "stop", resp.Choices[0].StopReason)

	assert.Equal(t, "local-model", got.Model)
	assert.Equal(t, 300, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "simplify this", got.Messages[1].Content)
}

func TestOpenAIModel_ThroughEngine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "Plain words."},
				"finish_reason": "stop",
			}},
		})
	}))
	defer srv.Close()

	engine, err := llm.NewWithConfig(context.Background(), llm.ChatConfig{
		Provider: llm.ProviderOpenAI,
		APIKey:   "sk-test",
		BaseURL:  srv.URL + "/v1",
		Model:    "local-model",
	})
	require.NoError(t, err)

	got, err := engine.Simplify(context.Background(), "Hypertension stage 2")
	require.NoError(t, err)
	assert.Equal(t, "Plain words.", got)
}

func TestOpenAIModel_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	model := llm.NewOpenAIModel("bad", srv.URL+"/v1", "m")
	_, err := model.Call(context.Background(), "Hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}
