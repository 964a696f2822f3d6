package identify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pricelens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel serves /v1/chat/completions with a fixed assistant answer and
// keeps the last request body.
type fakeModel struct {
	answer string
	status int
	last   map[string]interface{}
}

func (f *fakeModel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	json.NewDecoder(r.Body).Decode(&f.last)

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		w.Write([]byte(`{"error": {"message": "upstream overloaded", "type": "server_error"}}`))
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]interface{}{"role": "assistant", "content": f.answer},
		}},
	})
}

func newFakeClient(t *testing.T, model *fakeModel) *Client {
	t.Helper()
	server := httptest.NewServer(model)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: server.URL + "/v1", Timeout: 5 * time.Second})
}

// userContent returns the user message of the recorded request
func (f *fakeModel) userContent(t *testing.T) interface{} {
	t.Helper()
	messages, ok := f.last["messages"].([]interface{})
	require.True(t, ok, "messages missing from request")
	require.Len(t, messages, 2)
	user := messages[1].(map[string]interface{})
	assert.Equal(t, "user", user["role"])
	return user["content"]
}

func TestClient_Identify_Barcode(t *testing.T) {
	model := &fakeModel{answer: `{"success": true, "keywords": " Phone X 128GB "}`}
	client := newFakeClient(t, model)

	result, err := client.Identify(context.Background(), domain.IdentifyRequest{
		Type:    domain.InputBarcode,
		Barcode: "8901234567890",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Phone X 128GB", result.Keywords)

	assert.Equal(t, "gpt-4o-mini", model.last["model"])
	content, _ := model.userContent(t).(string)
	assert.Contains(t, content, "8901234567890")
}

func TestClient_Identify_Image(t *testing.T) {
	model := &fakeModel{answer: `{"success": true, "keywords": "Phone X"}`}
	client := newFakeClient(t, model)

	_, err := client.Identify(context.Background(), domain.IdentifyRequest{
		Type:     domain.InputImage,
		Image:    []byte("fake-jpeg"),
		MimeType: "image/jpeg",
	})
	require.NoError(t, err)

	parts, ok := model.userContent(t).([]interface{})
	require.True(t, ok, "image request should send multi-part content")
	require.Len(t, parts, 2)

	image := parts[1].(map[string]interface{})
	assert.Equal(t, "image_url", image["type"])
	url := image["image_url"].(map[string]interface{})["url"].(string)
	assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"), "got %s", url)
}

func TestClient_Identify_Answers(t *testing.T) {
	tests := []struct {
		name        string
		answer      string
		wantErr     bool
		wantSuccess bool
		wantReason  string
	}{
		{
			name:        "refusal with reason",
			answer:      `{"success": false, "error": "image too blurry"}`,
			wantSuccess: false,
			wantReason:  "image too blurry",
		},
		{
			name:        "refusal without reason",
			answer:      `{"success": false}`,
			wantSuccess: false,
			wantReason:  "product could not be recognised",
		},
		{
			name:        "fenced json",
			answer:      "```json\n{\"success\": true, \"keywords\": \"Phone X\"}\n```",
			wantSuccess: true,
		},
		{
			name:    "prose instead of json",
			answer:  "I think it is a phone.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient(t, &fakeModel{answer: tt.answer})

			result, err := client.Identify(context.Background(), domain.IdentifyRequest{
				Type:    domain.InputBarcode,
				Barcode: "123",
			})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIdentifyFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantReason, result.Error)
		})
	}
}

func TestClient_Identify_UpstreamError(t *testing.T) {
	client := newFakeClient(t, &fakeModel{status: http.StatusServiceUnavailable})

	_, err := client.Identify(context.Background(), domain.IdentifyRequest{
		Type:    domain.InputBarcode,
		Barcode: "123",
	})
	assert.ErrorIs(t, err, ErrIdentifyFailed)
}

func TestClient_Identify_InvalidRequest(t *testing.T) {
	model := &fakeModel{answer: `{"success": true, "keywords": "x"}`}
	client := newFakeClient(t, model)

	requests := []domain.IdentifyRequest{
		{Type: domain.InputImage},
		{Type: domain.InputBarcode, Barcode: "  "},
		{Type: domain.InputText},
		{Type: "voice"},
	}
	for _, req := range requests {
		_, err := client.Identify(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest, "type %q", req.Type)
	}
	assert.Nil(t, model.last, "invalid requests must not reach the model")
}

func TestParseResult(t *testing.T) {
	result, err := parseResult("```\n{\"success\": true, \"keywords\": \"  Kettle 1.5L \"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Kettle 1.5L", result.Keywords)

	_, err = parseResult("")
	assert.ErrorIs(t, err, ErrIdentifyFailed)
}
