package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"drive-rag-chatbot/models"
	"drive-rag-chatbot/services"
)

type stubSource struct {
	docs map[string]models.RawDocument
}

func (s stubSource) List(context.Context) ([]models.DocumentInfo, error) {
	var infos []models.DocumentInfo
	for _, d := range s.docs {
		infos = append(infos, models.DocumentInfo{ID: d.SourceID, Name: d.Name, MimeType: "text/plain"})
	}
	return infos, nil
}

func (s stubSource) Fetch(_ context.Context, id string) (models.RawDocument, error) {
	doc, ok := s.docs[id]
	if !ok {
		return models.RawDocument{}, errors.New("not found")
	}
	return doc, nil
}

type stubEmbedder struct{}

func embedText(text string) []float32 {
	v := make([]float32, 8)
	for i, r := range text {
		v[i%8] += float32(r)
	}
	return v
}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return embedText(text), nil
}

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = embedText(t)
	}
	return vectors, nil
}

type stubGenerator struct{}

func (stubGenerator) GenerateAnswer(context.Context, string) (string, error) {
	return "The selected material covers quarterly revenue growth across several regions.", nil
}

func newTestRouter(t *testing.T, configured bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var emb services.Embedder
	var gen services.Generator
	if configured {
		emb = stubEmbedder{}
		gen = stubGenerator{}
	}
	svc := services.NewRAGService(emb, services.NewAnswerSynthesizer(gen), nil, 1000, 0, 4)
	store := services.NewSessionStore(time.Hour)

	source := stubSource{docs: map[string]models.RawDocument{
		"d1": {SourceID: "d1", Name: "Report", Format: models.FormatPlainText, Data: []byte(strings.Repeat("revenue grew ", 30))},
	}}
	factory := func(context.Context, string) (DriveSource, error) { return source, nil }

	r := gin.New()
	Register(r, svc, store, factory)
	return r
}

func do(r *gin.Engine, method, path, body, cookie string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer test-token")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, true)
	w := do(r, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListDocumentsRequiresAuth(t *testing.T) {
	r := newTestRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestListDocuments(t *testing.T) {
	r := newTestRouter(t, true)
	w := do(r, http.MethodGet, "/documents", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Documents []models.DocumentInfo `json:"documents"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Documents) != 1 || resp.Documents[0].Name != "Report" {
		t.Errorf("documents = %+v", resp.Documents)
	}
}

func TestSelectThenQueryWithinSession(t *testing.T) {
	r := newTestRouter(t, true)

	w := do(r, http.MethodPost, "/documents/select", `{"document_ids":["d1"]}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("select status = %d: %s", w.Code, w.Body.String())
	}
	var selectResp struct {
		DocumentCount int `json:"document_count"`
		ChunkCount    int `json:"chunk_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &selectResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if selectResp.DocumentCount != 1 || selectResp.ChunkCount == 0 {
		t.Fatalf("select response = %+v", selectResp)
	}

	cookie := w.Header().Get("Set-Cookie")
	if cookie == "" {
		t.Fatal("no session cookie issued")
	}
	cookie = strings.SplitN(cookie, ";", 2)[0]

	w = do(r, http.MethodPost, "/query", `{"query":"how did revenue do?"}`, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("query status = %d: %s", w.Code, w.Body.String())
	}
	var queryResp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &queryResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(queryResp.Response, "Sources: Report") {
		t.Errorf("response = %q", queryResp.Response)
	}

	w = do(r, http.MethodGet, "/chat", "", cookie)
	var status struct {
		AIAvailable       bool `json:"ai_available"`
		SelectedDocsCount int  `json:"selected_docs_count"`
		ChunkCount        int  `json:"chunk_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.AIAvailable || status.SelectedDocsCount != 1 || status.ChunkCount == 0 {
		t.Errorf("status = %+v", status)
	}
}

func TestSelectValidation(t *testing.T) {
	r := newTestRouter(t, true)

	if w := do(r, http.MethodPost, "/documents/select", `not json`, ""); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", w.Code)
	}
	if w := do(r, http.MethodPost, "/documents/select", `{"document_ids":[]}`, ""); w.Code != http.StatusBadRequest {
		t.Errorf("empty ids: status = %d, want 400", w.Code)
	}
}

func TestSelectNoUsableContent(t *testing.T) {
	r := newTestRouter(t, true)

	w := do(r, http.MethodPost, "/documents/select", `{"document_ids":["missing"]}`, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", w.Code, w.Body.String())
	}
}

func TestUnconfiguredService(t *testing.T) {
	r := newTestRouter(t, false)

	if w := do(r, http.MethodPost, "/documents/select", `{"document_ids":["d1"]}`, ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("select: status = %d, want 503", w.Code)
	}

	w := do(r, http.MethodPost, "/query", `{"query":"hello"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("query status = %d", w.Code)
	}
	var queryResp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &queryResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if queryResp.Response != services.MsgUnavailable {
		t.Errorf("response = %q, want %q", queryResp.Response, services.MsgUnavailable)
	}
}
