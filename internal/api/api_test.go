package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/testutil"
)

func newTestServer(t *testing.T, authToken string) (*httptest.Server, *noteservice.Service) {
	t.Helper()

	_, store, idx, reg := testutil.TestWiki(t)
	testutil.WriteNote(t, store, "1111111111", testutil.Note(
		"1111111111", "Learning notes", "#tag.wip", "",
		"- [x] read\n- [ ] summarize\n",
	))
	testutil.WriteNote(t, store, "2222222222", testutil.Note(
		"2222222222", "Reading list", "#tag.todo", "",
		"- [ ] work through @1111111111\n",
	))
	if _, err := idx.RebuildFull(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	svc := noteservice.NewService(store, idx, reg)
	srv := httptest.NewServer(NewRouter(svc, authToken, nil))
	t.Cleanup(srv.Close)
	return srv, svc
}

func doReq(t *testing.T, method, url, token string, body string) *http.Response {
	t.Helper()

	var rd *strings.Reader
	if body != "" {
		rd = strings.NewReader(body)
	} else {
		rd = strings.NewReader("")
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestGetNote(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := doReq(t, http.MethodGet, srv.URL+"/notes/1111111111", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status"`
	}
	decode(t, resp, &body)
	if body.ID != "1111111111" || body.Title != "Learning notes" {
		t.Fatalf("unexpected note %+v", body)
	}
	if body.Status != "wip" {
		t.Fatalf("status = %q, want wip", body.Status)
	}
}

func TestGetNoteNotFound(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := doReq(t, http.MethodGet, srv.URL+"/notes/9999999999", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSearch(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := doReq(t, http.MethodGet, srv.URL+"/search?q=reading", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	decode(t, resp, &body)
	if len(body.Results) != 1 || body.Results[0].ID != "2222222222" {
		t.Fatalf("unexpected results %+v", body.Results)
	}
}

func TestSearchEmptyResultIsArray(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := doReq(t, http.MethodGet, srv.URL+"/search?q=nomatchforthis", "", "")
	var body map[string]json.RawMessage
	decode(t, resp, &body)
	if string(body["results"]) != "[]" {
		t.Fatalf("results = %s, want []", body["results"])
	}
}

func TestBacklinks(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := doReq(t, http.MethodGet, srv.URL+"/notes/1111111111/backlinks", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Backlinks []struct {
			File string `json:"file"`
		} `json:"backlinks"`
	}
	decode(t, resp, &body)
	if len(body.Backlinks) != 1 || body.Backlinks[0].File != "2222222222.typ" {
		t.Fatalf("unexpected backlinks %+v", body.Backlinks)
	}
}

func TestCreateAndDeleteNote(t *testing.T) {
	srv, svc := newTestServer(t, "")

	resp := doReq(t, http.MethodPost, srv.URL+"/notes", "", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var created map[string]string
	decode(t, resp, &created)
	id := created["id"]
	if len(id) != 10 {
		t.Fatalf("id = %q", id)
	}
	if _, ok := svc.Index().Get(id); !ok {
		t.Fatalf("created note %s not indexed", id)
	}

	resp = doReq(t, http.MethodDelete, srv.URL+"/notes/"+id, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if _, ok := svc.Index().Get(id); ok {
		t.Fatalf("deleted note %s still indexed", id)
	}
}

func TestFormatText(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := doReq(t, http.MethodPost, srv.URL+"/format", "",
		`{"content":"no todos here\n"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body map[string]string
	decode(t, resp, &body)
	if body["content"] != "no todos here\n" {
		t.Fatalf("content = %q", body["content"])
	}
}

func TestReconcile(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := doReq(t, http.MethodPost, srv.URL+"/notes/1111111111/reconcile", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body map[string]int
	decode(t, resp, &body)
	// Note is wip, so the unchecked referencing line already matches.
	if body["changedFiles"] != 0 {
		t.Fatalf("changedFiles = %d, want 0", body["changedFiles"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, "secret")

	resp := doReq(t, http.MethodGet, srv.URL+"/notes/1111111111", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", resp.StatusCode)
	}

	resp = doReq(t, http.MethodGet, srv.URL+"/notes/1111111111", "wrong", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status with bad token = %d, want 401", resp.StatusCode)
	}

	resp = doReq(t, http.MethodGet, srv.URL+"/notes/1111111111", "secret", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", resp.StatusCode)
	}
}
