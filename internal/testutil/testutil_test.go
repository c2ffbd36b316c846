package testutil

import (
	"net/http"
	"testing"
)

func TestLocalRequest(t *testing.T) {
	req := LocalRequest(http.MethodGet, "/debug/xr-state")
	if req.RemoteAddr != "127.0.0.1:12345" {
		t.Errorf("expected loopback remote addr, got %q", req.RemoteAddr)
	}
}

func TestServeLocalAndDecode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"remote":"` + r.RemoteAddr + `"}`))
	})

	rec := ServeLocal(mux, "/ping")
	AssertStatusCode(t, rec.Code, http.StatusOK)

	var got map[string]string
	DecodeJSON(t, rec, &got)
	if got["remote"] != "127.0.0.1:12345" {
		t.Errorf("expected loopback remote, got %q", got["remote"])
	}
}
