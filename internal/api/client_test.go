package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/idilsaglam/tada/internal/model"
)

func TestPlainTextErrorBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down\n")
	}))
	defer srv.Close()

	_, err := New(srv.URL).FetchCard(context.Background(), "c1")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != "upstream down" || apiErr.Code != "" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if apiErr.Unwrap() != nil {
		t.Errorf("Unwrap = %v, want nil for 502", apiErr.Unwrap())
	}
}

func TestErrorEnvelopeAndSentinels(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, `{"error":{"message":"nope","code":"some_code"}}`)
		}))
		err := New(srv.URL).DeleteItem(context.Background(), "it-1")
		srv.Close()

		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: errors.Is(%v, %v) = false", tc.status, err, tc.want)
		}
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Code != "some_code" || apiErr.Message != "nope" {
			t.Errorf("status %d: apiErr = %+v", tc.status, apiErr)
		}
	}
}

func TestDeleteNoContentAndPatchBody(t *testing.T) {
	t.Parallel()
	var gotMethod, gotPath, gotAuth string
	var gotDelta map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotAuth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		if r.Method == http.MethodPatch {
			_ = json.NewDecoder(r.Body).Decode(&gotDelta)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"publicId":"it-1","quantity":3}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	c := New(srv.URL+"/", WithToken("tok"))
	ctx := context.Background()

	if err := c.DeleteItem(ctx, "it-1"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/checklist-items/it-1" || gotAuth != "Bearer tok" {
		t.Errorf("request = %s %s auth=%q", gotMethod, gotPath, gotAuth)
	}

	if err := c.UpdateItem(ctx, model.QuantityDelta("it-1", 3)); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if gotMethod != http.MethodPatch || gotDelta["quantity"] != float64(3) {
		t.Errorf("patch = %s %v", gotMethod, gotDelta)
	}
	if _, ok := gotDelta["completed"]; ok {
		t.Error("unset field sent in delta")
	}
}
