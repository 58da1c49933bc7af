package blob_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ats/pipeline-service/internal/blob"
)

// ── Supabase ───────────────────────────────────────────────────────────────

func TestSupabaseUpload(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"Key":"resumes/resumes/1-cv.pdf"}`))
	}))
	defer srv.Close()

	s := blob.NewSupabase(srv.URL+"/", "service-key", "resumes")
	url, err := s.Upload(context.Background(), "resumes/1-cv.pdf", "application/pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/storage/v1/object/resumes/resumes/1-cv.pdf" {
		t.Errorf("request = %s %q", gotMethod, gotPath)
	}
	if gotAuth != "Bearer service-key" || gotType != "application/pdf" || gotBody != "%PDF" {
		t.Errorf("auth=%q type=%q body=%q", gotAuth, gotType, gotBody)
	}
	if want := srv.URL + "/storage/v1/object/public/resumes/resumes/1-cv.pdf"; url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}

func TestSupabaseUpload_Errors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"storage message passes through", http.StatusBadRequest, `{"statusCode":"409","error":"Duplicate","message":"The resource already exists"}`, "The resource already exists"},
		{"unstructured body", http.StatusBadGateway, "upstream down", "supabase storage returned 502: upstream down"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
				w.Write([]byte(c.body))
			}))
			defer srv.Close()

			s := blob.NewSupabase(srv.URL, "k", "resumes")
			_, err := s.Upload(context.Background(), "resumes/x", "", strings.NewReader("x"))
			if err == nil || err.Error() != c.want {
				t.Errorf("err = %v, want %q", err, c.want)
			}
		})
	}
}
