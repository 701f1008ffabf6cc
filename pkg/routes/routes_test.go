package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/certifier/pkg/middleware"
	"github.com/JaimeStill/certifier/pkg/openapi"
	"github.com/JaimeStill/certifier/pkg/routes"
)

func header(key, value string) middleware.Func {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add(key, value)
			next.ServeHTTP(w, r)
		})
	}
}

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()

	patterns := routes.Register(mux, routes.Group{
		Prefix:     "/runs",
		Middleware: []middleware.Func{header("X-Group", "runs")},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: status(http.StatusOK)},
			{Method: "GET", Pattern: "/{id}", Handler: status(http.StatusOK)},
		},
		Children: []routes.Group{{
			Prefix:     "/{id}/package",
			Middleware: []middleware.Func{header("X-Group", "package")},
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: status(http.StatusAccepted)},
			},
		}},
	})

	want := []string{"GET /runs", "GET /runs/{id}", "GET /runs/{id}/package"}
	if diff := cmp.Diff(want, patterns); diff != "" {
		t.Errorf("patterns (-want +got):\n%s", diff)
	}

	tests := []struct {
		path       string
		wantCode   int
		wantGroups []string
	}{
		{"/runs", http.StatusOK, []string{"runs"}},
		{"/runs/abc", http.StatusOK, []string{"runs"}},
		{"/runs/abc/package", http.StatusAccepted, []string{"runs", "package"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			if diff := cmp.Diff(tt.wantGroups, rec.Header().Values("X-Group")); diff != "" {
				t.Errorf("middleware (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegisterMethodMismatch(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, routes.Group{
		Prefix: "/qec",
		Routes: []routes.Route{{Method: "POST", Pattern: "/analyze", Handler: status(http.StatusOK)}},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/qec/analyze", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}

func TestDescribe(t *testing.T) {
	analyze := &openapi.Operation{Summary: "Analyze"}
	status := &openapi.Operation{Summary: "Status"}

	spec := openapi.NewSpec("Test", "1.0.0")
	routes.Describe(spec, routes.Group{
		Prefix: "/qec",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/status", OpenAPI: status},
			{Method: "POST", Pattern: "/providers/refresh"},
		},
		Children: []routes.Group{{
			Routes: []routes.Route{{Method: "POST", Pattern: "/analyze", OpenAPI: analyze}},
		}},
	})

	if len(spec.Paths) != 2 {
		t.Fatalf("paths: got %d, want 2", len(spec.Paths))
	}
	if spec.Paths["/qec/status"].Get != status {
		t.Error("status operation not registered under GET /qec/status")
	}
	if spec.Paths["/qec/analyze"].Post != analyze {
		t.Error("analyze operation not registered under POST /qec/analyze")
	}
	if _, ok := spec.Paths["/qec/providers/refresh"]; ok {
		t.Error("undocumented route should be skipped")
	}
}
