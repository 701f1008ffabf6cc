package openapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/certifier/pkg/openapi"
)

func TestNewSpec(t *testing.T) {
	spec := openapi.NewSpec("Test API", "1.0.0")
	spec.AddServer("/api")
	spec.SetDescription("A test API")

	if spec.OpenAPI != "3.1.0" {
		t.Errorf("openapi version: got %s, want 3.1.0", spec.OpenAPI)
	}
	if spec.Info.Title != "Test API" || spec.Info.Version != "1.0.0" || spec.Info.Description != "A test API" {
		t.Errorf("info: %+v", spec.Info)
	}
	if len(spec.Servers) != 1 || spec.Servers[0].URL != "/api" {
		t.Errorf("servers: %+v", spec.Servers)
	}
	if spec.Components == nil || spec.Paths == nil {
		t.Fatal("components and paths should be initialized")
	}
}

func TestAddOperation(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	get := &openapi.Operation{Summary: "Find"}
	del := &openapi.Operation{Summary: "Delete"}

	spec.AddOperation(http.MethodGet, "/runs/{id}", get)
	spec.AddOperation(http.MethodDelete, "/runs/{id}", del)
	spec.AddOperation(http.MethodPatch, "/runs/{id}", &openapi.Operation{})

	item := spec.Paths["/runs/{id}"]
	if item == nil {
		t.Fatal("path not added")
	}
	if item.Get != get || item.Delete != del {
		t.Errorf("path item: %+v", item)
	}
	if item.Post != nil || item.Put != nil {
		t.Error("unsupported method should not populate an operation")
	}
}

func TestRefs(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"schema", openapi.SchemaRef("Run").Ref, "#/components/schemas/Run"},
		{"response", openapi.ResponseRef("NotFound").Ref, "#/components/responses/NotFound"},
		{"request body", openapi.RequestBodyJSON("AnalysisRequest", true).Content["application/json"].Schema.Ref, "#/components/schemas/AnalysisRequest"},
		{"response body", openapi.ResponseJSON("ok", "Run").Content["application/json"].Schema.Ref, "#/components/schemas/Run"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestParams(t *testing.T) {
	p := openapi.PathParam("id", "Run ID")
	if p.In != "path" || !p.Required || p.Schema.Format != "uuid" {
		t.Errorf("path param: %+v", p)
	}

	q := openapi.QueryParam("state", "string", "Run state", false)
	if q.In != "query" || q.Required || q.Schema.Type != "string" {
		t.Errorf("query param: %+v", q)
	}
}

func TestComponents(t *testing.T) {
	c := openapi.NewComponents()

	for _, name := range []string{"BadRequest", "NotFound", "PayloadTooLarge", "InternalError"} {
		if _, ok := c.Responses[name]; !ok {
			t.Errorf("missing default response: %s", name)
		}
	}

	c.AddSchemas(map[string]*openapi.Schema{"Run": {Type: "object"}})
	c.AddResponses(map[string]*openapi.Response{"Unauthorized": {Description: "Not authenticated"}})

	if _, ok := c.Schemas["Run"]; !ok {
		t.Error("Run schema not added")
	}
	if _, ok := c.Schemas["PageRequest"]; !ok {
		t.Error("default PageRequest schema should still exist")
	}
	if _, ok := c.Responses["Unauthorized"]; !ok {
		t.Error("Unauthorized response not added")
	}
}

func TestServeSpec(t *testing.T) {
	data, err := openapi.MarshalJSON(openapi.NewSpec("Test", "1.0.0"))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type: got %s", ct)
	}

	body, _ := io.ReadAll(res.Body)
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("body unmarshal failed: %v", err)
	}
	if parsed["openapi"] != "3.1.0" {
		t.Errorf("openapi: got %v", parsed["openapi"])
	}
}

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := openapi.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Title != "Certifier API" || cfg.Path != "/openapi.json" {
			t.Errorf("defaults: %+v", cfg)
		}
		if got := cfg.Server("/api"); got != "/api" {
			t.Errorf("server: got %s, want base path", got)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_TITLE", "Custom API")
		t.Setenv("TEST_SERVER_URL", "https://certify.example.com/api/")
		env := &openapi.ConfigEnv{Title: "TEST_TITLE", Description: "TEST_DESC", ServerURL: "TEST_SERVER_URL"}

		cfg := openapi.Config{}
		if err := cfg.Finalize(env); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Title != "Custom API" {
			t.Errorf("title: got %s, want Custom API", cfg.Title)
		}
		if got := cfg.Server("/api"); got != "https://certify.example.com/api" {
			t.Errorf("server: got %s", got)
		}
	})

	t.Run("relative path rejected", func(t *testing.T) {
		cfg := openapi.Config{Path: "openapi.json"}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error for path without leading slash")
		}
	})

	t.Run("merge", func(t *testing.T) {
		base := openapi.Config{Title: "Base", Path: "/openapi.json"}
		base.Merge(&openapi.Config{Title: "Overlay", Path: "/spec.json"})
		if base.Title != "Overlay" || base.Path != "/spec.json" || base.DocumentPath() != "/spec.json" {
			t.Errorf("merge: %+v", base)
		}
	})
}

func TestSchemaBuilders(t *testing.T) {
	arr := openapi.ArrayOf(openapi.SchemaRef("Run"))
	if arr.Type != "array" || arr.Items.Ref != "#/components/schemas/Run" {
		t.Errorf("array: %+v", arr)
	}

	obj := openapi.Object(map[string]*openapi.Schema{"id": {Type: "string"}})
	if obj.Type != "object" || obj.Properties["id"].Type != "string" {
		t.Errorf("object: %+v", obj)
	}

	content := openapi.JSONContent(obj)
	if content["application/json"].Schema != obj {
		t.Error("json content should carry the schema")
	}
}
