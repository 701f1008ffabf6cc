package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/certifier/pkg/pagination"
)

func config(t *testing.T) pagination.Config {
	t.Helper()
	cfg := pagination.Config{DefaultPageSize: 10, MaxPageSize: 50}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestFromQuery(t *testing.T) {
	cfg := config(t)

	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{"defaults", "", 1, 10, 0},
		{"explicit", "page=3&page_size=20", 3, 20, 40},
		{"clamped size", "page_size=500", 1, 50, 0},
		{"negative page", "page=-2", 1, 10, 0},
		{"garbage", "page=x&page_size=y", 1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.FromQuery(values, cfg)

			if req.Page != tt.wantPage || req.PageSize != tt.wantSize {
				t.Errorf("got page=%d size=%d, want page=%d size=%d", req.Page, req.PageSize, tt.wantPage, tt.wantSize)
			}
			if req.Offset() != tt.wantOffset {
				t.Errorf("offset: got %d, want %d", req.Offset(), tt.wantOffset)
			}
		})
	}
}

func TestFromQuerySearchAndSort(t *testing.T) {
	values, _ := url.ParseQuery("search=approval&sort=-StartedAt")
	req := pagination.FromQuery(values, config(t))

	if req.Search == nil || *req.Search != "approval" {
		t.Errorf("search: got %v", req.Search)
	}
	if len(req.Sort) != 1 || req.Sort[0].Field != "StartedAt" || !req.Sort[0].Descending {
		t.Errorf("sort: got %+v", req.Sort)
	}

	empty := pagination.FromQuery(url.Values{}, config(t))
	if empty.Search != nil || empty.Sort != nil {
		t.Error("absent parameters should stay nil")
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		size      int
		wantPages int
	}{
		{"empty", 0, 10, 1},
		{"exact", 20, 10, 2},
		{"remainder", 21, 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pagination.NewPageResult[string](nil, tt.total, pagination.PageRequest{Page: 1, PageSize: tt.size})
			if res.TotalPages != tt.wantPages {
				t.Errorf("total pages: got %d, want %d", res.TotalPages, tt.wantPages)
			}
			if res.Data == nil {
				t.Error("nil data should become an empty slice")
			}
		})
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 80, MaxPageSize: 40}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected error when default exceeds max")
	}
}
