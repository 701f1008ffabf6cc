package query_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/certifier/pkg/query"
)

var projection = query.
	NewProjectionMap("public", "runs", "r").
	Project("id", "ID").
	Project("state", "State").
	Project("lsu", "LSU").
	Project("started_at", "StartedAt")

func TestBuildPage(t *testing.T) {
	state := "COMPLETED"
	search := "approval"

	sql, args := query.NewBuilder(projection, query.SortField{Field: "StartedAt", Descending: true}).
		WhereEquals("State", &state).
		WhereEquals("Missing", "ignored").
		WhereSearch(&search, "LSU").
		BuildPage(40, 20)

	want := "SELECT r.id, r.state, r.lsu, r.started_at FROM public.runs r" +
		" WHERE r.state = $1 AND (r.lsu ILIKE $2) ORDER BY r.started_at DESC LIMIT 20 OFFSET 40"
	if sql != want {
		t.Errorf("sql:\n got: %s\nwant: %s", sql, want)
	}
	if diff := cmp.Diff([]any{&state, "%approval%"}, args); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
}

func TestNilFiltersAreSkipped(t *testing.T) {
	var state *string
	sql, args := query.NewBuilder(projection).
		WhereEquals("State", state).
		WhereSearch(nil, "LSU").
		BuildCount()

	if sql != "SELECT COUNT(*) FROM public.runs r" || len(args) != 0 {
		t.Errorf("got %q %v", sql, args)
	}
}

func TestOrderByIgnoresUnmappedFields(t *testing.T) {
	sql, _ := query.NewBuilder(projection).
		OrderByFields(query.ParseSortFields("State,-id; DROP TABLE runs")).
		BuildPage(0, 10)

	want := "SELECT r.id, r.state, r.lsu, r.started_at FROM public.runs r ORDER BY r.state ASC LIMIT 10 OFFSET 0"
	if sql != want {
		t.Errorf("sql:\n got: %s\nwant: %s", sql, want)
	}
}

func TestParseSortFields(t *testing.T) {
	got := query.ParseSortFields(" State, -StartedAt ,,")
	want := []query.SortField{
		{Field: "State"},
		{Field: "StartedAt", Descending: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if query.ParseSortFields("") != nil {
		t.Error("empty input should yield nil")
	}
}

func TestBuildSingle(t *testing.T) {
	sql, args := query.NewBuilder(projection).BuildSingle("ID", "abc")
	if sql != "SELECT r.id, r.state, r.lsu, r.started_at FROM public.runs r WHERE r.id = $1" {
		t.Errorf("sql: %s", sql)
	}
	if len(args) != 1 || args[0] != "abc" {
		t.Errorf("args: %v", args)
	}
}
