// Package query builds parameterized SELECT statements over a projection of
// table columns to view property names.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps view property names to qualified column references (alias.column).
type ProjectionMap struct {
	table   string
	alias   string
	columns map[string]string
	list    []string
}

// NewProjectionMap creates a ProjectionMap for a schema-qualified table and alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		table:   fmt.Sprintf("%s.%s", schema, table),
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project adds a column mapping from database column to view property name.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	qualified := fmt.Sprintf("%s.%s", p.alias, column)
	p.columns[viewName] = qualified
	p.list = append(p.list, qualified)
	return p
}

// From returns the table reference with alias for a FROM clause.
func (p *ProjectionMap) From() string {
	return fmt.Sprintf("%s %s", p.table, p.alias)
}

// Column returns the qualified column for a view property name.
func (p *ProjectionMap) Column(viewName string) (string, bool) {
	col, ok := p.columns[viewName]
	return col, ok
}

// Columns returns all mapped columns as a comma-separated select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.list, ", ")
}
