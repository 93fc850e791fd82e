package catalog_repo

import (
	"strings"
	"testing"

	"prorab/internal/domain"
	"prorab/internal/domain/catalogs/material"
)

func TestMaterialListSelect(t *testing.T) {
	repo := NewMaterialRepo(nil)

	tests := []struct {
		name     string
		filter   material.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "default hides deleted",
			filter:   material.ListFilter{},
			wantSQL:  "WHERE deletion_mark = $1",
			wantArgs: []any{false},
		},
		{
			name:     "include deleted drops the mark clause",
			filter:   material.ListFilter{ListFilter: domain.ListFilter{IncludeDeleted: true}},
			wantSQL:  "FROM cat_materials",
			wantArgs: nil,
		},
		{
			name:     "active only",
			filter:   material.ListFilter{ActiveOnly: true},
			wantSQL:  "is_active = $2",
			wantArgs: []any{false, true},
		},
		{
			name:     "in stock only",
			filter:   material.ListFilter{InStockOnly: true},
			wantSQL:  "quantity > $2",
			wantArgs: []any{false, int64(0)},
		},
		{
			name:     "search matches name or code",
			filter:   material.ListFilter{ListFilter: domain.ListFilter{Search: "rebar"}},
			wantSQL:  "(name ILIKE $2 OR code ILIKE $3)",
			wantArgs: []any{false, "%rebar%", "%rebar%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listSelect(tt.filter).ToSql()
			if err != nil {
				t.Fatalf("ToSql failed: %v", err)
			}

			if !strings.Contains(sql, tt.wantSQL) {
				t.Errorf("SQL mismatch\nwant fragment: %s\ngot:           %s", tt.wantSQL, sql)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("Args count mismatch\nwant: %d\ngot:  %d", len(tt.wantArgs), len(args))
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("Arg %d mismatch\nwant: %v\ngot:  %v", i, tt.wantArgs[i], args[i])
				}
			}
		})
	}
}
