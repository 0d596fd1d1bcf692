package listing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

func TestFilterChangesResetPage(t *testing.T) {
	t.Parallel()

	base := New(10).SetPage(4)
	require.Equal(t, 4, base.Page)

	tests := []struct {
		name string
		next State
	}{
		{"search", base.SetSearch("ana")},
		{"filter", base.SetFilter("role", "student")},
		{"clear", base.ClearFilters()},
		{"page size", base.SetPageSize(50)},
		{"sort", base.ToggleSort("email")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, 1, tt.next.Page)
		})
	}
}

func TestFilters(t *testing.T) {
	t.Parallel()

	s := New(0)
	require.Equal(t, DefaultPageSize, s.PageSize)
	require.False(t, s.HasActiveFilters())

	s2 := s.SetFilter("role", "admin")
	require.True(t, s2.HasActiveFilters())
	require.Equal(t, "admin", s2.Filter("role"))
	require.Empty(t, s.Filter("role"), "states are values")

	require.False(t, s2.SetFilter("role", "").HasActiveFilters())
	require.True(t, s.SetSearch("x").HasActiveFilters())
	require.False(t, s.SetSearch("   ").HasActiveFilters())
	require.False(t, s2.SetSearch("x").ClearFilters().HasActiveFilters())
}

func TestToggleSort(t *testing.T) {
	t.Parallel()

	s := New(10).ToggleSort("email")
	require.Equal(t, "email", s.SortBy)
	require.Equal(t, apiclient.SortAsc, s.SortOrder)

	s = s.ToggleSort("email")
	require.Equal(t, apiclient.SortDesc, s.SortOrder)

	s = s.ToggleSort("first_name")
	require.Equal(t, "first_name", s.SortBy)
	require.Equal(t, apiclient.SortAsc, s.SortOrder)
}

func TestPages(t *testing.T) {
	t.Parallel()

	s := New(10)
	require.Equal(t, 1, s.TotalPages(0))
	require.Equal(t, 1, s.TotalPages(10))
	require.Equal(t, 2, s.TotalPages(11))
	require.Equal(t, 1, s.SetPage(-3).Page)

	s = s.SetPage(3).Clamp(15)
	require.Equal(t, 2, s.Page)
	require.Equal(t, 2, s.Clamp(100).Page)
}
