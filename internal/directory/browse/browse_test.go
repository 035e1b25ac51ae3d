package browse

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/gartstein/directory/internal/directory/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func company(id int64, name, industry, location string) models.Company {
	return models.Company{ID: id, Name: name, Industry: industry, Location: location}
}

// seven mirrors the bundled data file: 7 records, two repeated industries.
func seven() []models.Company {
	return []models.Company{
		company(1, "Northwind Analytics", "Technology", "Bengaluru"),
		company(2, "Bluepeak Capital", "Finance", "Mumbai"),
		company(3, "Greenfield Foods", "Retail", "Hyderabad"),
		company(4, "Helix Health", "Healthcare", "Bengaluru"),
		company(5, "Orbit Logistics", "Logistics", "Chennai"),
		company(6, "Quanta Softworks", "Technology", "Pune"),
		company(7, "Sterling Advisory", "Finance", "Delhi"),
	}
}

func ids(companies []models.Company) []int64 {
	out := make([]int64, 0, len(companies))
	for _, c := range companies {
		out = append(out, c.ID)
	}
	return out
}

func TestDeriveFacets_FirstSeenOrder(t *testing.T) {
	f := DeriveFacets(seven())

	wantIndustries := []string{All, "Technology", "Finance", "Retail", "Healthcare", "Logistics"}
	wantLocations := []string{All, "Bengaluru", "Mumbai", "Hyderabad", "Chennai", "Pune", "Delhi"}
	if diff := cmp.Diff(wantIndustries, f.Industries); diff != "" {
		t.Errorf("industries mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantLocations, f.Locations); diff != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveFacets_Empty(t *testing.T) {
	f := DeriveFacets(nil)
	assert.Equal(t, []string{All}, f.Industries)
	assert.Equal(t, []string{All}, f.Locations)
}

func TestApplyFilters(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		industry string
		location string
		want     []int64
	}{
		{name: "no filters", industry: All, location: All, want: []int64{1, 2, 3, 4, 5, 6, 7}},
		{name: "query matches industry only", query: "tech", industry: All, location: All, want: []int64{1, 6}},
		{name: "query is case-insensitive on name", query: "HELIX", industry: All, location: All, want: []int64{4}},
		{name: "query substring in name", query: "soft", industry: All, location: All, want: []int64{6}},
		{name: "industry facet", industry: "Finance", location: All, want: []int64{2, 7}},
		{name: "location facet", industry: All, location: "Bengaluru", want: []int64{1, 4}},
		{name: "facets compose", industry: "Technology", location: "Pune", want: []int64{6}},
		{name: "query and facet", query: "a", industry: "Finance", location: "Delhi", want: []int64{7}},
		{name: "facet is exact match", industry: "technology", location: All, want: []int64{}},
		{name: "whitespace query is a filter", query: " ", industry: All, location: All, want: []int64{1, 2, 3, 4, 5, 6, 7}},
		{name: "no match", query: "zzz", industry: All, location: All, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(seven(), tt.query, tt.industry, tt.location)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyFilters_DoesNotMutateInput(t *testing.T) {
	in := seven()
	before := append([]models.Company(nil), in...)

	first := ApplyFilters(in, "o", All, "Bengaluru")
	second := ApplyFilters(in, "o", All, "Bengaluru")

	assert.Equal(t, before, in)
	assert.Equal(t, first, second, "same arguments should give the same result")
}

// TestApplyFilters_Partition checks on random data that the result is
// exactly the set of records satisfying every active predicate.
func TestApplyFilters_Partition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	industries := []string{"Technology", "Finance", "Retail", "Energy"}
	locations := []string{"Pune", "Delhi", "Mumbai"}
	queries := []string{"", "te", "IN", "x", "co"}

	for round := 0; round < 50; round++ {
		n := rng.Intn(30)
		companies := make([]models.Company, 0, n)
		for i := 0; i < n; i++ {
			companies = append(companies, company(int64(i+1),
				fmt.Sprintf("Co%d %s", i, []string{"Alpha", "Tex", "Nova"}[rng.Intn(3)]),
				industries[rng.Intn(len(industries))],
				locations[rng.Intn(len(locations))],
			))
		}
		q := queries[rng.Intn(len(queries))]
		ind := append([]string{All}, industries...)[rng.Intn(len(industries)+1)]
		loc := append([]string{All}, locations...)[rng.Intn(len(locations)+1)]

		got := ApplyFilters(companies, q, ind, loc)
		kept := make(map[int64]bool, len(got))
		for _, c := range got {
			kept[c.ID] = true
		}

		for _, c := range companies {
			matches := (q == "" ||
				strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) ||
				strings.Contains(strings.ToLower(c.Industry), strings.ToLower(q))) &&
				(ind == All || c.Industry == ind) &&
				(loc == All || c.Location == loc)
			require.Equal(t, matches, kept[c.ID], "round %d company %d q=%q ind=%q loc=%q", round, c.ID, q, ind, loc)
		}
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		n, size, want int
	}{
		{0, 5, 1},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{7, 5, 2},
		{11, 5, 3},
		{7, 0, 2},
		{3, 1, 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.n, tt.size), func(t *testing.T) {
			assert.Equal(t, tt.want, TotalPages(tt.n, tt.size))
		})
	}
}

func TestPaginate(t *testing.T) {
	all := seven()

	p := Paginate(all, 1, 5)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(p.Items))
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 2, p.TotalPages)

	p = Paginate(all, 2, 5)
	assert.Equal(t, []int64{6, 7}, ids(p.Items))
	assert.Equal(t, 2, p.Page)
}

func TestPaginate_OutOfRangeResetsToFirstPage(t *testing.T) {
	for _, page := range []int{3, 99, 0, -1} {
		p := Paginate(seven(), page, 5)
		assert.Equal(t, 1, p.Page, "page %d", page)
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(p.Items), "page %d", page)
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate(nil, 1, 5)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 1, p.Page)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
}

func TestPaginate_ItemsAreCopies(t *testing.T) {
	all := seven()
	p := Paginate(all, 1, 5)
	p.Items[0].Name = "changed"
	assert.Equal(t, "Northwind Analytics", all[0].Name)
}

// TestPaginate_Invariants walks every size and page combination for small inputs.
func TestPaginate_Invariants(t *testing.T) {
	for n := 0; n <= 12; n++ {
		filtered := make([]models.Company, n)
		for i := range filtered {
			filtered[i] = company(int64(i+1), "c", "i", "l")
		}
		for size := 1; size <= 6; size++ {
			want := (n + size - 1) / size
			if want < 1 {
				want = 1
			}
			for page := -1; page <= want+2; page++ {
				p := Paginate(filtered, page, size)
				require.Equal(t, want, p.TotalPages)
				if page < 1 || page > want {
					require.Equal(t, 1, p.Page)
				} else {
					require.Equal(t, page, p.Page)
				}
				require.LessOrEqual(t, len(p.Items), size)
				if len(p.Items) > 0 {
					require.Equal(t, int64((p.Page-1)*size+1), p.Items[0].ID)
				}
			}
		}
	}
}

// TestDerive_Scenario covers paging through seven records and shrinking the
// result set while on page two.
func TestDerive_Scenario(t *testing.T) {
	companies := seven()
	state := NewFilterState()

	v := Derive(companies, state)
	assert.Len(t, v.Items, 5)
	assert.Equal(t, 7, v.Total)
	assert.Equal(t, 2, v.TotalPages)
	assert.False(t, v.HasPrev)
	assert.True(t, v.HasNext)

	state = state.Next(v.TotalPages)
	v = Derive(companies, state)
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, []int64{6, 7}, ids(v.Items))
	assert.True(t, v.HasPrev)
	assert.False(t, v.HasNext)

	// a filter shrinking the result set while on page 2 recomputes to one page
	// and resets the page, whether or not the caller reset it first.
	stale := state
	stale.Industry = "Technology"
	v = Derive(companies, stale)
	assert.Equal(t, 1, v.TotalPages)
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, []int64{1, 6}, ids(v.Items))
	assert.Equal(t, 1, stale.Reconcile(v).Page)

	state = state.WithIndustry("Technology")
	assert.Equal(t, 1, state.Page)
}

func TestDerive_NoResults(t *testing.T) {
	v := Derive(seven(), NewFilterState().WithQuery("nothing matches"))
	assert.Equal(t, 0, v.Total)
	assert.Equal(t, 1, v.TotalPages)
	assert.Empty(t, v.Items)
	assert.False(t, v.HasPrev)
	assert.False(t, v.HasNext)
	// facets still come from the unfiltered collection
	assert.Len(t, v.Facets.Industries, 6)
}

func TestDerive_ZeroValueState(t *testing.T) {
	v := Derive(seven(), FilterState{})
	assert.Equal(t, 7, v.Total)
	assert.Equal(t, DefaultPageSize, v.PageSize)
	assert.Equal(t, 1, v.Page)
}
