package browse

// FilterState is the user-editable input of a browsing session. Values are
// copied, never shared: every method returns a new state.
type FilterState struct {
	Query    string `schema:"q" json:"q" validate:"max=200"`
	Industry string `schema:"industry" json:"industry" validate:"max=200"`
	Location string `schema:"location" json:"location" validate:"max=200"`
	Page     int    `schema:"page" json:"page" validate:"gte=1"`
	PageSize int    `schema:"pageSize" json:"pageSize" validate:"gte=1,lte=100"`
}

// NewFilterState returns the state a session starts with.
func NewFilterState() FilterState {
	return FilterState{
		Industry: All,
		Location: All,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// WithQuery sets the search text and goes back to the first page.
func (s FilterState) WithQuery(q string) FilterState {
	s.Query = q
	s.Page = 1
	return s
}

// WithIndustry sets the industry facet and goes back to the first page.
func (s FilterState) WithIndustry(industry string) FilterState {
	s.Industry = industry
	s.Page = 1
	return s
}

// WithLocation sets the location facet and goes back to the first page.
func (s FilterState) WithLocation(location string) FilterState {
	s.Location = location
	s.Page = 1
	return s
}

// Next moves one page forward, stopping at totalPages.
func (s FilterState) Next(totalPages int) FilterState {
	if s.Page < totalPages {
		s.Page++
	}
	return s
}

// Prev moves one page back, stopping at 1.
func (s FilterState) Prev() FilterState {
	if s.Page > 1 {
		s.Page--
	}
	return s
}

// Reconcile applies the page the engine actually used, so a page that fell
// out of range after the result set shrank stays reset.
func (s FilterState) Reconcile(v View) FilterState {
	s.Page = v.Page
	return s
}

func (s FilterState) normalized() FilterState {
	if s.Industry == "" {
		s.Industry = All
	}
	if s.Location == "" {
		s.Location = All
	}
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	return s
}

// Cycle returns the option after current in options, wrapping around. An
// unknown current value selects the first option.
func Cycle(options []string, current string, step int) string {
	if len(options) == 0 {
		return All
	}
	idx := -1
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return options[0]
	}
	n := len(options)
	return options[((idx+step)%n+n)%n]
}
