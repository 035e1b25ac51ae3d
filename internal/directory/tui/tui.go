// Package tui is the interactive directory browser. It owns the session's
// filter state and the loading state of the latest fetch, recomputes the
// derived view on every change and delegates drawing to render.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gartstein/directory/internal/directory/browse"
	"github.com/gartstein/directory/internal/directory/client"
	e "github.com/gartstein/directory/internal/directory/errors"
	"github.com/gartstein/directory/internal/directory/models"
	"github.com/gartstein/directory/internal/directory/render"
)

// Fetcher is the subset of the API client the browser needs.
type Fetcher interface {
	FetchCollection(ctx context.Context) ([]models.Company, error)
	GetCompany(ctx context.Context, id int64) (*models.Company, error)
}

type collectionMsg struct {
	data []models.Company
	err  error
}

type detailsMsg struct {
	company *models.Company
	err     error
}

// Model is the bubbletea model of a browsing session.
type Model struct {
	ctx      context.Context
	fetcher  Fetcher
	renderer *render.Renderer

	search textinput.Model
	state  browse.FilterState
	loader client.Loader
	view   browse.View
	mode   render.Mode
	cursor int

	details    *models.Company
	detailsErr string
}

// New returns a session in the loading state. The first fetch is issued by
// Init.
func New(ctx context.Context, fetcher Fetcher, renderer *render.Renderer, mode render.Mode) Model {
	if renderer == nil {
		renderer = render.Default()
	}
	if mode == "" {
		mode = render.ModeTable
	}
	ti := textinput.New()
	ti.Placeholder = "Search by name or industry"
	ti.Prompt = "/ "
	ti.CharLimit = 200

	m := Model{
		ctx:      ctx,
		fetcher:  fetcher,
		renderer: renderer,
		search:   ti,
		state:    browse.NewFilterState(),
		mode:     mode,
	}
	m.loader.Begin()
	m.recompute()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.fetch()
}

// State returns the current filter state.
func (m Model) State() browse.FilterState { return m.state }

// Derived returns the current derived view.
func (m Model) Derived() browse.View { return m.view }

// Mode returns the current view mode.
func (m Model) Mode() render.Mode { return m.mode }

// Status returns the loading phase of the latest fetch.
func (m Model) Status() client.Status { return m.loader.Status() }

func (m Model) fetch() tea.Cmd {
	ctx, f := m.ctx, m.fetcher
	return func() tea.Msg {
		data, err := f.FetchCollection(ctx)
		return collectionMsg{data: data, err: err}
	}
}

func (m Model) fetchDetails(id int64) tea.Cmd {
	ctx, f := m.ctx, m.fetcher
	return func() tea.Msg {
		c, err := f.GetCompany(ctx, id)
		return detailsMsg{company: c, err: err}
	}
}

// recompute derives the view from the loaded records and the filter state
// and keeps the page the engine settled on.
func (m *Model) recompute() {
	m.view = browse.Derive(m.loader.Data(), m.state)
	m.state = m.state.Reconcile(m.view)
	if m.cursor >= len(m.view.Items) {
		m.cursor = max(len(m.view.Items)-1, 0)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case collectionMsg:
		m.loader.Finish(msg.data, msg.err)
		m.recompute()
		return m, nil

	case detailsMsg:
		switch {
		case msg.err == nil:
			m.details, m.detailsErr = msg.company, ""
		case errors.Is(msg.err, e.ErrNotFound):
			m.details, m.detailsErr = nil, "Company not found"
		default:
			m.details, m.detailsErr = nil, msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := m.search.Value(); q != m.state.Query {
		m.state = m.state.WithQuery(q)
		m.recompute()
	}
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.details != nil || m.detailsErr != "" {
		if msg.Type == tea.KeyEsc || msg.String() == "enter" || msg.String() == "q" {
			m.details, m.detailsErr = nil, ""
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		return m, m.search.Focus()
	case "i":
		m.state = m.state.WithIndustry(browse.Cycle(m.view.Facets.Industries, m.state.Industry, 1))
	case "I":
		m.state = m.state.WithIndustry(browse.Cycle(m.view.Facets.Industries, m.state.Industry, -1))
	case "l":
		m.state = m.state.WithLocation(browse.Cycle(m.view.Facets.Locations, m.state.Location, 1))
	case "L":
		m.state = m.state.WithLocation(browse.Cycle(m.view.Facets.Locations, m.state.Location, -1))
	case "v":
		m.mode = m.mode.Toggle()
		return m, nil
	case "right", "n":
		m.state = m.state.Next(m.view.TotalPages)
		m.cursor = 0
	case "left", "p":
		m.state = m.state.Prev()
		m.cursor = 0
	case "down", "j":
		if m.cursor < len(m.view.Items)-1 {
			m.cursor++
		}
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "enter":
		if len(m.view.Items) == 0 {
			return m, nil
		}
		return m, m.fetchDetails(m.view.Items[m.cursor].ID)
	case "r":
		m.loader.Begin()
		m.recompute()
		return m, m.fetch()
	case "R":
		m.search.SetValue("")
		m.state = browse.NewFilterState()
		m.mode = render.ModeTable
		m.cursor = 0
		m.loader.Begin()
		m.recompute()
		return m, m.fetch()
	default:
		return m, nil
	}
	m.recompute()
	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#475569"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Company Directory"))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n\n",
		labelStyle.Render("Industry:"), m.state.Industry,
		labelStyle.Render("Location:"), m.state.Location,
		labelStyle.Render("View:"), m.mode)

	switch {
	case m.loader.Status() == client.StatusLoading:
		b.WriteString("Loading companies…")
	case m.loader.Status() == client.StatusError:
		b.WriteString(m.renderer.Err(m.loader.Message()))
	case m.detailsErr != "":
		b.WriteString(m.renderer.Err(m.detailsErr))
	case m.details != nil:
		b.WriteString(m.renderer.Details(*m.details))
	default:
		b.WriteString(m.renderer.Page(m.view, m.mode))
		if len(m.view.Items) > 0 {
			fmt.Fprintf(&b, "\n%s %s", labelStyle.Render("Selected:"), m.view.Items[m.cursor].Name)
		}
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("/ search · i/l industry/location · v view · ←/→ page · ↑/↓ select · enter details · r refresh · R reload · q quit"))
	return b.String()
}

// Run starts the browser on the terminal and blocks until the user quits.
func Run(ctx context.Context, fetcher Fetcher, mode render.Mode) error {
	_, err := tea.NewProgram(New(ctx, fetcher, nil, mode), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
