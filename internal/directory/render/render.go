// Package render draws a derived directory view for the terminal, either as a
// table or as a grid of cards. It holds no business logic: everything it
// shows comes from a browse.View.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gartstein/directory/internal/directory/browse"
	"github.com/gartstein/directory/internal/directory/models"
)

// Mode selects how a page of records is drawn.
type Mode string

const (
	ModeTable Mode = "table"
	ModeCards Mode = "cards"
)

// NoResults is shown in place of an empty page.
const NoResults = "No companies match your filters."

// ParseMode accepts "table" or "cards".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeTable:
		return ModeTable, nil
	case ModeCards:
		return ModeCards, nil
	}
	return "", fmt.Errorf("unknown view mode %q (want table or cards)", s)
}

// Toggle switches between table and cards.
func (m Mode) Toggle() Mode {
	if m == ModeCards {
		return ModeTable
	}
	return ModeCards
}

// Styles groups the lipgloss styles used by the renderer.
type Styles struct {
	Header   lipgloss.Style
	Name     lipgloss.Style
	Badge    lipgloss.Style
	Muted    lipgloss.Style
	Card     lipgloss.Style
	Empty    lipgloss.Style
	Disabled lipgloss.Style
	Enabled  lipgloss.Style
	Error    lipgloss.Style
	Border   lipgloss.Style
}

// DefaultStyles returns the default palette.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f172a")).Padding(0, 1),
		Name:     lipgloss.NewStyle().Bold(true),
		Badge:    lipgloss.NewStyle().Foreground(lipgloss.Color("#b45309")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#475569")),
		Card:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#cbd5e1")).Padding(0, 1).Width(34),
		Empty:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#64748b")),
		Disabled: lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8")).Strikethrough(true),
		Enabled:  lipgloss.NewStyle().Bold(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#b91c1c")),
		Border:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e2e8f0")),
	}
}

// PlainStyles renders text without decoration, for pipes and dumb terminals.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header: plain, Name: plain, Badge: plain, Muted: plain, Card: plain,
		Empty: plain, Disabled: plain, Enabled: plain, Error: plain, Border: plain,
	}
}

// Renderer draws views with a fixed set of styles.
type Renderer struct {
	styles Styles
}

// New returns a Renderer using styles.
func New(styles Styles) *Renderer {
	return &Renderer{styles: styles}
}

// Default returns a Renderer using DefaultStyles.
func Default() *Renderer {
	return New(DefaultStyles())
}

// Page draws the items of v in mode followed by the footer.
func (r *Renderer) Page(v browse.View, mode Mode) string {
	var body string
	if mode == ModeCards {
		body = r.Cards(v.Items)
	} else {
		body = r.Table(v.Items)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, "", r.Footer(v))
}

// Table draws items as rows. An empty page yields a single explanatory row.
func (r *Renderer) Table(items []models.Company) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.Border).
		Headers("Name", "Industry", "Location", "Size", "Rating").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.Header
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	if len(items) == 0 {
		t.Row(r.styles.Empty.Render(NoResults), "", "", "", "")
		return t.String()
	}
	for _, c := range items {
		t.Row(r.styles.Name.Render(c.Name), c.Industry, c.Location, c.Size.String(), r.styles.Badge.Render(Rating(c.Rating)))
	}
	return t.String()
}

// Cards draws items as a grid of cards, two per row.
func (r *Renderer) Cards(items []models.Company) string {
	if len(items) == 0 {
		return r.styles.Empty.Render(NoResults)
	}

	cards := make([]string, 0, len(items))
	for _, c := range items {
		cards = append(cards, r.card(c))
	}

	var rows []string
	for i := 0; i < len(cards); i += 2 {
		if i+1 < len(cards) {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i], " ", cards[i+1]))
		} else {
			rows = append(rows, cards[i])
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (r *Renderer) card(c models.Company) string {
	lines := []string{
		r.styles.Name.Render(c.Name) + "  " + r.styles.Badge.Render(Rating(c.Rating)),
		r.styles.Muted.Render(c.Industry + " · " + c.Location),
		"Size: " + r.styles.Name.Render(c.Size.String()),
	}
	return r.styles.Card.Render(strings.Join(lines, "\n"))
}

// Footer shows the filtered total and the pager. Prev is disabled on the
// first page and Next on the last.
func (r *Renderer) Footer(v browse.View) string {
	prev := r.styles.Enabled.Render("‹ Prev")
	if !v.HasPrev {
		prev = r.styles.Disabled.Render("‹ Prev")
	}
	next := r.styles.Enabled.Render("Next ›")
	if !v.HasNext {
		next = r.styles.Disabled.Render("Next ›")
	}
	return fmt.Sprintf("Showing %d results    %s  %d / %d  %s", v.Total, prev, v.Page, v.TotalPages, next)
}

// Details draws a single record.
func (r *Renderer) Details(c models.Company) string {
	rows := [][2]string{
		{"ID", strconv.FormatInt(c.ID, 10)},
		{"Name", c.Name},
		{"Industry", c.Industry},
		{"Location", c.Location},
		{"Size", c.Size.String()},
		{"Rating", Rating(c.Rating)},
	}
	var b strings.Builder
	for _, kv := range rows {
		fmt.Fprintf(&b, "%s %s\n", r.styles.Muted.Render(fmt.Sprintf("%-9s", kv[0]+":")), kv[1])
	}
	return r.styles.Card.Width(44).Render(strings.TrimRight(b.String(), "\n"))
}

// Err draws a fetch failure message.
func (r *Renderer) Err(message string) string {
	return r.styles.Error.Render(message)
}

// Rating formats a rating as "4.5 ★".
func Rating(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " ★"
}
