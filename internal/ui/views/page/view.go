package page

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	navdto "storefront/internal/modules/navigation/dto"
	"storefront/internal/ui/theme"
)

// sections is the static copy shown under each page heading.
var sections = map[string][]string{
	"dashboard": {
		"Open orders        12",
		"Revenue today      $1,284.50",
		"Average ticket     $23.10",
		"Store status       accepting orders",
	},
	"catalog": {
		"Starters           8 items",
		"Mains              14 items",
		"Desserts           6 items",
		"Drinks             21 items, 3 sold out",
	},
	"orders": {
		"#1042  pickup    ready",
		"#1041  delivery  on the way",
		"#1040  dine-in   preparing",
		"#1039  delivery  delivered",
	},
	"branding": {
		"Logo               uploaded",
		"Primary colour     #b4befe",
		"Theme              evening",
	},
	"settings": {
		"Opening hours      11:00-22:00",
		"Delivery zones     3",
		"Payments           card, cash",
	},
}

// Model renders the page for the current location.
type Model struct {
	route    navdto.RouteOutput
	viewport viewport.Model
	width    int
	height   int
}

func New() Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)
	return Model{viewport: vp}
}

// Route returns the route currently shown.
func (m Model) Route() navdto.RouteOutput { return m.route }

// SetRoute swaps the page content and scrolls back to the top.
func (m *Model) SetRoute(route navdto.RouteOutput) {
	m.route = route
	m.viewport.SetContent(m.render())
	m.viewport.GotoTop()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(m.width-2, 10)
		m.viewport.Height = max(m.height-2, 3)
		m.viewport.SetContent(m.render())
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return theme.Pane.Render(m.viewport.View())
}

func (m Model) render() string {
	if m.route.Key == "" {
		return theme.Muted.Render("no page")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(m.route.Title) + "\n")
	sb.WriteString(theme.Muted.Render(m.route.Description) + "\n\n")
	for _, line := range sections[m.route.Key] {
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}
