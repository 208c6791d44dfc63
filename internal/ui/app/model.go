package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	loadingdto "storefront/internal/modules/loading/dto"
	navdto "storefront/internal/modules/navigation/dto"
	"storefront/internal/ui/components"
	"storefront/internal/ui/theme"
	"storefront/internal/ui/views/page"
)

// ─── port ────────────────────────────────────────────────────────────────────

type navigationPort interface {
	Routes() []navdto.RouteOutput
	Navigate(ctx context.Context, route string) error
	NavigateOverlay(ctx context.Context, route, message string) error
	Back(ctx context.Context) error
	StopLoading()
	Location() string
	Loading() loadingdto.State
	Watch(onLoading func(loadingdto.State), onLocation func(string)) func()
}

// ─── async messages ──────────────────────────────────────────────────────────

// changedMsg means the loading state or location moved; the model re-reads
// both from the port instead of trusting the payload order.
type changedMsg struct{}

type navDoneMsg struct {
	route string
	err   error
}

// ─── watcher ─────────────────────────────────────────────────────────────────

// watcher turns coordinator and router callbacks, which arrive on timer
// goroutines, into Bubble Tea messages. The one-slot channel coalesces bursts.
type watcher struct {
	changed chan struct{}
	done    chan struct{}
	stop    func()
	once    sync.Once
}

func newWatcher(nav navigationPort) *watcher {
	w := &watcher{
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.stop = nav.Watch(
		func(loadingdto.State) { w.poke() },
		func(string) { w.poke() },
	)
	return w
}

func (w *watcher) poke() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

func (w *watcher) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.changed:
			return changedMsg{}
		case <-w.done:
			return nil
		}
	}
}

func (w *watcher) close() {
	w.once.Do(func() {
		w.stop()
		close(w.done)
	})
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Jump    key.Binding
	Overlay key.Binding
	Back    key.Binding
	Stop    key.Binding
	Palette key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next page")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous page")),
		Jump:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "go to page")),
		Overlay: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "next page, overlay")),
		Back:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "back")),
		Stop:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop loading")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back, k.Palette, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Jump, k.Overlay},
		{k.Back, k.Stop},
		{k.Palette, k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model: a route bar, the current page and the
// loading indicator driven by the shared loading state.
type Model struct {
	nav     navigationPort
	watch   *watcher
	routes  []navdto.RouteOutput
	page    page.Model
	spinner spinner.Model

	location string
	loading  loadingdto.State

	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette
	status   string
	failed   bool
	width    int
	height   int
}

func NewModel(nav navigationPort) Model {
	routes := nav.Routes()
	hints := make([]string, 0, len(routes)*2+2)
	for _, r := range routes {
		hints = append(hints, r.Key)
	}
	for _, r := range routes {
		hints = append(hints, "overlay "+r.Key)
	}
	hints = append(hints, "back", "stop")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	m := Model{
		nav:     nav,
		watch:   newWatcher(nav),
		routes:  routes,
		page:    page.New(),
		spinner: sp,
		keys:    defaultKeys(),
		help:    help.New(),
		palette: components.NewPalette(hints),
		status:  "ready",
	}
	m.refresh()
	return m
}

// Close detaches the model from the navigation signals.
func (m Model) Close() {
	m.watch.close()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.watch.wait(), m.spinner.Tick)
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.page, _ = m.page.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height - 4})
		return m, nil

	case changedMsg:
		m.refresh()
		return m, m.watch.wait()

	case navDoneMsg:
		if msg.err != nil {
			m.status = msg.route + ": " + msg.err.Error()
			m.failed = true
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.PaletteSubmitMsg:
		return m, m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			return m, m.navigateCmd(m.routeAt(1), false)
		case key.Matches(msg, m.keys.Prev):
			return m, m.navigateCmd(m.routeAt(-1), false)
		case key.Matches(msg, m.keys.Jump):
			i := int(msg.String()[0] - '1')
			if i >= 0 && i < len(m.routes) {
				return m, m.navigateCmd(m.routes[i].Key, false)
			}
			return m, nil
		case key.Matches(msg, m.keys.Overlay):
			return m, m.navigateCmd(m.routeAt(1), true)
		case key.Matches(msg, m.keys.Back):
			return m, m.backCmd()
		case key.Matches(msg, m.keys.Stop):
			m.nav.StopLoading()
			m.status = "loading stopped"
			m.failed = false
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open()
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.page, cmd = m.page.Update(msg)
	return m, cmd
}

// refresh pulls the current location and loading state from the port.
func (m *Model) refresh() {
	m.loading = m.nav.Loading()
	location := m.nav.Location()
	if location == m.location {
		return
	}
	m.location = location
	for _, r := range m.routes {
		if r.Key == location {
			m.page.SetRoute(r)
			m.status = r.Title
			m.failed = false
			return
		}
	}
}

// routeAt returns the route offset positions away from the current one,
// wrapping around the route bar.
func (m Model) routeAt(offset int) string {
	n := len(m.routes)
	if n == 0 {
		return ""
	}
	cur := 0
	for i, r := range m.routes {
		if r.Key == m.location {
			cur = i
			break
		}
	}
	return m.routes[((cur+offset)%n+n)%n].Key
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	routeBar := m.renderRouteBar()
	loadingBar := m.renderTopbar()
	statusBar := m.renderStatusBar()

	contentH := m.height - lipgloss.Height(routeBar) - lipgloss.Height(loadingBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.loading.Loading && m.loading.Variant == loadingdto.VariantOverlay:
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.renderOverlay())
	default:
		content = m.page.View()
	}

	parts := []string{routeBar}
	if loadingBar != "" {
		parts = append(parts, loadingBar)
	}
	parts = append(parts, content, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderRouteBar() string {
	parts := make([]string, len(m.routes))
	for i, r := range m.routes {
		label := " " + string(rune('1'+i)) + " " + r.Title + " "
		if r.Key == m.location {
			parts[i] = theme.Hot.Render(label)
		} else {
			parts[i] = theme.Muted.Render(label)
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "storefront  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

func (m Model) renderTopbar() string {
	if !m.loading.Loading || m.loading.Variant == loadingdto.VariantOverlay {
		return ""
	}
	return theme.Topbar.Width(m.width).Render(m.spinner.View() + " " + m.message())
}

func (m Model) renderOverlay() string {
	return theme.Overlay.Render(m.spinner.View() + "  " + m.message())
}

func (m Model) message() string {
	if m.loading.Message != "" {
		return m.loading.Message
	}
	return "Loading…"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.failed {
		left = theme.Error.Render(left)
	}
	right := theme.Muted.Render("?:help  tab:next  b:back  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}
	switch parts[0] {
	case "back":
		return m.backCmd()
	case "stop":
		return func() tea.Msg {
			m.nav.StopLoading()
			return nil
		}
	case "overlay":
		if len(parts) < 2 {
			return statusCmd("overlay", errors.New("usage: overlay <route>"))
		}
		return m.navigateCmd(parts[1], true)
	case "go":
		if len(parts) < 2 {
			return statusCmd("go", errors.New("usage: go <route>"))
		}
		return m.navigateCmd(parts[1], false)
	default:
		return m.navigateCmd(parts[0], false)
	}
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) navigateCmd(route string, overlay bool) tea.Cmd {
	if route == "" {
		return nil
	}
	return func() tea.Msg {
		var err error
		if overlay {
			err = m.nav.NavigateOverlay(context.Background(), route, "Opening "+route+"…")
		} else {
			err = m.nav.Navigate(context.Background(), route)
		}
		return navDoneMsg{route: route, err: err}
	}
}

func (m Model) backCmd() tea.Cmd {
	return func() tea.Msg {
		return navDoneMsg{route: "back", err: m.nav.Back(context.Background())}
	}
}

func statusCmd(route string, err error) tea.Cmd {
	return func() tea.Msg { return navDoneMsg{route: route, err: err} }
}
