// Package tui provides the BubbleTea-based annotation browser.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tracknote/internal/config"
	"github.com/jmylchreest/tracknote/internal/model"
	"github.com/jmylchreest/tracknote/internal/store"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
	ModeSearch
	ModeHelp
)

// Filter narrows the browsed annotations.
type Filter int

const (
	FilterAll Filter = iota
	FilterReactions
	FilterRated
)

func (f Filter) String() string {
	switch f {
	case FilterReactions:
		return "with reaction"
	case FilterRated:
		return "rated"
	default:
		return "all"
	}
}

func (f Filter) next() Filter {
	return (f + 1) % 3
}

// Store is the part of the annotation store the browser reads and deletes through.
type Store interface {
	QueryAll(ctx context.Context) *store.LiveQuery
	Search(ctx context.Context, text string) *store.LiveQuery
	QueryWithReaction(ctx context.Context) *store.LiveQuery
	QueryWithRating(ctx context.Context) *store.LiveQuery
	Delete(ctx context.Context, a model.Annotation)
}

// Model is the main TUI model.
type Model struct {
	ctx   context.Context
	cfg   *config.Config
	store Store

	mode Mode

	// Components
	list        list.Model
	viewport    viewport.Model
	searchInput textinput.Model
	help        help.Model

	// State
	annotations []model.Annotation
	selected    *model.Annotation
	searchQuery string
	filter      Filter
	query       *store.LiveQuery
	width       int
	height      int
	ready       bool
	now         func() time.Time

	keys KeyMap

	statusMsg string
	statusErr bool
}

// annotationItem wraps an annotation for the list component.
type annotationItem struct {
	annotation model.Annotation
	now        time.Time
}

func (i annotationItem) Title() string {
	return i.annotation.SongTitle + " - " + i.annotation.SongArtist
}

func (i annotationItem) Description() string {
	var parts []string
	if i.annotation.Reaction != nil {
		parts = append(parts, *i.annotation.Reaction)
	}
	if s := i.annotation.Stars(); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, humanize.RelTime(i.annotation.Timestamp, i.now, "ago", "from now"))
	return strings.Join(parts, " ") + " · " + i.annotation.TextTruncated(50)
}

func (i annotationItem) FilterValue() string {
	return i.annotation.SongTitle + " " + i.annotation.SongArtist + " " + i.annotation.Text
}

// annotationDelegate renders rated annotations with a highlighted title.
type annotationDelegate struct {
	list.DefaultDelegate
}

func newAnnotationDelegate() annotationDelegate {
	return annotationDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

// Render renders a list item.
func (d annotationDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ai, ok := item.(annotationItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	itemWidth := m.Width() - d.DefaultDelegate.Styles.NormalTitle.GetHorizontalPadding()

	titleStyle := d.DefaultDelegate.Styles.NormalTitle
	descStyle := d.DefaultDelegate.Styles.NormalDesc
	if index == m.Index() {
		titleStyle = d.DefaultDelegate.Styles.SelectedTitle
		descStyle = d.DefaultDelegate.Styles.SelectedDesc
	}
	if ai.annotation.Rating != nil && *ai.annotation.Rating == model.MaxRating {
		titleStyle = titleStyle.Foreground(lipgloss.Color("11"))
	}

	fmt.Fprint(w, titleStyle.Render(clip(ai.Title(), itemWidth)))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(clip(ai.Description(), itemWidth)))
}

// clip shortens s to width runes, marking the cut with an ellipsis.
func clip(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// New creates a TUI model and opens its first live query. Call Close when done.
func New(ctx context.Context, cfg *config.Config, s Store) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	l := list.New(nil, newAnnotationDelegate(), 0, 0)
	l.Title = "Song Comments"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	searchInput := textinput.New()
	searchInput.Placeholder = "Search comments (case-sensitive)..."
	searchInput.CharLimit = 100

	m := Model{
		ctx:         ctx,
		cfg:         cfg,
		store:       s,
		mode:        ModeList,
		list:        l,
		searchInput: searchInput,
		help:        help.New(),
		keys:        DefaultKeyMap(),
		now:         time.Now,
	}
	m.query = m.openQuery()
	return m
}

// Close stops the live query.
func (m Model) Close() {
	if m.query != nil {
		m.query.Close()
	}
}

// Init starts listening for live query results.
func (m Model) Init() tea.Cmd {
	return waitForRows(m.query)
}

// rowsMsg carries a result list from a live query.
type rowsMsg struct {
	query *store.LiveQuery
	rows  []model.Annotation
}

// waitForRows blocks for the next list from q.
func waitForRows(q *store.LiveQuery) tea.Cmd {
	if q == nil {
		return nil
	}
	return func() tea.Msg {
		rows, ok := <-q.C
		if !ok {
			return nil
		}
		return rowsMsg{query: q, rows: rows}
	}
}

// openQuery starts the live query matching the current search and filter.
func (m Model) openQuery() *store.LiveQuery {
	if m.store == nil {
		return nil
	}
	switch {
	case m.searchQuery != "":
		return m.store.Search(m.ctx, m.searchQuery)
	case m.filter == FilterReactions:
		return m.store.QueryWithReaction(m.ctx)
	case m.filter == FilterRated:
		return m.store.QueryWithRating(m.ctx)
	default:
		return m.store.QueryAll(m.ctx)
	}
}

// requery swaps the live query. Results still queued for the old one are dropped.
func (m Model) requery() (Model, tea.Cmd) {
	m.Close()
	m.query = m.openQuery()
	return m, waitForRows(m.query)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		m.list.SetSize(msg.Width, msg.Height-2)
		m.viewport = viewport.New(msg.Width, msg.Height-4)
		m.viewport.YPosition = 2
		return m, nil

	case rowsMsg:
		if msg.query != m.query {
			return m, nil
		}
		m.annotations = msg.rows
		m.list.SetItems(m.buildListItems())
		return m, waitForRows(m.query)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	switch m.mode {
	case ModeList:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	case ModeDetail:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	case ModeSearch:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Typing into the search box takes everything except ctrl+c.
	if m.mode == ModeSearch && msg.Type != tea.KeyCtrlC {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeList
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	switch m.mode {
	case ModeList:
		return m.handleListKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
		return m, nil
	}

	return m, nil
}

// handleListKey handles keys in list mode.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		return m.openDetail(), nil

	case key.Matches(msg, m.keys.Copy):
		if item, ok := m.list.SelectedItem().(annotationItem); ok {
			return m, m.copyToClipboard(item.annotation.Text)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopySong):
		if item, ok := m.list.SelectedItem().(annotationItem); ok {
			return m, m.copyToClipboard(item.Title())
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyAllJSON):
		data, err := json.MarshalIndent(m.visible(), "", "  ")
		if err != nil {
			return m, status("Failed to marshal JSON: "+err.Error(), true)
		}
		return m, m.copyToClipboard(string(data))

	case key.Matches(msg, m.keys.CopyAllYAML):
		data, err := yaml.Marshal(m.visible())
		if err != nil {
			return m, status("Failed to marshal YAML: "+err.Error(), true)
		}
		return m, m.copyToClipboard(string(data))

	case key.Matches(msg, m.keys.Delete):
		if item, ok := m.list.SelectedItem().(annotationItem); ok {
			return m, m.deleteAnnotation(item.annotation)
		}
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.filter = m.filter.next()
		next, cmd := m.requery()
		return next, tea.Batch(cmd, status("Showing "+next.filter.String()+" comments", false))

	case key.Matches(msg, m.keys.Search):
		return m.enterSearch()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleDetailKey handles keys in detail mode.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeList
		m.selected = nil
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if m.selected != nil {
			return m, m.copyToClipboard(m.selected.Text)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.selected != nil {
			a := *m.selected
			m.mode = ModeList
			m.selected = nil
			return m, m.deleteAnnotation(a)
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.selected = nil
		return m.enterSearch()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleSearchKey handles keys in search mode. Each edit re-runs the live search.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeList
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		if m.searchQuery == "" {
			return m, nil
		}
		m.searchQuery = ""
		return m.requery()

	case tea.KeyEnter:
		m.searchInput.Blur()
		return m.openDetail(), nil

	case tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	if v := m.searchInput.Value(); v != m.searchQuery {
		m.searchQuery = v
		next, qcmd := m.requery()
		return next, tea.Batch(cmd, qcmd)
	}
	return m, cmd
}

func (m Model) enterSearch() (tea.Model, tea.Cmd) {
	m.searchInput.SetValue(m.searchQuery)
	m.mode = ModeSearch
	m.searchInput.Focus()
	return m, textinput.Blink
}

func (m Model) openDetail() Model {
	item, ok := m.list.SelectedItem().(annotationItem)
	if !ok {
		return m
	}
	a := item.annotation
	m.selected = &a
	m.mode = ModeDetail
	m.viewport.SetContent(m.renderDetail(a))
	m.viewport.GotoTop()
	return m
}

// deleteAnnotation removes a in the background. The live query redelivers the list.
func (m Model) deleteAnnotation(a model.Annotation) tea.Cmd {
	st, ctx := m.store, m.ctx
	if st == nil {
		return nil
	}
	return func() tea.Msg {
		st.Delete(ctx, a)
		return statusMsg{text: "Comment deleted"}
	}
}

// visible returns the annotations currently listed.
func (m Model) visible() []model.Annotation {
	items := m.list.Items()
	out := make([]model.Annotation, 0, len(items))
	for _, item := range items {
		if ai, ok := item.(annotationItem); ok {
			out = append(out, ai.annotation)
		}
	}
	return out
}

// buildListItems creates list items from the current annotations.
func (m Model) buildListItems() []list.Item {
	now := m.now()
	items := make([]list.Item, len(m.annotations))
	for i, a := range m.annotations {
		items[i] = annotationItem{annotation: a, now: now}
	}
	return items
}

// renderDetail renders the detail view for an annotation.
func (m Model) renderDetail(a model.Annotation) string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	sb.WriteString(headerStyle.Render(a.SongTitle) + "\n\n")

	sb.WriteString(labelStyle.Render("Artist: ") + a.SongArtist + "\n")
	sb.WriteString(labelStyle.Render("Time: ") + humanize.RelTime(a.Timestamp, m.now(), "ago", "from now") +
		" (" + a.Timestamp.Format("2006-01-02 15:04") + ")\n")
	if a.Rating != nil {
		sb.WriteString(labelStyle.Render("Rating: ") + a.Stars() + "\n")
	}
	if a.Reaction != nil {
		sb.WriteString(labelStyle.Render("Reaction: ") + *a.Reaction + "\n")
	}
	if a.SourceID != "" {
		sb.WriteString(labelStyle.Render("Source: ") + a.SourceID + "\n")
	}

	sb.WriteString("\n" + labelStyle.Render("Comment:") + "\n")
	sb.WriteString(a.Text + "\n")

	return sb.String()
}

// copyToClipboard copies text to the system clipboard.
func (m Model) copyToClipboard(text string) tea.Cmd {
	cfg := m.cfg
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text, cfg)}
	}
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeDetail:
		return m.viewDetail()
	case ModeSearch:
		return m.viewSearch()
	case ModeHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

func (m Model) viewList() string {
	s := m.list.View()

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		s += "\n" + statusStyle.Render(m.statusMsg)
	} else if m.cfg.TUI.ShowHelp {
		s += "\n" + m.buildKeybindBar(m.width, ModeList)
	}

	return s
}

func (m Model) viewDetail() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Render("Comment")

	return header + "\n" + m.viewport.View() + "\n" + m.buildKeybindBar(m.width, ModeDetail)
}

func (m Model) viewSearch() string {
	countStr := fmt.Sprintf("(%s matches)", humanize.Comma(int64(len(m.list.Items()))))

	searchBar := "Search: " + m.searchInput.View() + " " +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(countStr)

	return searchBar + "\n" + m.list.View() + "\n" + m.buildKeybindBar(m.width, ModeSearch)
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	s := titleStyle.Render("Keyboard Shortcuts") + "\n\n"
	s += m.help.FullHelpView(m.keys.FullHelp())
	s += "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		"Press ? or esc to return")

	return s
}

type keybind struct {
	key  string
	desc string
}

// buildKeybindBar lists keybinds for mode, most important first, dropping
// whatever does not fit in width.
func (m Model) buildKeybindBar(width int, mode Mode) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	var binds []keybind
	switch mode {
	case ModeList:
		binds = []keybind{
			{"q", "quit"},
			{"enter", "view"},
			{"?", "help"},
			{"/", "search"},
			{"f", m.filter.String()},
			{"c", "copy"},
			{"s", "song"},
			{"D", "delete"},
		}
	case ModeDetail:
		binds = []keybind{
			{"q", "quit"},
			{"esc", "back"},
			{"/", "search"},
			{"c", "copy"},
			{"D", "delete"},
			{"j/k", "scroll"},
		}
	case ModeSearch:
		binds = []keybind{
			{"enter", "view"},
			{"esc", "close"},
			{"↑/↓", "navigate"},
		}
	}

	const separator = "  "
	var result strings.Builder
	plainLen := 0
	for _, b := range binds {
		plain := b.key + " " + b.desc
		n := lipgloss.Width(plain)
		if plainLen > 0 {
			n += len(separator)
		}
		if width > 0 && plainLen+n > width {
			break
		}
		if plainLen > 0 {
			result.WriteString(separator)
		}
		result.WriteString(keyStyle.Render(b.key) + " " + b.desc)
		plainLen += n
	}

	return style.Render(result.String())
}

// RunOptions configures the TUI.
type RunOptions struct {
	Config *config.Config
	Store  Store
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, opts RunOptions) error {
	if opts.Store == nil {
		return fmt.Errorf("no annotation store provided")
	}

	m := New(ctx, opts.Config, opts.Store)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	return err
}
