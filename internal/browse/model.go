// Package browse is the terminal gallery browser: a search line over an
// endless list of artworks with a detail pane for the selected one.
package browse

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lehigh-university-libraries/gallery/internal/gallery"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/paging"
	"github.com/lehigh-university-libraries/gallery/internal/savedstate"
	"github.com/lehigh-university-libraries/gallery/internal/viewmodel"
)

type focusRegion int

const (
	focusList focusRegion = iota
	focusSearch
	focusDetail
)

// defaultHeight is used until the terminal reports its size
const defaultHeight = 24

// chromeLines is the number of lines around the list: search line, status
// line and help line.
const chromeLines = 4

type snapshotMsg struct {
	snapshot paging.Snapshot[models.Artwork]
}

type queryMsg struct {
	query string
}

type loadDoneMsg struct {
	err error
}

type detailMsg struct {
	vm    *viewmodel.ArtworkDetailViewModel
	state viewmodel.ArtworkDetailState
}

// Model implements tea.Model
type Model struct {
	ctx     context.Context
	gallery *viewmodel.GalleryViewModel
	repo    gallery.Repository
	updates <-chan paging.Snapshot[models.Artwork]
	queries <-chan string
	keys    KeyMap

	input textinput.Model
	focus focusRegion
	query string

	snapshot paging.Snapshot[models.Artwork]
	cursor   int
	offset   int

	detail      *viewmodel.ArtworkDetailViewModel
	detailState viewmodel.ArtworkDetailState

	width  int
	height int
}

// NewModel creates a browser over vm. Snapshots are followed until ctx is
// done; artwork details are loaded through repo.
func NewModel(ctx context.Context, vm *viewmodel.GalleryViewModel, repo gallery.Repository) Model {
	input := textinput.New()
	input.Placeholder = "Search artworks"
	input.Prompt = "/ "
	query := vm.State().Query
	input.SetValue(query)

	return Model{
		ctx:     ctx,
		gallery: vm,
		repo:    repo,
		updates: vm.Subscribe(ctx),
		queries: vm.Queries(ctx),
		keys:    DefaultKeyMap,
		input:   input,
		query:   query,
		height:  defaultHeight,
	}
}

// Init implements tea.Model. It follows the snapshot stream and marks the
// first item as displayed so the initial results load.
func (model Model) Init() tea.Cmd {
	return tea.Batch(listenForSnapshot(model.updates), listenForQuery(model.queries), model.access(0))
}

// listenForQuery returns a tea.Cmd that blocks until the query changes
func listenForQuery(channel <-chan string) tea.Cmd {
	return func() tea.Msg {
		query, ok := <-channel
		if !ok {
			return nil
		}
		return queryMsg{query: query}
	}
}

// listenForSnapshot returns a tea.Cmd that blocks until the next snapshot
func listenForSnapshot(channel <-chan paging.Snapshot[models.Artwork]) tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-channel
		if !ok {
			return nil
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

func (model Model) access(index int) tea.Cmd {
	vm, ctx := model.gallery, model.ctx
	return func() tea.Msg {
		return loadDoneMsg{err: vm.Access(ctx, index)}
	}
}

func (model Model) retry() tea.Cmd {
	vm, ctx := model.gallery, model.ctx
	return func() tea.Msg {
		return loadDoneMsg{err: vm.Retry(ctx)}
	}
}

func waitForDetail(ctx context.Context, vm *viewmodel.ArtworkDetailViewModel) tea.Cmd {
	return func() tea.Msg {
		state, _ := vm.Wait(ctx)
		return detailMsg{vm: vm, state: state}
	}
}

// Update implements tea.Model
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.input.Width = message.Width - 4
		return model, nil

	case queryMsg:
		model.setQuery(message.query)
		return model, listenForQuery(model.queries)

	case snapshotMsg:
		model.snapshot = message.snapshot
		model.clampCursor()
		return model, listenForSnapshot(model.updates)

	case loadDoneMsg:
		// failures surface through the load states of the next snapshot
		return model, nil

	case detailMsg:
		if message.vm == model.detail {
			model.detailState = message.state
		}
		return model, nil

	case tea.KeyMsg:
		switch model.focus {
		case focusSearch:
			return model.handleSearchKeys(message)
		case focusDetail:
			return model.handleDetailKeys(message)
		default:
			return model.handleListKeys(message)
		}
	}
	return model, nil
}

func (model Model) handleSearchKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case message.Type == tea.KeyCtrlC:
		return model.quit()
	case key.Matches(message, model.keys.Submit):
		model.gallery.Dispatch(viewmodel.Search{Query: model.input.Value()})
		model.input.Blur()
		model.focus = focusList
		model.setQuery(model.input.Value())
		return model, model.access(model.cursor)
	case key.Matches(message, model.keys.Back):
		model.input.SetValue(model.query)
		model.input.Blur()
		model.focus = focusList
		return model, nil
	}

	var cmd tea.Cmd
	model.input, cmd = model.input.Update(message)
	return model, cmd
}

func (model Model) handleDetailKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model.quit()
	case key.Matches(message, model.keys.Back):
		model.closeDetail()
		model.focus = focusList
	}
	return model, nil
}

func (model Model) handleListKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := model.listHeight()

	switch {
	case key.Matches(message, model.keys.Quit):
		return model.quit()
	case key.Matches(message, model.keys.Search):
		model.focus = focusSearch
		return model, model.input.Focus()
	case key.Matches(message, model.keys.Retry):
		if model.canRetry() {
			return model, model.retry()
		}
		return model, nil
	case key.Matches(message, model.keys.Submit):
		return model.openDetail()
	case key.Matches(message, model.keys.Up):
		model.cursor--
	case key.Matches(message, model.keys.Down):
		model.cursor++
	case key.Matches(message, model.keys.PageUp):
		model.cursor -= page
	case key.Matches(message, model.keys.PageDown):
		model.cursor += page
	case key.Matches(message, model.keys.Home):
		model.cursor = 0
	case key.Matches(message, model.keys.End):
		model.cursor = len(model.snapshot.Items) - 1
	default:
		return model, nil
	}

	model.clampCursor()
	return model, model.access(model.cursor)
}

func (model Model) openDetail() (tea.Model, tea.Cmd) {
	if model.cursor >= len(model.snapshot.Items) {
		return model, nil
	}
	artwork := model.snapshot.Items[model.cursor]

	model.closeDetail()
	saved := savedstate.New(map[string]any{viewmodel.ArtworkIDKey: artwork.ID})
	model.detail = viewmodel.NewArtworkDetailViewModel(saved, model.repo)
	model.detailState = model.detail.State()
	model.focus = focusDetail
	return model, waitForDetail(model.ctx, model.detail)
}

func (model *Model) closeDetail() {
	if model.detail != nil {
		model.detail.Close()
		model.detail = nil
	}
}

func (model Model) quit() (tea.Model, tea.Cmd) {
	model.closeDetail()
	return model, tea.Quit
}

// setQuery moves the list back to the top when the query changed. Reloads
// of the same query keep the cursor where it is.
func (model *Model) setQuery(query string) {
	if query == model.query {
		return
	}
	model.query = query
	model.cursor, model.offset = 0, 0
	if model.focus != focusSearch {
		model.input.SetValue(query)
	}
}

func (model *Model) clampCursor() {
	if model.cursor >= len(model.snapshot.Items) {
		model.cursor = len(model.snapshot.Items) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}

	height := model.listHeight()
	if model.cursor < model.offset {
		model.offset = model.cursor
	}
	if model.cursor >= model.offset+height {
		model.offset = model.cursor - height + 1
	}
}

func (model Model) listHeight() int {
	height := model.height - chromeLines
	if height < 1 {
		return 1
	}
	return height
}

// canRetry reports whether a refresh or append failed. Prepend failures are
// not offered since results always start at the first page.
func (model Model) canRetry() bool {
	states := model.snapshot.LoadStates
	return states.Refresh.Status == paging.Failed || states.Append.Status == paging.Failed
}

// View implements tea.Model
func (model Model) View() string {
	if model.focus == focusDetail {
		return model.detailView()
	}

	var b strings.Builder
	b.WriteString(model.input.View())
	b.WriteString("\n\n")
	b.WriteString(model.listView())
	b.WriteString("\n")
	b.WriteString(model.statusView())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("/ search • enter open • r retry • q quit"))
	return b.String()
}

func (model Model) listView() string {
	states := model.snapshot.LoadStates
	items := model.snapshot.Items

	if len(items) == 0 {
		switch states.Refresh.Status {
		case paging.Loading:
			return statusStyle.Render("Loading artworks…")
		case paging.Failed:
			return errorStyle.Render("Couldn't load artworks. Press r to retry.")
		}
		if states.Append.EndOfPaginationReached {
			return statusStyle.Render("No artworks found.")
		}
		return ""
	}

	end := model.offset + model.listHeight()
	if end > len(items) {
		end = len(items)
	}

	lines := make([]string, 0, end-model.offset)
	for i := model.offset; i < end; i++ {
		lines = append(lines, model.renderRow(i, items[i]))
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderRow(index int, artwork models.Artwork) string {
	artist := strings.SplitN(artwork.Artist(), "\n", 2)[0]
	if index == model.cursor {
		return selectedStyle.Render(fmt.Sprintf("> %s", artwork.Label())) + " " + artistStyle.Render(artist)
	}
	return fmt.Sprintf("  %s %s", artwork.Label(), artistStyle.Render(artist))
}

func (model Model) statusView() string {
	states := model.snapshot.LoadStates
	switch {
	case states.Append.Status == paging.Failed:
		return errorStyle.Render("Couldn't load more artworks. Press r to retry.")
	case states.IsLoading():
		return statusStyle.Render(fmt.Sprintf("%d artworks • loading…", len(model.snapshot.Items)))
	case states.Append.EndOfPaginationReached:
		return statusStyle.Render(fmt.Sprintf("%d artworks • end of results", len(model.snapshot.Items)))
	default:
		return statusStyle.Render(fmt.Sprintf("%d artworks", len(model.snapshot.Items)))
	}
}

func (model Model) detailView() string {
	var body string

	switch status := model.detailState.LoadStatus.(type) {
	case viewmodel.Loaded:
		body = renderArtwork(status.Artwork)
	case viewmodel.LoadFailed:
		// the cause is only logged
		body = statusStyle.Render("This artwork is unavailable.")
	default:
		body = statusStyle.Render("Loading…")
	}

	return detailStyle.Render(body) + "\n" + statusStyle.Render("esc back • q quit")
}

func renderArtwork(artwork models.Artwork) string {
	rows := []string{titleStyle.Render(artwork.Label())}

	field := func(label string, value string) {
		if value != "" {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value))
		}
	}
	field("Artist", artwork.Artist())
	field("Date", models.Deref(artwork.DateDisplay))
	field("Medium", models.Deref(artwork.MediumDisplay))
	field("Origin", models.Deref(artwork.PlaceOfOrigin))
	if artwork.IsOnView != nil && *artwork.IsOnView {
		where := models.Deref(artwork.GalleryTitle)
		if where == "" {
			where = "Yes"
		}
		field("On view", where)
	}
	field("Image", artwork.FullImageURL())

	return strings.Join(rows, "\n")
}
