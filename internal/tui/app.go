package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/youcap/youcap/internal/auth"
	"github.com/youcap/youcap/internal/config"
	"github.com/youcap/youcap/internal/feed"
	"github.com/youcap/youcap/internal/index"
	"github.com/youcap/youcap/internal/player"
	"github.com/youcap/youcap/internal/storage"
	"github.com/youcap/youcap/internal/transcript"
	"github.com/youcap/youcap/internal/youtube"
)

type App struct {
	config     *config.Config
	store      *storage.Store
	flow       *auth.Flow
	client     *youtube.Client
	aggregator *feed.Aggregator
	fetcher    *transcript.Fetcher
	index      *index.Index
	launcher   *player.Launcher

	feedList    list.Model
	searchList  list.Model
	mutesList   list.Model
	searchInput textinput.Model
	viewport    viewport.Model

	view         View
	previousView View
	status       string
	loading      bool
	width        int
	height       int
	err          error

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

// Deps bundles the components the TUI drives. Index may be nil when the
// search index could not be opened.
type Deps struct {
	Store      *storage.Store
	Flow       *auth.Flow
	Client     *youtube.Client
	Aggregator *feed.Aggregator
	Fetcher    *transcript.Fetcher
	Index      *index.Index
	Launcher   *player.Launcher
}

func NewApp(cfg *config.Config, deps Deps) *App {
	feedList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	feedList.Title = "› subscription feed"
	feedList.SetShowStatusBar(false)
	feedList.SetFilteringEnabled(true)

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› search results"
	searchList.SetShowStatusBar(false)
	searchList.SetFilteringEnabled(false)

	mutesList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	mutesList.Title = "› muted channels"
	mutesList.SetShowStatusBar(false)
	mutesList.SetFilteringEnabled(false)

	si := textinput.New()
	si.Placeholder = "Search YouTube..."

	return &App{
		config:      cfg,
		store:       deps.Store,
		flow:        deps.Flow,
		client:      deps.Client,
		aggregator:  deps.Aggregator,
		fetcher:     deps.Fetcher,
		index:       deps.Index,
		launcher:    deps.Launcher,
		feedList:    feedList,
		searchList:  searchList,
		mutesList:   mutesList,
		searchInput: si,
		viewport:    viewport.New(0, 0),
		view:        ViewFeed,
	}
}

func (a *App) Init() tea.Cmd {
	a.loading = true
	a.status = "loading subscription feed..."
	return a.loadFeed()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case feedLoadedMsg:
		a.loading = false
		a.err = nil
		items := make([]list.Item, 0, len(msg.videos))
		for _, v := range msg.videos {
			items = append(items, videoItem{video: v})
		}
		a.feedList.SetItems(items)
		if len(items) == 0 {
			a.status = "feed is empty"
		} else {
			a.status = fmt.Sprintf("%d videos", len(items))
		}
		return a, nil

	case searchResultsMsg:
		a.loading = false
		a.err = nil
		items := make([]list.Item, 0, len(msg.videos))
		for _, v := range msg.videos {
			items = append(items, videoItem{video: v})
		}
		a.searchList.SetItems(items)
		a.searchList.Title = "› search: " + msg.query
		a.view = ViewSearch
		a.status = fmt.Sprintf("%d results", len(items))
		return a, nil

	case transcriptMsg:
		a.loading = false
		a.err = nil
		a.showTranscript(msg)
		return a, nil

	case mutesChangedMsg:
		items := make([]list.Item, 0, len(msg.muted))
		for _, m := range msg.muted {
			items = append(items, muteItem{channel: m})
		}
		a.mutesList.SetItems(items)
		a.status = fmt.Sprintf("%d muted channels", len(msg.muted))
		return a, nil

	case playStartedMsg:
		a.status = "playing " + msg.videoID
		return a, nil

	case errorMsg:
		a.loading = false
		a.err = msg.err
		a.status = ""
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, a.updateActiveComponent(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Search input captures everything except escape and enter
	if a.view == ViewSearchInput {
		switch msg.String() {
		case "esc":
			a.searchInput.Blur()
			a.view = a.previousView
			return a, nil
		case "enter":
			query := strings.TrimSpace(a.searchInput.Value())
			a.searchInput.Blur()
			if query == "" {
				a.view = a.previousView
				return a, nil
			}
			a.loading = true
			a.status = "searching..."
			return a, a.runSearch(query)
		}
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "/":
		a.previousView = a.view
		a.view = ViewSearchInput
		a.searchInput.SetValue("")
		a.searchInput.Focus()
		return a, textinput.Blink

	case "r":
		if a.view == ViewFeed {
			a.loading = true
			a.status = "refreshing feed..."
			return a, a.loadFeed()
		}

	case "M":
		a.view = ViewMutes
		return a, func() tea.Msg {
			return mutesChangedMsg{muted: a.aggregator.MutedChannels()}
		}

	case "m":
		if v, ok := a.selectedVideo(); ok {
			a.status = "muted " + v.Channel
			return a, a.muteChannel(v)
		}

	case "u":
		if a.view == ViewMutes {
			if item, ok := a.mutesList.SelectedItem().(muteItem); ok {
				a.status = "unmuted " + item.channel.Name
				return a, a.unmuteChannel(item.channel.ID)
			}
		}

	case "o":
		if v, ok := a.selectedVideo(); ok {
			return a, a.playVideo(v)
		}

	case "enter", "t":
		if v, ok := a.selectedVideo(); ok {
			a.loading = true
			a.status = "fetching transcript..."
			return a, a.loadTranscript(v)
		}

	case "esc":
		switch a.view {
		case ViewTranscript, ViewMutes, ViewSearch:
			a.view = ViewFeed
			return a, nil
		}
	}

	return a, a.updateActiveComponent(msg)
}

func (a *App) updateActiveComponent(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.view {
	case ViewFeed:
		a.feedList, cmd = a.feedList.Update(msg)
	case ViewSearch:
		a.searchList, cmd = a.searchList.Update(msg)
	case ViewMutes:
		a.mutesList, cmd = a.mutesList.Update(msg)
	case ViewTranscript:
		a.viewport, cmd = a.viewport.Update(msg)
	}
	return cmd
}

func (a *App) selectedVideo() (youtube.Video, bool) {
	var item list.Item
	switch a.view {
	case ViewFeed:
		item = a.feedList.SelectedItem()
	case ViewSearch:
		item = a.searchList.SelectedItem()
	default:
		return youtube.Video{}, false
	}

	if vi, ok := item.(videoItem); ok {
		return vi.video, true
	}
	return youtube.Video{}, false
}

func (a *App) showTranscript(msg transcriptMsg) {
	var content strings.Builder
	content.WriteString(fmt.Sprintf("# %s\n\n", msg.title))
	if msg.channel != "" {
		content.WriteString(fmt.Sprintf("*%s*\n\n", msg.channel))
	}
	content.WriteString("---\n\n")
	content.WriteString(msg.text)

	rendered := content.String()
	if renderer := a.renderer(); renderer != nil {
		if out, err := renderer.Render(rendered); err == nil {
			rendered = out
		}
	}

	a.viewport.SetContent(rendered)
	a.viewport.GotoTop()
	a.view = ViewTranscript
	a.status = msg.videoID
}

func (a *App) renderer() *glamour.TermRenderer {
	width := a.width - 4
	if width < 20 {
		width = 20
	}
	if a.glamourRenderer == nil || a.rendererWidth != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return a.glamourRenderer
		}
		a.glamourRenderer = renderer
		a.rendererWidth = width
	}
	return a.glamourRenderer
}

func (a *App) resize() {
	listHeight := a.height - 3
	if listHeight < 1 {
		listHeight = 1
	}
	a.feedList.SetSize(a.width, listHeight)
	a.searchList.SetSize(a.width, listHeight)
	a.mutesList.SetSize(a.width, listHeight)
	a.viewport.Width = a.width
	a.viewport.Height = listHeight
	a.searchInput.Width = a.width - 4
}

func (a *App) View() string {
	var body string
	switch a.view {
	case ViewFeed:
		body = a.feedList.View()
	case ViewSearch:
		body = a.searchList.View()
	case ViewMutes:
		body = a.mutesList.View()
	case ViewTranscript:
		body = a.viewport.View()
	case ViewSearchInput:
		body = lipgloss.NewStyle().Padding(1, 2).Render(a.searchInput.View())
	}

	return body + "\n" + a.statusLine()
}

func (a *App) statusLine() string {
	colors := a.config.UI.Colors

	if a.err != nil {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(colors.Error)).
			Render("✗ " + a.err.Error())
	}

	status := a.status
	if a.loading {
		status = "… " + status
	}

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Muted)).
		Render(status)
}
