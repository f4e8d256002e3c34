package ui

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/csams/podcast-player/internal/models"
	"github.com/csams/podcast-player/internal/player"
	"github.com/csams/podcast-player/internal/timefmt"
	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/mo"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
)

// Layout switches to side-by-side panels at this width
const wideLayoutWidth = 100

type Options struct {
	Playlist *models.Playlist
	SeekStep int // Seconds moved by the seek keys
	Autoplay bool
	Logger   zerolog.Logger

	// Fuzzy match threshold; the search default applies when absent
	SearchMinScore mo.Option[int]
}

type App struct {
	screen     tcell.Screen
	store      *player.Store
	media      player.MediaElement
	playerView *PlayerView
	episodes   *EpisodeListView
	helpDialog *HelpDialog
	logger     zerolog.Logger

	mode          Mode
	statusMessage string
	seekStep      int
	lastButtons   tcell.ButtonMask

	unsubscribe  func()
	quit         chan struct{}
	quitOnce     sync.Once
	shutdownOnce sync.Once
}

// NewApp wires the views to store and media. The app owns media from here on and closes it on shutdown.
func NewApp(store *player.Store, media player.MediaElement, opts Options) *App {
	if opts.SeekStep <= 0 {
		opts.SeekStep = 10
	}

	a := &App{
		store:      store,
		media:      media,
		episodes:   NewEpisodeListView(),
		helpDialog: NewHelpDialog(),
		logger:     opts.Logger,
		seekStep:   opts.SeekStep,
		quit:       make(chan struct{}),
	}

	if score, ok := opts.SearchMinScore.Get(); ok {
		a.episodes.GetSearchState().SetMinScore(score)
	}
	a.episodes.SetPlaylist(opts.Playlist)
	a.playerView = NewPlayerView(store, media, PlayerViewOptions{
		Autoplay: opts.Autoplay,
		Logger:   opts.Logger,
	})
	a.unsubscribe = store.Subscribe(a.onStoreChange)
	a.onStoreChange(store.Snapshot())

	return a
}

// Run takes over the terminal until the user quits or a SIGINT/SIGTERM arrives
func (a *App) Run() error {
	s, err := tcell.NewScreen()
	if err != nil {
		return errors.Wrap(err, "failed to create screen")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			a.logger.Info().Str("Method", "Run").Str("Signal", sig.String()).Msg("received signal, shutting down")
			a.Quit()
		case <-a.quit:
		}
	}()

	return a.RunScreen(s)
}

// RunScreen runs the event loop on an already created screen
func (a *App) RunScreen(s tcell.Screen) error {
	if err := s.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize screen")
	}
	a.screen = s

	defer func() {
		a.shutdown()
		s.Fini()
	}()

	s.SetStyle(baseStyle())
	s.EnableMouse()
	s.Clear()

	a.logger.Info().Str("Method", "RunScreen").Int("Episodes", len(a.episodes.Playlist().Episodes)).Msg("player started")

	a.handleEvents()
	return nil
}

// Quit stops the event loop. Safe to call from any goroutine and more than once.
func (a *App) Quit() {
	a.quitOnce.Do(func() {
		close(a.quit)
	})
}

func (a *App) shutdown() {
	a.shutdownOnce.Do(func() {
		a.logger.Info().Str("Method", "shutdown").Msg("shutting down")
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		a.playerView.Close()
		a.media.Close()
	})
}

// handleEvents serializes screen input and media events onto this goroutine
func (a *App) handleEvents() {
	eventChan := make(chan tcell.Event)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				close(eventChan)
				return
			}
			select {
			case eventChan <- ev:
			case <-a.quit:
				return
			}
		}
	}()

	mediaEvents := a.media.Events()
	a.draw()

	for {
		select {
		case <-a.quit:
			return
		case ev, ok := <-mediaEvents:
			if !ok {
				mediaEvents = nil
				continue
			}
			if a.handleMediaEvent(ev) {
				a.draw()
			}
		case ev, ok := <-eventChan:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				a.screen.Sync()
				a.draw()
			case *tcell.EventKey:
				if a.handleKey(ev) {
					a.draw()
				}
			case *tcell.EventMouse:
				if a.handleMouse(ev) {
					a.draw()
				}
			}
		}
	}
}

func (a *App) handleMediaEvent(ev player.Event) bool {
	if ev.Kind != player.EventTimeUpdate {
		a.logger.Debug().Str("Method", "handleMediaEvent").Str("Kind", ev.Kind.String()).Float64("Position", ev.Position).Msg("media event")
	}
	return a.playerView.HandleMediaEvent(ev)
}

func (a *App) onStoreChange(snap player.Snapshot) {
	id := ""
	if episode, ok := snap.Current().Get(); ok {
		id = episode.ID
	}
	a.episodes.SetNowPlaying(id, snap.IsPlaying)
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	if a.helpDialog.IsVisible() {
		return a.helpDialog.HandleKey(ev)
	}

	if a.mode == ModeSearch {
		return a.handleSearchKey(ev)
	}

	switch ev.Key() {
	case tcell.KeyCtrlC:
		a.Quit()
		return false
	case tcell.KeyLeft:
		a.playerView.SeekBy(-a.seekStep)
		return true
	case tcell.KeyRight:
		a.playerView.SeekBy(a.seekStep)
		return true
	case tcell.KeyEnter:
		a.playSelected()
		return true
	case tcell.KeyEscape:
		if a.episodes.GetSearchState().Query() != "" {
			a.episodes.ClearSearch()
			return true
		}
		return a.clearStatusMessage()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			a.Quit()
			return false
		case ' ':
			return a.activate(ControlPlayPause)
		case 'n':
			return a.activate(ControlNext)
		case 'p':
			return a.activate(ControlPrevious)
		case 's':
			return a.activate(ControlShuffle)
		case 'r':
			return a.activate(ControlRepeat)
		case 'c':
			a.store.ClearPlayerState()
			a.statusMessage = "Player cleared"
			return true
		case '/':
			a.mode = ModeSearch
			return true
		case '?':
			a.helpDialog.Show()
			return true
		}
	}

	if a.episodes.HandleKey(ev) {
		a.clearStatusMessage()
		return true
	}
	return false
}

func (a *App) handleSearchKey(ev *tcell.EventKey) bool {
	searchState := a.episodes.GetSearchState()
	prevQuery := searchState.Query()

	switch ev.Key() {
	case tcell.KeyEnter:
		// Keep the filter; the best match is already selected
		a.mode = ModeNormal
		return true
	case tcell.KeyEscape:
		a.mode = ModeNormal
		a.episodes.ClearSearch()
		return true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		searchState.DeleteChar()
	case tcell.KeyDelete, tcell.KeyCtrlD:
		searchState.DeleteCharForward()
	case tcell.KeyLeft, tcell.KeyCtrlB:
		searchState.MoveCursorLeft()
	case tcell.KeyRight, tcell.KeyCtrlF:
		searchState.MoveCursorRight()
	case tcell.KeyHome, tcell.KeyCtrlA:
		searchState.MoveCursorStart()
	case tcell.KeyEnd, tcell.KeyCtrlE:
		searchState.MoveCursorEnd()
	case tcell.KeyCtrlK:
		searchState.DeleteToEnd()
	case tcell.KeyCtrlW:
		searchState.DeleteWord()
	case tcell.KeyCtrlU:
		searchState.MoveCursorStart()
		searchState.DeleteToEnd()
	case tcell.KeyCtrlT:
		a.statusMessage = searchState.CycleMinScore()
		a.episodes.UpdateSearch()
	case tcell.KeyRune:
		searchState.InsertChar(ev.Rune())
	}

	if searchState.Query() != prevQuery {
		a.episodes.UpdateSearch()
	}
	return true
}

func (a *App) activate(kind ControlKind) bool {
	if !a.playerView.Activate(kind) {
		a.statusMessage = fmt.Sprintf("%s unavailable", strings.ToUpper(kind.String()[:1])+kind.String()[1:])
		return true
	}
	a.clearStatusMessage()
	return true
}

// playSelected plays the whole playlist starting at the selected episode
func (a *App) playSelected() {
	idx := a.episodes.SelectedIndex()
	if idx < 0 {
		return
	}
	episodes := a.episodes.Playlist().Episodes
	a.logger.Info().Str("Method", "playSelected").Str("Title", episodes[idx].Title).Int("Index", idx).Msg("playing episode")
	a.store.PlayList(episodes, idx)
	a.clearStatusMessage()
}

// handleMouse acts on the press edge of the primary button only
func (a *App) handleMouse(ev *tcell.EventMouse) bool {
	buttons := ev.Buttons()
	pressed := buttons&tcell.Button1 != 0 && a.lastButtons&tcell.Button1 == 0
	a.lastButtons = buttons
	if !pressed || a.helpDialog.IsVisible() {
		return false
	}

	x, y := ev.Position()
	if a.playerView.HandleClick(x, y) {
		return true
	}

	hit, wasSelected := a.episodes.HandleClick(x, y)
	if hit && wasSelected {
		a.playSelected()
	}
	return hit
}

func (a *App) clearStatusMessage() bool {
	if a.statusMessage == "" {
		return false
	}
	a.statusMessage = ""
	return true
}

// layout positions the panels: side by side on wide terminals, stacked otherwise
func (a *App) layout(w, h int) {
	bodyHeight := max(h-1, 0)
	if w >= wideLayoutWidth {
		playerWidth := max(w/3, 40)
		a.playerView.SetPosition(0, 0, playerWidth)
		a.episodes.SetBounds(playerWidth+1, 0, w-playerWidth-1, bodyHeight)
		return
	}
	a.playerView.SetPosition(0, 0, w)
	a.episodes.SetBounds(0, PlayerViewHeight, w, max(bodyHeight-PlayerViewHeight, 0))
}

func (a *App) draw() {
	w, h := a.screen.Size()
	style := baseStyle()
	for y := 0; y < h; y++ {
		fillRow(a.screen, 0, y, w, style)
	}

	a.layout(w, h)
	a.playerView.Draw(a.screen)
	a.episodes.Draw(a.screen)
	a.drawStatusBar()
	a.helpDialog.Draw(a.screen)

	a.screen.Show()
}

func (a *App) formatPlayerStatus() string {
	snap := a.store.Snapshot()
	if snap.Current().IsAbsent() {
		return ""
	}

	status := "▶"
	if !snap.IsPlaying {
		status = "⏸"
	}

	parts := []string{fmt.Sprintf("[%s %s/%s]", status,
		timefmt.DurationToTimeString(a.playerView.Progress()),
		timefmt.DurationToTimeString(a.playerView.Duration()))}
	if snap.IsShuffling {
		parts = append(parts, "[shuffle]")
	}
	if snap.IsLooping {
		parts = append(parts, "[repeat]")
	}
	return strings.Join(parts, " ")
}

func (a *App) drawStatusBar() {
	w, h := a.screen.Size()
	style := tcell.StyleDefault.Background(ColorBgHighlight).Foreground(ColorFg)
	fillRow(a.screen, 0, h-1, w, style)

	modeStr := "NORMAL"
	if a.mode == ModeSearch {
		modeStr = "/" + a.episodes.GetSearchState().Query()
	}
	drawText(a.screen, 0, h-1, style, modeStr)

	if a.mode == ModeSearch {
		searchState := a.episodes.GetSearchState()
		query := []rune(searchState.Query())
		cursorX := 1 + searchState.CursorPos()
		cursorRune := ' '
		if searchState.CursorPos() < len(query) {
			cursorRune = query[searchState.CursorPos()]
		}
		a.screen.SetContent(cursorX, h-1, cursorRune, nil, style.Reverse(true))
	}

	playerStatus := a.formatPlayerStatus()
	if playerStatus != "" {
		drawText(a.screen, w-textWidth(playerStatus)-1, h-1, style, playerStatus)
	}

	if a.statusMessage != "" {
		msgStyle := style.Foreground(ColorYellow)
		maxMsgWidth := w - textWidth(modeStr) - textWidth(playerStatus) - 4
		drawTextClipped(a.screen, textWidth(modeStr)+2, h-1, maxMsgWidth, msgStyle, a.statusMessage)
	}
}
