package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/csams/podcast-player/internal/player"
	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/samber/mo"
)

func newTestApp(t *testing.T, episodes int) (*App, *player.Store, *fakeMedia) {
	t.Helper()
	store := player.NewStore()
	media := newFakeMedia()
	app := NewApp(store, media, Options{
		Playlist: testPlaylist(episodes),
		SeekStep: 15,
		Autoplay: true,
		Logger:   zerolog.Nop(),
	})
	return app, store, media
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func specialKey(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func TestApp_EnterPlaysFromSelection(t *testing.T) {
	app, store, media := newTestApp(t, 3)

	app.handleKey(runeKey('j'))
	app.handleKey(specialKey(tcell.KeyEnter))

	if store.CurrentIndex() != 1 || len(store.Episodes()) != 3 {
		t.Fatalf("Expected the full list playing from index 1, got index %d of %d", store.CurrentIndex(), len(store.Episodes()))
	}
	if !store.IsPlaying() {
		t.Error("Expected playback to start")
	}
	if len(media.loaded) != 1 || media.loaded[0] != "https://example.com/1.mp3" {
		t.Errorf("Expected episode 1 loaded, got %v", media.loaded)
	}
	if app.episodes.currentID != "ep-1" || !app.episodes.playing {
		t.Error("Expected the list to mark the playing episode")
	}
}

func TestApp_ListTracksRefusedPlayback(t *testing.T) {
	testCases := []struct {
		name     string
		autoplay bool
		playErr  error
	}{
		{"play refused", true, errAutoplayBlocked},
		{"autoplay off", false, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := player.NewStore()
			media := newFakeMedia()
			media.playErr = tc.playErr
			app := NewApp(store, media, Options{
				Playlist: testPlaylist(2),
				Autoplay: tc.autoplay,
				Logger:   zerolog.Nop(),
			})

			app.handleKey(specialKey(tcell.KeyEnter))

			if store.IsPlaying() {
				t.Fatal("Expected the store to end up paused")
			}
			if app.episodes.playing != store.IsPlaying() {
				t.Errorf("Expected list play state %v, got %v", store.IsPlaying(), app.episodes.playing)
			}
			row := app.episodes.table.rows[0].(*EpisodeTableRow)
			if row.GetCell(0) != "⏸" {
				t.Errorf("Expected paused glyph, got %q", row.GetCell(0))
			}
		})
	}
}

func TestApp_SearchThresholdOption(t *testing.T) {
	app := NewApp(player.NewStore(), newFakeMedia(), Options{
		Playlist:       testPlaylist(2),
		Logger:         zerolog.Nop(),
		SearchMinScore: mo.Some(ScoreThresholdStrict),
	})
	if got := app.episodes.GetSearchState().GetMinScore(); got != ScoreThresholdStrict {
		t.Errorf("Expected strict threshold, got %d", got)
	}

	app = NewApp(player.NewStore(), newFakeMedia(), Options{Logger: zerolog.Nop()})
	if got := app.episodes.GetSearchState().GetMinScore(); got != ScoreThresholdNormal {
		t.Errorf("Expected default threshold without the option, got %d", got)
	}
}

func TestApp_TransportKeys(t *testing.T) {
	app, store, _ := newTestApp(t, 3)
	app.handleKey(specialKey(tcell.KeyEnter))

	app.handleKey(runeKey(' '))
	if store.IsPlaying() {
		t.Error("Expected space to pause")
	}

	app.handleKey(runeKey('n'))
	if store.CurrentIndex() != 1 {
		t.Errorf("Expected n to advance, got %d", store.CurrentIndex())
	}

	app.handleKey(runeKey('p'))
	if store.CurrentIndex() != 0 {
		t.Errorf("Expected p to go back, got %d", store.CurrentIndex())
	}

	app.handleKey(runeKey('s'))
	app.handleKey(runeKey('r'))
	if !store.IsShuffling() || !store.IsLooping() {
		t.Error("Expected s and r to toggle shuffle and repeat")
	}

	app.handleKey(runeKey('c'))
	if store.Current().IsPresent() {
		t.Error("Expected c to clear the player")
	}
}

func TestApp_DisabledControlReportsStatus(t *testing.T) {
	app, store, _ := newTestApp(t, 3)
	app.handleKey(specialKey(tcell.KeyEnter))

	app.handleKey(runeKey('p'))
	if store.CurrentIndex() != 0 {
		t.Errorf("Expected no previous from the first episode, got %d", store.CurrentIndex())
	}
	if app.statusMessage != "Previous unavailable" {
		t.Errorf("Expected unavailable status, got %q", app.statusMessage)
	}

	app.handleKey(specialKey(tcell.KeyEscape))
	if app.statusMessage != "" {
		t.Error("Expected Esc to clear the status")
	}
}

func TestApp_SeekKeys(t *testing.T) {
	app, _, media := newTestApp(t, 1)
	app.handleKey(specialKey(tcell.KeyEnter))

	app.handleKey(specialKey(tcell.KeyRight))
	app.handleKey(specialKey(tcell.KeyRight))
	if app.playerView.Progress() != 30 {
		t.Errorf("Expected two forward seeks of 15s, got %d", app.playerView.Progress())
	}

	app.handleKey(specialKey(tcell.KeyLeft))
	if app.playerView.Progress() != 15 {
		t.Errorf("Expected backward seek to 15, got %d", app.playerView.Progress())
	}
	if got := media.seeks[len(media.seeks)-1]; got != 15 {
		t.Errorf("Expected media at 15, got %v", got)
	}
}

func TestApp_SearchMode(t *testing.T) {
	app, _, _ := newTestApp(t, 3)
	app.episodes.GetSearchState().SetMinScore(ScoreThresholdNone)

	app.handleKey(runeKey('/'))
	if app.mode != ModeSearch {
		t.Fatal("Expected search mode")
	}

	for _, r := range "host 2" {
		app.handleKey(runeKey(r))
	}
	// Keys are text while searching
	if app.store.Current().IsPresent() {
		t.Error("Expected search input not to trigger transport keys")
	}

	app.handleKey(specialKey(tcell.KeyEnter))
	if app.mode != ModeNormal {
		t.Error("Expected Enter to leave search mode")
	}
	if app.episodes.GetSelected().ID != "ep-2" {
		t.Errorf("Expected best match selected, got %s", app.episodes.GetSelected().ID)
	}

	app.handleKey(specialKey(tcell.KeyEscape))
	if app.episodes.GetSearchState().Query() != "" || app.episodes.table.RowCount() != 3 {
		t.Error("Expected Esc to clear the filter")
	}
}

func TestApp_HelpDialog(t *testing.T) {
	app, store, _ := newTestApp(t, 2)

	app.handleKey(runeKey('?'))
	if !app.helpDialog.IsVisible() {
		t.Fatal("Expected help dialog visible")
	}

	// The dialog swallows keys
	app.handleKey(specialKey(tcell.KeyEnter))
	if store.Current().IsPresent() {
		t.Error("Expected keys consumed by the help dialog")
	}

	app.handleKey(specialKey(tcell.KeyEscape))
	if app.helpDialog.IsVisible() {
		t.Error("Expected Esc to close the help dialog")
	}
}

func TestApp_QuitKey(t *testing.T) {
	app, _, _ := newTestApp(t, 1)

	app.handleKey(runeKey('q'))
	select {
	case <-app.quit:
	default:
		t.Fatal("Expected q to close the quit channel")
	}

	// A second quit is harmless
	app.Quit()
}

func TestApp_MouseClicks(t *testing.T) {
	app, store, _ := newTestApp(t, 3)
	app.screen = newTestScreen(t, 80, 30)
	app.draw()

	// Stacked layout: list header at row 12, table header at 14, first row at 15
	click := func(x, y int) {
		app.handleMouse(tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone))
		app.handleMouse(tcell.NewEventMouse(x, y, tcell.ButtonNone, tcell.ModNone))
	}

	click(5, PlayerViewHeight+4)
	if app.episodes.SelectedIndex() != 1 {
		t.Fatalf("Expected row 1 selected, got %d", app.episodes.SelectedIndex())
	}
	if store.Current().IsPresent() {
		t.Error("Expected first click only to select")
	}

	click(5, PlayerViewHeight+4)
	if store.CurrentIndex() != 1 || !store.IsPlaying() {
		t.Error("Expected second click to play the row")
	}

	app.draw()
	var pause controlBox
	for _, box := range app.playerView.controlBoxes {
		if box.kind == ControlPlayPause {
			pause = box
		}
	}
	click(pause.x, pause.y)
	if store.IsPlaying() {
		t.Error("Expected click on play/pause to pause")
	}
}

func TestApp_Draw(t *testing.T) {
	app, _, _ := newTestApp(t, 2)

	for _, width := range []int{80, 120} {
		s := newTestScreen(t, width, 30)
		app.screen = s
		app.draw()
		text := screenText(s)

		for _, want := range []string{"Now playing", "Select a podcast to listen", "Test Feed (2)", "Episode 1", "NORMAL"} {
			if !strings.Contains(text, want) {
				t.Errorf("width %d: expected %q on screen, got:\n%s", width, want, text)
			}
		}
	}

	app.handleKey(specialKey(tcell.KeyEnter))
	app.draw()
	if text := screenText(app.screen.(tcell.SimulationScreen)); !strings.Contains(text, "[▶ 00:00/10:00]") {
		t.Errorf("Expected player status in the status bar, got:\n%s", text)
	}
}

func TestApp_RunScreenForwardsMediaEvents(t *testing.T) {
	app, store, media := newTestApp(t, 1)
	app.handleKey(specialKey(tcell.KeyEnter))

	media.events <- player.Event{Kind: player.EventEnded}

	s := tcell.NewSimulationScreen("UTF-8")
	done := make(chan error, 1)
	go func() {
		done <- app.RunScreen(s)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.Current().IsPresent() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for the ended event to clear the player")
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunScreen returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for quit")
	}

	if !media.closed {
		t.Error("Expected media closed on shutdown")
	}
}
