package ui

import (
	"math"

	"github.com/csams/podcast-player/internal/models"
	"github.com/csams/podcast-player/internal/player"
	"github.com/csams/podcast-player/internal/timefmt"
	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	playerHeader      = "Now playing"
	playerPlaceholder = "Select a podcast to listen"

	// PlayerViewHeight is the number of rows the panel draws
	PlayerViewHeight = 12
)

type controlBox struct {
	kind  ControlKind
	x, y  int
	width int
}

// PlayerView is the "now playing" panel. It keeps the media element in step with the
// store and turns media events and clicks into store actions. All methods must be
// called from the UI event loop.
type PlayerView struct {
	store    *player.Store
	media    player.MediaElement
	logger   zerolog.Logger
	autoplay bool

	unsubscribe  func()
	listeners    *player.Listeners
	stopProgress func()

	snap          player.Snapshot
	loadedID      string
	failedID      string // Episode whose last load failed; retried on the next play request
	lastPlaying   bool
	lastLooping   bool
	progress      int
	mediaDuration float64
	status        string

	x, y, width  int
	controlBoxes []controlBox
	sliderX      int
	sliderY      int
	sliderWidth  int
}

type PlayerViewOptions struct {
	Autoplay bool
	Logger   zerolog.Logger
}

// NewPlayerView subscribes to store and synchronizes media with the current state right away
func NewPlayerView(store *player.Store, media player.MediaElement, opts PlayerViewOptions) *PlayerView {
	v := &PlayerView{
		store:     store,
		media:     media,
		logger:    opts.Logger,
		autoplay:  opts.Autoplay,
		listeners: player.NewListeners(),
	}
	v.unsubscribe = store.Subscribe(v.sync)
	v.sync(store.Snapshot())
	return v
}

// Close stops observing the store and drops the time-update listener
func (v *PlayerView) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
	v.dropProgressListener()
}

func (v *PlayerView) Progress() int {
	return v.progress
}

// Status is the last playback problem shown under the controls, if any
func (v *PlayerView) Status() string {
	return v.status
}

func (v *PlayerView) Controls() []ControlState {
	return Controls(v.snap)
}

// Duration is the episode's declared duration, falling back to what the media element reports
func (v *PlayerView) Duration() int {
	episode, ok := v.snap.Current().Get()
	if !ok {
		return 0
	}
	if d := episode.DurationOrZero(); d > 0 {
		return d
	}
	return int(v.mediaDuration)
}

// sync is the store subscriber. It swaps the media source when the episode changes and
// forwards loop and play/pause changes to the media element.
func (v *PlayerView) sync(snap player.Snapshot) {
	v.snap = snap

	episode, ok := snap.Current().Get()
	if !ok {
		v.failedID = ""
		v.lastPlaying = snap.IsPlaying
		v.lastLooping = snap.IsLooping
		v.unload()
		return
	}

	if episode.ID != v.loadedID {
		if episode.ID == v.failedID && !snap.IsPlaying {
			v.lastPlaying = false
			v.lastLooping = snap.IsLooping
			return
		}
		if !v.load(episode, snap) {
			return
		}
	}

	if snap.IsLooping != v.lastLooping {
		v.lastLooping = snap.IsLooping
		v.setLoop(snap.IsLooping)
	}

	if snap.IsPlaying != v.lastPlaying {
		v.lastPlaying = snap.IsPlaying
		v.syncPlayback(snap.IsPlaying)
	}
}

// load points the media element at a new episode. It reports whether sync should continue.
func (v *PlayerView) load(episode *models.Episode, snap player.Snapshot) bool {
	v.loadedID = episode.ID
	v.failedID = ""
	v.progress = 0
	v.mediaDuration = 0
	v.status = ""
	v.dropProgressListener()

	v.logger.Debug().Str("Method", "load").Str("ID", episode.ID).Str("URL", episode.URL).Msg("loading episode")

	if err := v.media.Load(episode.URL); err != nil {
		v.logger.Error().Err(err).Str("Method", "load").Str("URL", episode.URL).Msg("failed to load episode")
		v.status = "Failed to load episode"
		v.loadedID = ""
		v.failedID = episode.ID
		v.lastPlaying = false
		// Stop whatever the previous source left behind
		if err := v.media.Unload(); err != nil {
			v.logger.Warn().Err(err).Str("Method", "load").Msg("failed to unload media")
		}
		if snap.IsPlaying {
			v.store.SetPlayingState(false)
		}
		return false
	}

	v.lastLooping = snap.IsLooping
	v.setLoop(snap.IsLooping)

	if snap.IsPlaying && !v.autoplay {
		v.lastPlaying = false
		v.syncPlayback(false)
		v.store.SetPlayingState(false)
		return false
	}

	// A fresh source always gets an explicit play or pause
	v.lastPlaying = !snap.IsPlaying
	return true
}

func (v *PlayerView) unload() {
	if v.loadedID == "" {
		return
	}
	v.loadedID = ""
	v.progress = 0
	v.mediaDuration = 0
	v.dropProgressListener()

	if err := v.media.Unload(); err != nil {
		v.logger.Warn().Err(err).Str("Method", "unload").Msg("failed to unload media")
	}
}

func (v *PlayerView) setLoop(loop bool) {
	if err := v.media.SetLoop(loop); err != nil {
		v.logger.Warn().Err(err).Str("Method", "setLoop").Bool("Loop", loop).Msg("failed to set loop")
	}
}

// syncPlayback issues exactly one play or pause. A refused play marks the store as not
// playing and leaves a status for the panel.
func (v *PlayerView) syncPlayback(playing bool) {
	if !playing {
		if err := v.media.Pause(); err != nil {
			v.logger.Warn().Err(err).Str("Method", "syncPlayback").Msg("failed to pause")
		}
		return
	}

	if err := v.media.Play(); err != nil {
		v.logger.Warn().Err(err).Str("Method", "syncPlayback").Msg("playback blocked")
		v.status = "Playback blocked"
		v.lastPlaying = false
		v.store.SetPlayingState(false)
		return
	}
	v.status = ""
}

// HandleMediaEvent reacts to one media element event and reports whether the panel needs a redraw
func (v *PlayerView) HandleMediaEvent(ev player.Event) bool {
	if ev.Duration > 0 {
		v.mediaDuration = ev.Duration
	}

	// Late events from a source that was already unloaded
	if v.loadedID == "" {
		return false
	}

	switch ev.Kind {
	case player.EventLoadedMetadata:
		v.onLoadedMetadata()
		return true
	case player.EventTimeUpdate:
		before := v.progress
		v.listeners.Dispatch(ev)
		return v.progress != before
	case player.EventPlay:
		v.store.SetPlayingState(true)
		return true
	case player.EventPause:
		v.store.SetPlayingState(false)
		return true
	case player.EventEnded:
		v.onEnded()
		return true
	case player.EventError:
		v.logger.Error().Err(ev.Err).Str("Method", "HandleMediaEvent").Str("ID", v.loadedID).Msg("playback error")
		v.status = "Playback error"
		v.store.SetPlayingState(false)
		return true
	}
	return false
}

// onLoadedMetadata rewinds the new source and replaces the time-update listener
func (v *PlayerView) onLoadedMetadata() {
	if err := v.media.SetCurrentTime(0); err != nil {
		v.logger.Warn().Err(err).Str("Method", "onLoadedMetadata").Msg("failed to rewind")
	}
	v.progress = 0

	v.dropProgressListener()
	v.stopProgress = v.listeners.Add(player.EventTimeUpdate, func(ev player.Event) {
		v.progress = max(int(math.Floor(ev.Position)), 0)
	})
}

func (v *PlayerView) dropProgressListener() {
	if v.stopProgress != nil {
		v.stopProgress()
		v.stopProgress = nil
	}
}

// onEnded advances the queue, or empties the player after the last episode
func (v *PlayerView) onEnded() {
	if v.store.HasNext() {
		v.logger.Debug().Str("Method", "onEnded").Msg("advancing to next episode")
		v.store.PlayNext()
		return
	}
	v.logger.Debug().Str("Method", "onEnded").Msg("queue finished")
	v.store.ClearPlayerState()
}

// Seek moves playback to amount seconds, clamped to the episode, and shows it immediately
func (v *PlayerView) Seek(amount float64) {
	if v.loadedID == "" {
		return
	}
	amount = lo.Clamp(amount, 0, float64(v.Duration()))

	if err := v.media.SetCurrentTime(amount); err != nil {
		v.logger.Warn().Err(err).Str("Method", "Seek").Float64("Position", amount).Msg("seek failed")
	}
	v.progress = int(amount)
}

// SeekBy moves playback delta seconds from the displayed position
func (v *PlayerView) SeekBy(delta int) {
	v.Seek(float64(v.progress + delta))
}

// Activate runs a control's action unless it is disabled
func (v *PlayerView) Activate(kind ControlKind) bool {
	for _, control := range v.Controls() {
		if control.Kind != kind {
			continue
		}
		if control.Disabled {
			return false
		}
		kind.apply(v.store)
		return true
	}
	return false
}

// HandleClick activates the control or seeks to the slider position under (x, y)
func (v *PlayerView) HandleClick(x, y int) bool {
	for _, box := range v.controlBoxes {
		if y == box.y && x >= box.x && x < box.x+box.width {
			return v.Activate(box.kind)
		}
	}

	if y == v.sliderY && v.sliderWidth > 1 && x >= v.sliderX && x < v.sliderX+v.sliderWidth {
		if v.loadedID == "" {
			return false
		}
		fraction := float64(x-v.sliderX) / float64(v.sliderWidth-1)
		v.Seek(fraction * float64(v.Duration()))
		return true
	}

	return false
}

func (v *PlayerView) SetPosition(x, y, width int) {
	v.x, v.y, v.width = x, y, width
}

func (v *PlayerView) Draw(s tcell.Screen) {
	if v.width <= 0 {
		return
	}
	style := baseStyle()
	for row := 0; row < PlayerViewHeight; row++ {
		fillRow(s, v.x, v.y+row, v.width, style)
	}

	inner := v.width - 2
	left := v.x + 1

	drawText(s, left, v.y, style.Bold(true).Foreground(ColorHeader), playerHeader)
	for i := 0; i < v.width; i++ {
		s.SetContent(v.x+i, v.y+1, '─', nil, style.Foreground(ColorFgGutter))
	}

	episode, ok := v.snap.Current().Get()
	if ok {
		drawTextClipped(s, left, v.y+3, inner, style.Bold(true).Foreground(ColorBright), episode.Title)
		drawTextClipped(s, left, v.y+4, inner, style.Foreground(ColorCyan), episode.Members)
		if episode.Thumbnail != "" {
			drawTextClipped(s, left, v.y+5, inner, style.Foreground(ColorDimmed), "Art: "+episode.Thumbnail)
		}
	} else {
		placeholderX := left + max((inner-len(playerPlaceholder))/2, 0)
		drawTextClipped(s, placeholderX, v.y+4, inner, style.Foreground(ColorDimmed).Italic(true), playerPlaceholder)
	}

	v.drawSlider(s, left, v.y+7, inner, ok)
	v.drawControls(s, left, v.y+9, inner)

	if v.status != "" {
		drawTextClipped(s, left, v.y+11, inner, style.Foreground(ColorError), v.status)
	}
}

// drawSlider renders "elapsed [=====o-----] duration". Without an episode the bar is empty and inert.
func (v *PlayerView) drawSlider(s tcell.Screen, x, y, width int, live bool) {
	style := baseStyle()

	elapsed := timefmt.DurationToTimeString(v.progress)
	total := timefmt.DurationToTimeString(v.Duration())
	if !live {
		elapsed = timefmt.DurationToTimeString(0)
		total = elapsed
	}

	timeStyle := style.Foreground(ColorFg)
	if !live {
		timeStyle = style.Foreground(ColorDimmed)
	}
	drawText(s, x, y, timeStyle, elapsed)
	drawText(s, x+width-len(total), y, timeStyle, total)

	v.sliderX = x + len(elapsed) + 1
	v.sliderY = y
	v.sliderWidth = width - len(elapsed) - len(total) - 2
	if v.sliderWidth <= 0 {
		v.sliderWidth = 0
		return
	}

	filled := 0
	if duration := v.Duration(); live && duration > 0 {
		filled = lo.Clamp(v.progress*v.sliderWidth/duration, 0, v.sliderWidth)
	}

	for i := 0; i < v.sliderWidth; i++ {
		switch {
		case live && i < filled:
			s.SetContent(v.sliderX+i, y, '━', nil, style.Foreground(ColorSliderFill))
		case live && i == filled:
			s.SetContent(v.sliderX+i, y, '●', nil, style.Foreground(ColorSliderFill))
		default:
			s.SetContent(v.sliderX+i, y, '─', nil, style.Foreground(ColorSliderEmpty))
		}
	}
}

func (v *PlayerView) drawControls(s tcell.Screen, x, y, width int) {
	style := baseStyle()
	controls := v.Controls()

	total := 0
	for _, control := range controls {
		total += len(control.Label) + 4
	}
	cursor := x + max((width-total)/2, 0)

	v.controlBoxes = v.controlBoxes[:0]
	for _, control := range controls {
		controlStyle := style.Foreground(ColorControl)
		switch {
		case control.Disabled:
			controlStyle = style.Foreground(ColorControlDisabled)
		case control.Active:
			controlStyle = style.Foreground(ColorControlActive).Bold(true)
		}

		label := "[ " + control.Label + " ]"
		v.controlBoxes = append(v.controlBoxes, controlBox{kind: control.Kind, x: cursor, y: y, width: len(label)})
		drawText(s, cursor, y, controlStyle, label)
		cursor += len(label)
	}
}
