package ui

import (
	"github.com/csams/podcast-player/internal/player"
)

// ControlKind identifies one of the five transport controls
type ControlKind int

const (
	ControlShuffle ControlKind = iota
	ControlPrevious
	ControlPlayPause
	ControlNext
	ControlRepeat
)

func (k ControlKind) String() string {
	switch k {
	case ControlShuffle:
		return "shuffle"
	case ControlPrevious:
		return "previous"
	case ControlPlayPause:
		return "play/pause"
	case ControlNext:
		return "next"
	case ControlRepeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// ControlState is how a control renders for one snapshot
type ControlState struct {
	Kind     ControlKind
	Label    string
	Disabled bool
	Active   bool
}

// Controls derives the transport controls from a snapshot. Without an episode every control is disabled.
func Controls(snap player.Snapshot) []ControlState {
	hasEpisode := snap.Current().IsPresent()

	playLabel := "Play"
	if snap.IsPlaying {
		playLabel = "Pause"
	}

	return []ControlState{
		{Kind: ControlShuffle, Label: "Shuffle", Disabled: !hasEpisode || len(snap.Episodes) == 1, Active: snap.IsShuffling},
		{Kind: ControlPrevious, Label: "Prev", Disabled: !hasEpisode || !snap.HasPrevious},
		{Kind: ControlPlayPause, Label: playLabel, Disabled: !hasEpisode},
		{Kind: ControlNext, Label: "Next", Disabled: !hasEpisode || !snap.HasNext},
		{Kind: ControlRepeat, Label: "Repeat", Disabled: !hasEpisode, Active: snap.IsLooping},
	}
}

// apply forwards an activated control to its store action
func (k ControlKind) apply(store *player.Store) {
	switch k {
	case ControlShuffle:
		store.ToggleShuffle()
	case ControlPrevious:
		store.PlayPrevious()
	case ControlPlayPause:
		store.TogglePlay()
	case ControlNext:
		store.PlayNext()
	case ControlRepeat:
		store.ToggleLoop()
	}
}
