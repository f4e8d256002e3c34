package ui

import (
	"github.com/csams/podcast-player/internal/player"
	"github.com/pkg/errors"
)

// fakeMedia records every call the views make on the media element
type fakeMedia struct {
	calls    []string
	loaded   []string
	seeks    []float64
	loops    []bool
	position float64
	playErr  error
	loadErr  error
	events   chan player.Event
	closed   bool
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{events: make(chan player.Event, 16)}
}

func (m *fakeMedia) Load(url string) error {
	m.calls = append(m.calls, "load")
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loaded = append(m.loaded, url)
	return nil
}

func (m *fakeMedia) Unload() error {
	m.calls = append(m.calls, "unload")
	return nil
}

func (m *fakeMedia) Play() error {
	m.calls = append(m.calls, "play")
	return m.playErr
}

func (m *fakeMedia) Pause() error {
	m.calls = append(m.calls, "pause")
	return nil
}

func (m *fakeMedia) SetCurrentTime(seconds float64) error {
	m.calls = append(m.calls, "seek")
	m.seeks = append(m.seeks, seconds)
	m.position = seconds
	return nil
}

func (m *fakeMedia) CurrentTime() float64 {
	return m.position
}

func (m *fakeMedia) SetLoop(loop bool) error {
	m.calls = append(m.calls, "loop")
	m.loops = append(m.loops, loop)
	return nil
}

func (m *fakeMedia) Events() <-chan player.Event {
	return m.events
}

func (m *fakeMedia) Close() {
	if !m.closed {
		m.closed = true
		close(m.events)
	}
}

func (m *fakeMedia) count(call string) int {
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *fakeMedia) reset() {
	m.calls = nil
}

var errAutoplayBlocked = errors.New("autoplay blocked")
