package player

import (
	"math/rand"
	"sync"

	"github.com/csams/podcast-player/internal/models"
	"github.com/samber/mo"
)

// Snapshot is an immutable view of the store taken right after a change
type Snapshot struct {
	Episodes     []*models.Episode
	CurrentIndex int
	IsPlaying    bool
	IsLooping    bool
	IsShuffling  bool
	HasNext      bool
	HasPrevious  bool
}

// Current returns the episode at the current index, if there is one
func (s Snapshot) Current() mo.Option[*models.Episode] {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Episodes) {
		return mo.None[*models.Episode]()
	}
	return mo.Some(s.Episodes[s.CurrentIndex])
}

// Store owns the episode queue and the transport flags. Views read it and request
// changes through its action methods; they never mutate the fields directly.
type Store struct {
	mu           sync.Mutex
	episodes     []*models.Episode
	currentIndex int
	isPlaying    bool
	isLooping    bool
	isShuffling  bool

	intn        func(n int) int
	subscribers map[int]func(Snapshot)
	nextSubID   int
	notifying   bool
	pending     bool
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		intn:        rand.Intn,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// SetRandom replaces the random index source used by shuffle
func (s *Store) SetRandom(intn func(n int) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intn = intn
}

// Subscribe registers fn to be called after every state change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// Snapshot returns the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	episodes := make([]*models.Episode, len(s.episodes))
	copy(episodes, s.episodes)
	return Snapshot{
		Episodes:     episodes,
		CurrentIndex: s.currentIndex,
		IsPlaying:    s.isPlaying,
		IsLooping:    s.isLooping,
		IsShuffling:  s.isShuffling,
		HasNext:      s.hasNextLocked(),
		HasPrevious:  s.hasPreviousLocked(),
	}
}

func (s *Store) hasNextLocked() bool {
	if s.isShuffling && len(s.episodes) > 1 {
		return true
	}
	return s.currentIndex+1 < len(s.episodes)
}

func (s *Store) hasPreviousLocked() bool {
	return s.currentIndex > 0
}

// update applies fn under the lock and notifies subscribers when fn reports a change.
// Subscribers run after the lock is released so they may call back into the store. A change
// made during a notification round is delivered as a fresh snapshot once the round ends, so
// every subscriber sees the final state last.
func (s *Store) update(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	if s.notifying {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.notifying = true

	for {
		snap := s.snapshotLocked()
		subs := make([]func(Snapshot), 0, len(s.subscribers))
		for id := 0; id < s.nextSubID; id++ {
			if sub, ok := s.subscribers[id]; ok {
				subs = append(subs, sub)
			}
		}
		s.mu.Unlock()

		for _, sub := range subs {
			sub(snap)
		}

		s.mu.Lock()
		if !s.pending {
			s.notifying = false
			s.mu.Unlock()
			return
		}
		s.pending = false
	}
}

func (s *Store) Episodes() []*models.Episode { return s.Snapshot().Episodes }

func (s *Store) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

func (s *Store) Current() mo.Option[*models.Episode] { return s.Snapshot().Current() }

func (s *Store) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isPlaying
}

func (s *Store) IsLooping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLooping
}

func (s *Store) IsShuffling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isShuffling
}

func (s *Store) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasNextLocked()
}

func (s *Store) HasPrevious() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPreviousLocked()
}

// Play replaces the queue with a single episode and starts playing it
func (s *Store) Play(episode *models.Episode) {
	if episode == nil {
		return
	}
	s.update(func() bool {
		s.episodes = []*models.Episode{episode}
		s.currentIndex = 0
		s.isPlaying = true
		return true
	})
}

// PlayList replaces the queue and starts playing the episode at index.
// An index outside the list leaves the store untouched.
func (s *Store) PlayList(episodes []*models.Episode, index int) {
	if index < 0 || index >= len(episodes) {
		return
	}
	list := make([]*models.Episode, len(episodes))
	copy(list, episodes)
	s.update(func() bool {
		s.episodes = list
		s.currentIndex = index
		s.isPlaying = true
		return true
	})
}

func (s *Store) TogglePlay() {
	s.update(func() bool {
		s.isPlaying = !s.isPlaying
		return true
	})
}

func (s *Store) ToggleLoop() {
	s.update(func() bool {
		s.isLooping = !s.isLooping
		return true
	})
}

func (s *Store) ToggleShuffle() {
	s.update(func() bool {
		s.isShuffling = !s.isShuffling
		return true
	})
}

// SetPlayingState records the media element's actual play state
func (s *Store) SetPlayingState(playing bool) {
	s.update(func() bool {
		if s.isPlaying == playing {
			return false
		}
		s.isPlaying = playing
		return true
	})
}

// PlayNext advances the queue. While shuffling the next index is random and never the current one.
func (s *Store) PlayNext() {
	s.update(func() bool {
		if len(s.episodes) == 0 {
			return false
		}
		if s.isShuffling {
			if len(s.episodes) == 1 {
				return false
			}
			// Pick among the other episodes so the track always changes
			next := s.intn(len(s.episodes) - 1)
			if next >= s.currentIndex {
				next++
			}
			s.currentIndex = next
			return true
		}
		if s.currentIndex+1 < len(s.episodes) {
			s.currentIndex++
			return true
		}
		return false
	})
}

func (s *Store) PlayPrevious() {
	s.update(func() bool {
		if !s.hasPreviousLocked() {
			return false
		}
		s.currentIndex--
		return true
	})
}

// ClearPlayerState empties the queue so no episode is loaded
func (s *Store) ClearPlayerState() {
	s.update(func() bool {
		if len(s.episodes) == 0 && s.currentIndex == 0 {
			return false
		}
		s.episodes = nil
		s.currentIndex = 0
		return true
	})
}
