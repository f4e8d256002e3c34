package player

import "testing"

func TestListeners_AddDispatchRemove(t *testing.T) {
	l := NewListeners()

	var got []float64
	remove := l.Add(EventTimeUpdate, func(ev Event) {
		got = append(got, ev.Position)
	})

	if l.Len(EventTimeUpdate) != 1 {
		t.Fatalf("Expected 1 listener, got %d", l.Len(EventTimeUpdate))
	}

	l.Dispatch(Event{Kind: EventTimeUpdate, Position: 1.5})
	l.Dispatch(Event{Kind: EventPlay})
	l.Dispatch(Event{Kind: EventTimeUpdate, Position: 2.5})

	if len(got) != 2 || got[0] != 1.5 || got[1] != 2.5 {
		t.Errorf("Expected only time updates to be delivered, got %v", got)
	}

	remove()
	remove()
	if l.Len(EventTimeUpdate) != 0 {
		t.Errorf("Expected 0 listeners after remove, got %d", l.Len(EventTimeUpdate))
	}

	l.Dispatch(Event{Kind: EventTimeUpdate, Position: 3})
	if len(got) != 2 {
		t.Error("Expected removed listener not to be called")
	}
}

func TestListeners_RemoveOnlyOwnEntry(t *testing.T) {
	l := NewListeners()

	removeA := l.Add(EventEnded, func(Event) {})
	l.Add(EventEnded, func(Event) {})

	removeA()
	if l.Len(EventEnded) != 1 {
		t.Errorf("Expected 1 remaining listener, got %d", l.Len(EventEnded))
	}
}

func TestEventKind_String(t *testing.T) {
	testCases := map[EventKind]string{
		EventLoadedMetadata: "loadedmetadata",
		EventTimeUpdate:     "timeupdate",
		EventPlay:           "play",
		EventPause:          "pause",
		EventEnded:          "ended",
		EventError:          "error",
		EventKind(99):       "unknown",
	}

	for kind, expected := range testCases {
		if kind.String() != expected {
			t.Errorf("Expected %q, got %q", expected, kind.String())
		}
	}
}
