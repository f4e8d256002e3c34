package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPlaylist(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "playlist.yaml")

	content := `title: Weekly Show
episodes:
  - id: ep-1
    title: Episode 1
    members: Alice, Bob
    thumbnail: https://example.com/1.jpg
    url: https://example.com/1.mp3
    duration: 1800
  - title: Episode 2
    members: Carol
    url: https://example.com/2.mp3
    duration: 65
  - title: No audio
    members: Nobody
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write playlist: %v", err)
	}

	pl, err := LoadPlaylist(path)
	if err != nil {
		t.Fatalf("Failed to load playlist: %v", err)
	}

	if pl.Title != "Weekly Show" {
		t.Errorf("Expected title 'Weekly Show', got '%s'", pl.Title)
	}

	// Entry without a URL is dropped
	if len(pl.Episodes) != 2 {
		t.Fatalf("Expected 2 episodes, got %d", len(pl.Episodes))
	}

	first := pl.Episodes[0]
	if first.ID != "ep-1" {
		t.Errorf("Expected explicit ID 'ep-1' to be kept, got '%s'", first.ID)
	}
	if first.Members != "Alice, Bob" {
		t.Errorf("Expected members 'Alice, Bob', got '%s'", first.Members)
	}
	if first.Duration != 1800 {
		t.Errorf("Expected duration 1800, got %d", first.Duration)
	}

	second := pl.Episodes[1]
	if len(second.ID) != 16 {
		t.Errorf("Expected generated ID of length 16, got '%s'", second.ID)
	}
	if second.ID != GenerateEpisodeID(pl.Source, second.URL, second.PublishDate) {
		t.Error("Expected generated ID to be derived from the playlist source")
	}

	if pl.IndexOf("ep-1") != 0 {
		t.Errorf("Expected IndexOf(ep-1) == 0, got %d", pl.IndexOf("ep-1"))
	}
	if pl.IndexOf("missing") != -1 {
		t.Errorf("Expected IndexOf(missing) == -1, got %d", pl.IndexOf("missing"))
	}
}

func TestLoadPlaylist_Errors(t *testing.T) {
	tempDir := t.TempDir()

	if _, err := LoadPlaylist(filepath.Join(tempDir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing playlist file")
	}

	bad := filepath.Join(tempDir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("episodes: [unterminated"), 0644); err != nil {
		t.Fatalf("Failed to write playlist: %v", err)
	}
	if _, err := LoadPlaylist(bad); err == nil {
		t.Error("Expected error for malformed playlist")
	}
}

func TestPlaylist_SaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "saved.yaml")

	pl := &Playlist{
		Title: "Saved",
		Episodes: []*Episode{
			{ID: "a", Title: "A", URL: "https://example.com/a.mp3", Duration: 10},
			{ID: "b", Title: "B", URL: "https://example.com/b.mp3", Duration: 20},
		},
	}

	if err := pl.Save(path); err != nil {
		t.Fatalf("Failed to save playlist: %v", err)
	}

	loaded, err := LoadPlaylist(path)
	if err != nil {
		t.Fatalf("Failed to load saved playlist: %v", err)
	}

	if len(loaded.Episodes) != 2 || loaded.Episodes[1].ID != "b" {
		t.Errorf("Expected saved episodes to survive reload, got %+v", loaded.Episodes)
	}
}
