package models

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Playlist is an ordered list of episodes from a single source
type Playlist struct {
	Title    string     `yaml:"title"`
	Source   string     `yaml:"-"`
	Episodes []*Episode `yaml:"episodes"`
}

// LoadPlaylist reads a YAML playlist file. Episodes without an ID get one derived from the file path.
func LoadPlaylist(path string) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read playlist")
	}

	var pl Playlist
	if err := yaml.Unmarshal(data, &pl); err != nil {
		return nil, errors.Wrapf(err, "failed to parse playlist %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	pl.Source = abs

	// Drop entries that cannot be played
	episodes := pl.Episodes[:0]
	for _, ep := range pl.Episodes {
		if ep == nil || ep.URL == "" {
			continue
		}
		if ep.ID == "" {
			ep.GenerateID(pl.Source)
		}
		episodes = append(episodes, ep)
	}
	pl.Episodes = episodes

	return &pl, nil
}

// Save writes the playlist as YAML
func (p *Playlist) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create playlist directory")
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "failed to marshal playlist")
	}

	return os.WriteFile(path, data, 0644)
}

// IndexOf returns the position of the episode with the given ID, or -1
func (p *Playlist) IndexOf(id string) int {
	for i, ep := range p.Episodes {
		if ep.ID == id {
			return i
		}
	}
	return -1
}
