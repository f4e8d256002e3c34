package ui

import (
	"fmt"
	"sort"
	"time"

	"github.com/csams/podcast-player/internal/models"
	"github.com/csams/podcast-player/internal/timefmt"
	"github.com/gdamore/tcell/v2"
)

// EpisodeTableRow adapts an episode to the TableRow interface
type EpisodeTableRow struct {
	episode     *models.Episode
	current     bool
	playing     bool
	matchResult *EpisodeMatchResult
}

func (r *EpisodeTableRow) GetCell(columnIndex int) string {
	switch columnIndex {
	case 0: // Now playing
		if !r.current {
			return ""
		}
		if r.playing {
			return "▶"
		}
		return "⏸"
	case 1:
		return r.episode.Title
	case 2:
		return r.episode.Members
	case 3:
		return formatPublishDate(r.episode.PublishDate)
	case 4:
		if r.episode.Duration <= 0 {
			return "—"
		}
		return timefmt.DurationToTimeString(r.episode.Duration)
	default:
		return ""
	}
}

func (r *EpisodeTableRow) GetCellStyle(columnIndex int, selected bool) *tcell.Style {
	if columnIndex != 0 || !r.current {
		return nil
	}
	style := baseStyle()
	if selected {
		style = style.Background(ColorSelection)
	}
	if r.playing {
		style = style.Foreground(ColorPlaying)
	} else {
		style = style.Foreground(ColorPaused)
	}
	return &style
}

func (r *EpisodeTableRow) GetHighlightPositions(columnIndex int) []int {
	if r.matchResult == nil {
		return nil
	}
	switch {
	case columnIndex == 1 && r.matchResult.MatchField == MatchFieldTitle:
		return r.matchResult.Positions
	case columnIndex == 2 && r.matchResult.MatchField == MatchFieldMembers:
		return r.matchResult.Positions
	}
	return nil
}

func formatPublishDate(date time.Time) string {
	if date.IsZero() {
		return "—"
	}
	local := date.Local()
	if local.Year() == time.Now().Year() {
		return local.Format("Jan 02")
	}
	return local.Format("2006-01-02")
}

// EpisodeListView lists the playlist's episodes, filtered by the current search
type EpisodeListView struct {
	table        *Table
	playlist     *models.Playlist
	filtered     []*models.Episode
	matchResults map[string]EpisodeMatchResult
	searchState  *SearchState

	currentID string
	playing   bool

	x, y          int
	width, height int
}

func NewEpisodeListView() *EpisodeListView {
	v := &EpisodeListView{
		table:        NewTable(),
		playlist:     &models.Playlist{},
		matchResults: make(map[string]EpisodeMatchResult),
		searchState:  NewSearchState(),
	}

	v.table.SetColumns([]TableColumn{
		{Title: "", Width: 1, Align: AlignLeft},
		{Title: "Title", MinWidth: 20, FlexWeight: 0.6, Align: AlignLeft},
		{Title: "Members", MinWidth: 10, FlexWeight: 0.4, Align: AlignLeft},
		{Title: "Published", Width: 10, Align: AlignLeft},
		{Title: "Length", Width: 8, Align: AlignRight},
	})

	return v
}

// SetPlaylist replaces the listed episodes and resets the selection
func (v *EpisodeListView) SetPlaylist(playlist *models.Playlist) {
	if playlist == nil {
		playlist = &models.Playlist{}
	}
	v.playlist = playlist
	v.applyFilter()
	v.table.SelectFirst()
}

func (v *EpisodeListView) Playlist() *models.Playlist {
	return v.playlist
}

// SetNowPlaying marks the row of the current episode. An empty id clears the marker.
func (v *EpisodeListView) SetNowPlaying(id string, playing bool) {
	if v.currentID == id && v.playing == playing {
		return
	}
	v.currentID = id
	v.playing = playing
	v.updateTableRows()
}

func (v *EpisodeListView) GetSelected() *models.Episode {
	if row, ok := v.table.GetSelectedRow().(*EpisodeTableRow); ok {
		return row.episode
	}
	return nil
}

// SelectedIndex is the selected episode's position in the full playlist, or -1
func (v *EpisodeListView) SelectedIndex() int {
	selected := v.GetSelected()
	if selected == nil {
		return -1
	}
	return v.playlist.IndexOf(selected.ID)
}

func (v *EpisodeListView) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlF, tcell.KeyPgDn:
		return v.table.PageDown()
	case tcell.KeyCtrlB, tcell.KeyPgUp:
		return v.table.PageUp()
	case tcell.KeyDown:
		return v.table.SelectNext()
	case tcell.KeyUp:
		return v.table.SelectPrevious()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'j':
			return v.table.SelectNext()
		case 'k':
			return v.table.SelectPrevious()
		case 'g':
			return v.table.SelectFirst()
		case 'G':
			return v.table.SelectLast()
		}
	}
	return false
}

// HandleClick selects the row under (x, y). It reports whether a row was hit and
// whether that row was already selected.
func (v *EpisodeListView) HandleClick(x, y int) (hit, wasSelected bool) {
	idx := v.table.RowAt(x, y)
	if idx < 0 {
		return false, false
	}
	wasSelected = idx == v.table.GetSelectedIndex()
	v.table.Select(idx)
	return true, wasSelected
}

func (v *EpisodeListView) GetSearchState() *SearchState {
	return v.searchState
}

// UpdateSearch reapplies the filter and selects the best match
func (v *EpisodeListView) UpdateSearch() {
	v.applyFilter()
	v.table.SelectFirst()
}

// ClearSearch drops the filter and keeps the selected episode selected
func (v *EpisodeListView) ClearSearch() {
	selected := v.GetSelected()
	v.searchState.Clear()
	v.applyFilter()
	if selected != nil {
		v.table.Select(v.playlist.IndexOf(selected.ID))
	}
}

func (v *EpisodeListView) applyFilter() {
	v.matchResults = make(map[string]EpisodeMatchResult)

	if v.searchState.Query() == "" {
		v.filtered = v.playlist.Episodes
		v.updateTableRows()
		return
	}

	type scoredEpisode struct {
		episode *models.Episode
		result  EpisodeMatchResult
	}

	var matched []scoredEpisode
	for _, episode := range v.playlist.Episodes {
		if ok, result := v.searchState.MatchEpisode(episode.Title, episode.Members); ok {
			matched = append(matched, scoredEpisode{episode: episode, result: result})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].result.Score > matched[j].result.Score
	})

	v.filtered = make([]*models.Episode, len(matched))
	for i, m := range matched {
		v.filtered[i] = m.episode
		v.matchResults[m.episode.ID] = m.result
	}

	v.updateTableRows()
}

func (v *EpisodeListView) updateTableRows() {
	rows := make([]TableRow, len(v.filtered))
	for i, episode := range v.filtered {
		var matchResult *EpisodeMatchResult
		if mr, ok := v.matchResults[episode.ID]; ok {
			matchResult = &mr
		}
		current := episode.ID == v.currentID
		rows[i] = &EpisodeTableRow{
			episode:     episode,
			current:     current,
			playing:     current && v.playing,
			matchResult: matchResult,
		}
	}
	v.table.SetRows(rows)
}

func (v *EpisodeListView) SetBounds(x, y, width, height int) {
	v.x, v.y, v.width, v.height = x, y, width, height
	v.table.SetPosition(x, y+2)
	v.table.SetSize(width, max(height-2, 0))
}

func (v *EpisodeListView) Draw(s tcell.Screen) {
	if v.width <= 0 || v.height <= 0 {
		return
	}
	style := baseStyle()

	title := "Episodes"
	if v.playlist.Title != "" {
		title = v.playlist.Title
	}
	header := fmt.Sprintf("%s (%d)", title, len(v.playlist.Episodes))
	if query := v.searchState.Query(); query != "" {
		header = fmt.Sprintf("%s  /%s  %d matches", header, query, v.table.RowCount())
		if score := v.searchState.GetMinScore(); score != ScoreThresholdNormal {
			header = fmt.Sprintf("%s (%s)", header, MinScoreName(score))
		}
	}

	fillRow(s, v.x, v.y, v.width, style)
	drawTextClipped(s, v.x+1, v.y, v.width-2, style.Bold(true).Foreground(ColorHeader), header)
	for i := 0; i < v.width; i++ {
		s.SetContent(v.x+i, v.y+1, '─', nil, style.Foreground(ColorFgGutter))
	}

	if len(v.playlist.Episodes) == 0 {
		fillRow(s, v.x, v.y+2, v.width, style)
		drawTextClipped(s, v.x+2, v.y+3, v.width-4, style.Foreground(ColorDimmed), "No episodes. Start with --feed URL or --playlist FILE.")
		return
	}

	v.table.Draw(s)
}
