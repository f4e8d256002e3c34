package ui

import (
	"fmt"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Score threshold constants (based on raw fzf scores)
const (
	ScoreThresholdStrict     = 70
	ScoreThresholdNormal     = 50
	ScoreThresholdPermissive = 30
	ScoreThresholdNone       = 0
)

// Match fields reported by MatchEpisode
const (
	MatchFieldTitle   = "title"
	MatchFieldMembers = "members"
)

// MatchResult contains match score and rune positions for highlighting
type MatchResult struct {
	Score     int
	Positions []int
}

// EpisodeMatchResult stores a match result and the field it came from
type EpisodeMatchResult struct {
	MatchResult
	MatchField string
}

// SearchState is the query being edited in search mode. The cursor counts runes.
type SearchState struct {
	query         []rune
	cursorPos     int
	caseSensitive bool
	minScore      int
	slab          *util.Slab
}

func NewSearchState() *SearchState {
	algo.Init("default")
	return &SearchState{
		minScore: ScoreThresholdNormal,
		slab:     util.MakeSlab(16384, 1024),
	}
}

func (s *SearchState) Query() string {
	return string(s.query)
}

func (s *SearchState) CursorPos() int {
	return s.cursorPos
}

// SetQuery replaces the query and puts the cursor at its end
func (s *SearchState) SetQuery(query string) {
	s.query = []rune(query)
	s.cursorPos = len(s.query)
}

func (s *SearchState) Clear() {
	s.query = nil
	s.cursorPos = 0
}

func (s *SearchState) SetMinScore(score int) {
	s.minScore = score
}

func (s *SearchState) GetMinScore() int {
	return s.minScore
}

// MinScoreName names a threshold for display
func MinScoreName(score int) string {
	switch score {
	case ScoreThresholdStrict:
		return "strict"
	case ScoreThresholdNormal:
		return "normal"
	case ScoreThresholdPermissive:
		return "permissive"
	case ScoreThresholdNone:
		return "none"
	}
	return fmt.Sprintf("min %d", score)
}

// CycleMinScore steps through the thresholds and returns a description of the new one
func (s *SearchState) CycleMinScore() string {
	switch s.minScore {
	case ScoreThresholdNone:
		s.minScore = ScoreThresholdPermissive
		return "Search: Permissive mode (include marginal matches)"
	case ScoreThresholdPermissive:
		s.minScore = ScoreThresholdNormal
		return "Search: Normal mode (balanced)"
	case ScoreThresholdNormal:
		s.minScore = ScoreThresholdStrict
		return "Search: Strict mode (high quality matches only)"
	default:
		s.minScore = ScoreThresholdNone
		return "Search: No filtering (all matches)"
	}
}

func (s *SearchState) InsertChar(ch rune) {
	s.query = append(s.query[:s.cursorPos], append([]rune{ch}, s.query[s.cursorPos:]...)...)
	s.cursorPos++
}

// DeleteChar deletes the character before the cursor (backspace)
func (s *SearchState) DeleteChar() {
	if s.cursorPos > 0 {
		s.query = append(s.query[:s.cursorPos-1], s.query[s.cursorPos:]...)
		s.cursorPos--
	}
}

// DeleteCharForward deletes the character at the cursor (delete)
func (s *SearchState) DeleteCharForward() {
	if s.cursorPos < len(s.query) {
		s.query = append(s.query[:s.cursorPos], s.query[s.cursorPos+1:]...)
	}
}

func (s *SearchState) MoveCursorLeft() {
	if s.cursorPos > 0 {
		s.cursorPos--
	}
}

func (s *SearchState) MoveCursorRight() {
	if s.cursorPos < len(s.query) {
		s.cursorPos++
	}
}

func (s *SearchState) MoveCursorStart() {
	s.cursorPos = 0
}

func (s *SearchState) MoveCursorEnd() {
	s.cursorPos = len(s.query)
}

// DeleteToEnd deletes from cursor to end (Ctrl+K)
func (s *SearchState) DeleteToEnd() {
	s.query = s.query[:s.cursorPos]
}

// DeleteWord deletes the word before cursor (Ctrl+W)
func (s *SearchState) DeleteWord() {
	if s.cursorPos == 0 {
		return
	}

	start := s.cursorPos - 1
	for start > 0 && s.query[start] == ' ' {
		start--
	}
	for start > 0 && s.query[start-1] != ' ' {
		start--
	}

	s.query = append(s.query[:start], s.query[s.cursorPos:]...)
	s.cursorPos = start
}

// matchWithPositions scores text against the query with fzf's v2 algorithm.
// Score is -1 when the text does not match at all.
func (s *SearchState) matchWithPositions(text string) MatchResult {
	if len(s.query) == 0 {
		return MatchResult{}
	}

	searchText := text
	pattern := string(s.query)
	if !s.caseSensitive {
		searchText = strings.ToLower(text)
		pattern = strings.ToLower(pattern)
	}

	chars := util.ToChars([]byte(searchText))
	result, positions := algo.FuzzyMatchV2(s.caseSensitive, false, true, &chars, []rune(pattern), true, s.slab)
	if result.Start < 0 {
		return MatchResult{Score: -1}
	}

	var matchPositions []int
	if positions != nil {
		// Positions index into Chars, which are runes
		matchPositions = make([]int, len(*positions))
		copy(matchPositions, *positions)
	}

	return MatchResult{Score: result.Score, Positions: matchPositions}
}

func (s *SearchState) accepts(result MatchResult) bool {
	return result.Score >= 0 && (s.minScore == 0 || result.Score >= s.minScore)
}

// MatchEpisode checks the title first, then the members line. An empty query matches everything.
func (s *SearchState) MatchEpisode(title, members string) (bool, EpisodeMatchResult) {
	if len(s.query) == 0 {
		return true, EpisodeMatchResult{}
	}

	if titleResult := s.matchWithPositions(title); s.accepts(titleResult) {
		return true, EpisodeMatchResult{MatchResult: titleResult, MatchField: MatchFieldTitle}
	}

	if membersResult := s.matchWithPositions(members); s.accepts(membersResult) {
		return true, EpisodeMatchResult{MatchResult: membersResult, MatchField: MatchFieldMembers}
	}

	return false, EpisodeMatchResult{MatchResult: MatchResult{Score: -1}}
}
