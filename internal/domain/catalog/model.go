package catalog

// Match is one scheduled fixture users can build squads and place bets on.
// Teams maps a team name to its roster in insertion order. Players is the
// flattened union of every roster; the source system allowed duplicate names
// here and selection UIs consume it as-is, so no deduplication happens.
type Match struct {
	Teams   map[string][]string `json:"teams"`
	Players []string            `json:"players"`
	Locked  bool                `json:"locked,omitempty"`
}

func NewMatch() Match {
	return Match{
		Teams:   make(map[string][]string),
		Players: make([]string, 0),
	}
}

func (m Match) Clone() Match {
	copied := Match{
		Teams:   make(map[string][]string, len(m.Teams)),
		Players: append([]string(nil), m.Players...),
		Locked:  m.Locked,
	}
	for team, roster := range m.Teams {
		copied.Teams[team] = append([]string(nil), roster...)
	}
	return copied
}

// RemoveTeam drops the team and strips its players from the flattened list.
func (m *Match) RemoveTeam(team string) []string {
	roster, ok := m.Teams[team]
	if !ok {
		return nil
	}
	delete(m.Teams, team)
	m.stripPlayers(roster)
	return roster
}

// ResetTeam empties the roster in place, keeping the team registered.
func (m *Match) ResetTeam(team string) ([]string, bool) {
	roster, ok := m.Teams[team]
	if !ok {
		return nil, false
	}
	m.stripPlayers(roster)
	m.Teams[team] = []string{}
	return roster, true
}

func (m *Match) stripPlayers(roster []string) {
	removed := make(map[string]struct{}, len(roster))
	for _, name := range roster {
		removed[name] = struct{}{}
	}

	kept := m.Players[:0]
	for _, name := range m.Players {
		if _, ok := removed[name]; ok {
			continue
		}
		kept = append(kept, name)
	}
	m.Players = kept
}
