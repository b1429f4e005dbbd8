package squad

import "errors"

// MaxPlayers caps how many players one user can pick per match.
const MaxPlayers = 11

var (
	ErrTeamFull            = errors.New("squad already has the maximum number of players")
	ErrPlayerNotInSquad    = errors.New("player is not in the squad")
	ErrCaptainConflict     = errors.New("player is already the captain")
	ErrInsufficientPlayers = errors.New("squad does not have enough players")
)

// State is the squad selection stage derived from the squad data. Transitions
// only move through Squad methods; callers never infer the stage from raw
// captain/vice-captain presence.
type State int

const (
	StateNone State = iota
	StateSelecting
	StateHasPlayers
	StateHasCaptain
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateSelecting:
		return "selecting"
	case StateHasPlayers:
		return "has_players"
	case StateHasCaptain:
		return "has_captain"
	case StateComplete:
		return "complete"
	default:
		return "none"
	}
}

// Squad is one user's roster pick for one match.
type Squad struct {
	Players     []string
	Captain     string
	ViceCaptain string
}

func (s Squad) State() State {
	switch {
	case s.Players == nil:
		return StateNone
	case len(s.Players) == 0:
		return StateSelecting
	case s.Captain == "":
		return StateHasPlayers
	case s.ViceCaptain == "":
		return StateHasCaptain
	default:
		return StateComplete
	}
}

func (s Squad) Has(player string) bool {
	for _, name := range s.Players {
		if name == player {
			return true
		}
	}
	return false
}

// Select adds the player. Re-selecting an already picked player is a no-op,
// not an error; the selection UI keeps re-sending taps.
func (s *Squad) Select(player string) error {
	if s.Has(player) {
		return nil
	}
	if len(s.Players) >= MaxPlayers {
		return ErrTeamFull
	}
	if s.Players == nil {
		s.Players = make([]string, 0, MaxPlayers)
	}
	s.Players = append(s.Players, player)
	return nil
}

// Remove drops the player and clears any role the player held. Removing an
// absent player is a no-op.
func (s *Squad) Remove(player string) {
	for i, name := range s.Players {
		if name != player {
			continue
		}
		s.Players = append(s.Players[:i], s.Players[i+1:]...)
		if s.Captain == player {
			s.Captain = ""
		}
		if s.ViceCaptain == player {
			s.ViceCaptain = ""
		}
		return
	}
}

func (s *Squad) SetCaptain(player string) error {
	if !s.Has(player) {
		return ErrPlayerNotInSquad
	}
	if s.ViceCaptain == player {
		s.ViceCaptain = ""
	}
	s.Captain = player
	return nil
}

func (s *Squad) SetViceCaptain(player string) error {
	if len(s.Players) < 2 {
		return ErrInsufficientPlayers
	}
	if !s.Has(player) {
		return ErrPlayerNotInSquad
	}
	if s.Captain == player {
		return ErrCaptainConflict
	}
	s.ViceCaptain = player
	return nil
}

func (s Squad) Clone() Squad {
	copied := s
	if s.Players != nil {
		copied.Players = append([]string(nil), s.Players...)
	}
	return copied
}
