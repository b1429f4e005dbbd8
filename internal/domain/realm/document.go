package realm

import (
	"github.com/trainwr/fantasy-cricket/internal/domain/bet"
	"github.com/trainwr/fantasy-cricket/internal/domain/catalog"
	"github.com/trainwr/fantasy-cricket/internal/domain/prediction"
	"github.com/trainwr/fantasy-cricket/internal/domain/squad"
)

// RequiredKeys are the top-level collections a backup document must carry.
// Restore rejects payloads missing any of them.
var RequiredKeys = []string{
	"matches",
	"user_teams",
	"points",
	"amounts",
	"yon_questions",
	"yon_user_answers",
	"yon_correct_answers",
	"pending_bets",
	"captains",
	"vice_captains",
}

// Document is the whole state of one realm. Every user-facing operation
// reads or mutates exactly one of these; the manager serializes access.
//
// Collections keyed by two identifiers nest user first, then match or
// question, matching the backup exchange format.
type Document struct {
	Matches        map[string]catalog.Match           `json:"matches"`
	UserTeams      map[string]map[string][]string     `json:"user_teams"`
	Points         map[string]int                     `json:"points"`
	Amounts        map[string]map[string]int          `json:"amounts"`
	Questions      map[string]prediction.Question     `json:"yon_questions"`
	UserAnswers    map[string]map[string]string       `json:"yon_user_answers"`
	CorrectAnswers map[string]string                  `json:"yon_correct_answers"`
	PendingBets    map[string]map[string]bet.Pending  `json:"pending_bets"`
	Captains       map[string]map[string]string       `json:"captains"`
	ViceCaptains   map[string]map[string]string       `json:"vice_captains"`
}

func NewDocument() Document {
	return Document{
		Matches:        make(map[string]catalog.Match),
		UserTeams:      make(map[string]map[string][]string),
		Points:         make(map[string]int),
		Amounts:        make(map[string]map[string]int),
		Questions:      make(map[string]prediction.Question),
		UserAnswers:    make(map[string]map[string]string),
		CorrectAnswers: make(map[string]string),
		PendingBets:    make(map[string]map[string]bet.Pending),
		Captains:       make(map[string]map[string]string),
		ViceCaptains:   make(map[string]map[string]string),
	}
}

// Normalize replaces nil collections with empty ones. Decoded backups and
// zero values pass through here before any mutation.
func (d *Document) Normalize() {
	if d.Matches == nil {
		d.Matches = make(map[string]catalog.Match)
	}
	if d.UserTeams == nil {
		d.UserTeams = make(map[string]map[string][]string)
	}
	if d.Points == nil {
		d.Points = make(map[string]int)
	}
	if d.Amounts == nil {
		d.Amounts = make(map[string]map[string]int)
	}
	if d.Questions == nil {
		d.Questions = make(map[string]prediction.Question)
	}
	if d.UserAnswers == nil {
		d.UserAnswers = make(map[string]map[string]string)
	}
	if d.CorrectAnswers == nil {
		d.CorrectAnswers = make(map[string]string)
	}
	if d.PendingBets == nil {
		d.PendingBets = make(map[string]map[string]bet.Pending)
	}
	if d.Captains == nil {
		d.Captains = make(map[string]map[string]string)
	}
	if d.ViceCaptains == nil {
		d.ViceCaptains = make(map[string]map[string]string)
	}
}

func (d Document) Clone() Document {
	copied := NewDocument()
	for name, match := range d.Matches {
		copied.Matches[name] = match.Clone()
	}
	for user, byMatch := range d.UserTeams {
		inner := make(map[string][]string, len(byMatch))
		for match, players := range byMatch {
			inner[match] = append([]string(nil), players...)
		}
		copied.UserTeams[user] = inner
	}
	for player, points := range d.Points {
		copied.Points[player] = points
	}
	for user, byMatch := range d.Amounts {
		inner := make(map[string]int, len(byMatch))
		for match, amount := range byMatch {
			inner[match] = amount
		}
		copied.Amounts[user] = inner
	}
	for id, question := range d.Questions {
		copied.Questions[id] = question.Clone()
	}
	for user, byQuestion := range d.UserAnswers {
		inner := make(map[string]string, len(byQuestion))
		for id, answer := range byQuestion {
			inner[id] = answer
		}
		copied.UserAnswers[user] = inner
	}
	for id, answer := range d.CorrectAnswers {
		copied.CorrectAnswers[id] = answer
	}
	for user, byMatch := range d.PendingBets {
		inner := make(map[string]bet.Pending, len(byMatch))
		for match, pending := range byMatch {
			inner[match] = pending
		}
		copied.PendingBets[user] = inner
	}
	for user, byMatch := range d.Captains {
		inner := make(map[string]string, len(byMatch))
		for match, captain := range byMatch {
			inner[match] = captain
		}
		copied.Captains[user] = inner
	}
	for user, byMatch := range d.ViceCaptains {
		inner := make(map[string]string, len(byMatch))
		for match, vice := range byMatch {
			inner[match] = vice
		}
		copied.ViceCaptains[user] = inner
	}
	return copied
}

// SquadOf assembles a user's squad for a match from the split collections.
// A missing roster entry yields the NoSquad zero value (nil Players).
func (d Document) SquadOf(user, match string) squad.Squad {
	assembled := squad.Squad{}
	if byMatch, ok := d.UserTeams[user]; ok {
		if players, ok := byMatch[match]; ok {
			assembled.Players = append([]string(nil), players...)
			if assembled.Players == nil {
				assembled.Players = []string{}
			}
		}
	}
	if byMatch, ok := d.Captains[user]; ok {
		assembled.Captain = byMatch[match]
	}
	if byMatch, ok := d.ViceCaptains[user]; ok {
		assembled.ViceCaptain = byMatch[match]
	}
	return assembled
}

// SetSquad writes a squad back into the split collections, dropping role
// entries the squad no longer has.
func (d *Document) SetSquad(user, match string, s squad.Squad) {
	if d.UserTeams[user] == nil {
		d.UserTeams[user] = make(map[string][]string)
	}
	players := append([]string(nil), s.Players...)
	if players == nil {
		players = []string{}
	}
	d.UserTeams[user][match] = players

	setRole(d.Captains, user, match, s.Captain)
	setRole(d.ViceCaptains, user, match, s.ViceCaptain)
}

func setRole(roles map[string]map[string]string, user, match, player string) {
	if player == "" {
		if byMatch, ok := roles[user]; ok {
			delete(byMatch, match)
			if len(byMatch) == 0 {
				delete(roles, user)
			}
		}
		return
	}
	if roles[user] == nil {
		roles[user] = make(map[string]string)
	}
	roles[user][match] = player
}

// RemoveMatch drops the match and cascades to squads, pending and verified
// bets, and role assignments. Prediction data and player points survive.
func (d *Document) RemoveMatch(name string) bool {
	if _, ok := d.Matches[name]; !ok {
		return false
	}
	delete(d.Matches, name)
	for user, byMatch := range d.UserTeams {
		delete(byMatch, name)
		if len(byMatch) == 0 {
			delete(d.UserTeams, user)
		}
	}
	for user, byMatch := range d.PendingBets {
		delete(byMatch, name)
		if len(byMatch) == 0 {
			delete(d.PendingBets, user)
		}
	}
	for user, byMatch := range d.Amounts {
		delete(byMatch, name)
		if len(byMatch) == 0 {
			delete(d.Amounts, user)
		}
	}
	for user, byMatch := range d.Captains {
		delete(byMatch, name)
		if len(byMatch) == 0 {
			delete(d.Captains, user)
		}
	}
	for user, byMatch := range d.ViceCaptains {
		delete(byMatch, name)
		if len(byMatch) == 0 {
			delete(d.ViceCaptains, user)
		}
	}
	return true
}

// ClearPredictions drops all question, answer and correct-answer data.
func (d *Document) ClearPredictions() {
	d.Questions = make(map[string]prediction.Question)
	d.UserAnswers = make(map[string]map[string]string)
	d.CorrectAnswers = make(map[string]string)
}
