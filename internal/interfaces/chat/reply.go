package chat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/trainwr/fantasy-cricket/internal/domain/bet"
	"github.com/trainwr/fantasy-cricket/internal/domain/squad"
	"github.com/trainwr/fantasy-cricket/internal/usecase"
)

// Button is one inline keyboard button. Data round-trips through
// ParseCallback.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// File is a document attached to a reply.
type File struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// Reply is what the transport renders back to the user. Alert marks short
// rejections the gateway should show as a popup instead of a message.
type Reply struct {
	Text     string     `json:"text"`
	Keyboard [][]Button `json:"keyboard,omitempty"`
	Alert    bool       `json:"alert,omitempty"`
	Document *File      `json:"document,omitempty"`
}

func textReply(format string, args ...any) Reply {
	return Reply{Text: fmt.Sprintf(format, args...)}
}

func alertReply(text string) Reply {
	return Reply{Text: text, Alert: true}
}

// squadKeyboard renders the selection grid: every selectable player, the
// current squad with drop buttons, and role pickers once players exist.
func squadKeyboard(view usecase.SquadView) [][]Button {
	var rows [][]Button

	const perRow = 2
	var row []Button
	for _, player := range view.Match.Players {
		if view.Squad.Has(player) {
			continue
		}
		row = append(row, Button{Label: player, Data: encodeCallback("select", view.MatchName, player)})
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	for _, player := range view.Squad.Players {
		rows = append(rows, []Button{
			{Label: "❌ " + player, Data: encodeCallback("drop", view.MatchName, player)},
			{Label: "C " + player, Data: encodeCallback("captain", view.MatchName, player)},
			{Label: "VC " + player, Data: encodeCallback("vice", view.MatchName, player)},
		})
	}

	return rows
}

func renderSquad(view usecase.SquadView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your squad for %s (%d/%d):\n", view.MatchName, len(view.Squad.Players), squad.MaxPlayers)
	for _, player := range view.Squad.Players {
		marker := ""
		switch player {
		case view.Squad.Captain:
			marker = " (C)"
		case view.Squad.ViceCaptain:
			marker = " (VC)"
		}
		fmt.Fprintf(&b, "• %s%s\n", player, marker)
	}
	switch view.State {
	case squad.StateSelecting:
		b.WriteString("Pick your players from the buttons below.")
	case squad.StateHasPlayers:
		b.WriteString("Pick a captain next.")
	case squad.StateHasCaptain:
		b.WriteString("Pick a vice-captain next.")
	case squad.StateComplete:
		b.WriteString("Squad complete. Good luck!")
	}
	return b.String()
}

func renderSchedule(summaries []usecase.MatchSummary) string {
	if len(summaries) == 0 {
		return "No matches scheduled yet."
	}
	var b strings.Builder
	b.WriteString("Schedule:\n")
	for _, summary := range summaries {
		status := ""
		if summary.Locked {
			status = " 🔒"
		}
		fmt.Fprintf(&b, "• %s (%s)%s\n", summary.Name, strings.Join(summary.Teams, " vs "), status)
	}
	return b.String()
}

func scheduleKeyboard(summaries []usecase.MatchSummary) [][]Button {
	rows := make([][]Button, 0, len(summaries))
	for _, summary := range summaries {
		if summary.Locked {
			continue
		}
		rows = append(rows, []Button{{
			Label: summary.Name,
			Data:  encodeCallback("squad", summary.Name),
		}})
	}
	return rows
}

func roomsKeyboard(match string, stakes map[bet.Room]int) [][]Button {
	rooms := make([]bet.Room, 0, len(stakes))
	for room := range stakes {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return stakes[rooms[i]] < stakes[rooms[j]] })

	rows := make([][]Button, 0, len(rooms))
	for _, room := range rooms {
		rows = append(rows, []Button{{
			Label: fmt.Sprintf("%s (%d)", room, stakes[room]),
			Data:  encodeRequestBet(match, room, stakes[room]),
		}})
	}
	return rows
}

func renderQuestion(view usecase.QuestionView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d/%d\n%s\n", view.Index, view.Total, view.Question.Text)
	if view.UserAnswer != "" {
		fmt.Fprintf(&b, "Your answer: %s\n", view.UserAnswer)
	}
	if view.CorrectAnswer != "" {
		fmt.Fprintf(&b, "Correct answer: %s\n", view.CorrectAnswer)
	}
	return b.String()
}

// questionKeyboard shows answer buttons only while the question is open for
// this viewer, plus Previous/Next clamped at the ends.
func questionKeyboard(view usecase.QuestionView) [][]Button {
	var rows [][]Button

	if view.Open() {
		row := make([]Button, 0, len(view.Question.Options))
		for _, option := range view.Question.Options {
			row = append(row, Button{Label: option, Data: encodeCallback("answer", view.ID, option)})
		}
		rows = append(rows, row)
	}

	var nav []Button
	if view.PrevID != "" {
		nav = append(nav, Button{Label: "⬅️ Previous", Data: encodeCallback("prev", view.ID)})
	}
	if view.NextID != "" {
		nav = append(nav, Button{Label: "Next ➡️", Data: encodeCallback("next", view.ID)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return rows
}

func renderSquadRanking(ranks []usecase.SquadRank) string {
	if len(ranks) == 0 {
		return "No squads to rank yet."
	}
	var b strings.Builder
	b.WriteString("Leaderboard:\n")
	for i, rank := range ranks {
		fmt.Fprintf(&b, "%d. %s — %.1f\n", i+1, rank.UserID, rank.Score)
	}
	return b.String()
}

func renderPredictionRanking(ranks []usecase.PredictionRank) string {
	if len(ranks) == 0 {
		return "No prediction answers yet."
	}
	var b strings.Builder
	b.WriteString("Prediction leaderboard:\n")
	for i, rank := range ranks {
		fmt.Fprintf(&b, "%d. %s — %d correct\n", i+1, rank.UserID, rank.Correct)
	}
	return b.String()
}

func renderProfile(view usecase.ProfileView) string {
	var b strings.Builder
	b.WriteString("Your profile\n")

	if len(view.Squads) == 0 {
		b.WriteString("No squads yet.\n")
	}
	for _, sq := range view.Squads {
		fmt.Fprintf(&b, "\n%s:\n", sq.Match)
		for _, player := range sq.Players {
			marker := ""
			switch player {
			case sq.Captain:
				marker = " (C)"
			case sq.ViceCaptain:
				marker = " (VC)"
			}
			fmt.Fprintf(&b, "• %s%s\n", player, marker)
		}
		if amount, ok := view.Bets[sq.Match]; ok {
			fmt.Fprintf(&b, "Verified bet: %d\n", amount)
		}
	}

	if len(view.Answers) > 0 {
		b.WriteString("\nYour answers:\n")
		ids := make([]string, 0, len(view.Answers))
		for id := range view.Answers {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&b, "Q%s: %s\n", id, view.Answers[id])
		}
	}
	return b.String()
}

func renderOverview(page usecase.OverviewPage) string {
	if len(page.Entries) == 0 {
		return "No squads yet."
	}
	var b strings.Builder
	if page.TotalPages > 1 {
		fmt.Fprintf(&b, "All squads (page %d/%d):\n", page.Page, page.TotalPages)
	} else {
		b.WriteString("All squads:\n")
	}
	for _, entry := range page.Entries {
		fmt.Fprintf(&b, "\n%s — %s\n", entry.UserID, entry.Match)
		for _, player := range entry.Players {
			marker := ""
			switch player {
			case entry.Captain:
				marker = " (C)"
			case entry.ViceCaptain:
				marker = " (VC)"
			}
			fmt.Fprintf(&b, "• %s%s\n", player, marker)
		}
		if entry.BetAmount > 0 {
			fmt.Fprintf(&b, "Verified bet: %d\n", entry.BetAmount)
		}
	}
	return b.String()
}

// overviewKeyboard pages through the admin overview, clamped at the ends.
func overviewKeyboard(page usecase.OverviewPage) [][]Button {
	var nav []Button
	if page.Page > 1 {
		nav = append(nav, Button{Label: "⬅️ Previous", Data: encodeCallback("team", strconv.Itoa(page.Page-1))})
	}
	if page.Page < page.TotalPages {
		nav = append(nav, Button{Label: "Next ➡️", Data: encodeCallback("team", strconv.Itoa(page.Page+1))})
	}
	if len(nav) == 0 {
		return nil
	}
	return [][]Button{nav}
}
