package chat

import (
	"errors"
	"testing"

	"github.com/trainwr/fantasy-cricket/internal/domain/bet"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		name string
		cmd  string
		args []string
		want Action
	}{
		{"help", "help", nil, ShowHelp{}},
		{"start aliases help", "start", nil, ShowHelp{}},
		{"slash prefix stripped", "/schedule", nil, ShowSchedule{}},
		{"mixed case", "RANKING", nil, ShowRanking{}},
		{"multi-word match joined", "createteam", []string{"India", "vs", "Australia"}, CreateSquad{Match: "India vs Australia"}},
		{"myteam", "myteam", []string{"Final"}, ShowSquad{Match: "Final"}},
		{"bet", "bet", []string{"Final"}, ShowRooms{Match: "Final"}},
		{"addteam", "addteam", []string{"Final", "India"}, AddTeam{Match: "Final", Team: "India"}},
		{"addplayers variadic", "addplayers", []string{"Final", "India", "Kohli", "Bumrah"}, AddPlayers{Match: "Final", Team: "India", Players: []string{"Kohli", "Bumrah"}}},
		{"yonadd last two args are options", "yonadd", []string{"Will", "it", "rain?", "Yes", "No"}, AddQuestion{Text: "Will it rain?", OptionA: "Yes", OptionB: "No"}},
		{"yonanswer", "yonanswer", []string{"3", "2"}, SetCorrectAnswer{ID: "3", Option: 2}},
		{"points multi-word player", "points", []string{"MS", "Dhoni", "85"}, AssignPoints{Player: "MS Dhoni", Points: 85}},
		{"verify multi-word match", "verify", []string{"user-1", "India", "vs", "Australia", "500"}, VerifyBet{UserID: "user-1", Match: "India vs Australia", Amount: 500}},
		{"announcement multi-word message", "announcement", []string{"group-42", "Finals", "start", "at", "7pm."}, Announce{ChatID: "group-42", Message: "Finals start at 7pm."}},
		{"team defaults to first page", "team", nil, ShowOverview{Page: 1}},
		{"team with page", "team", []string{"2"}, ShowOverview{Page: 2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCommand(tc.cmd, tc.args)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			assertActionEqual(t, got, tc.want)
		})
	}
}

func TestParseCommandFailures(t *testing.T) {
	cases := []struct {
		name string
		cmd  string
		args []string
	}{
		{"unknown command", "frobnicate", nil},
		{"createteam without match", "createteam", nil},
		{"addteam missing team", "addteam", []string{"Final"}},
		{"addplayers without players", "addplayers", []string{"Final", "India"}},
		{"yonanswer non-numeric option", "yonanswer", []string{"3", "two"}},
		{"yonanswer option out of range", "yonanswer", []string{"3", "5"}},
		{"points non-numeric", "points", []string{"Kohli", "lots"}},
		{"verify missing amount", "verify", []string{"user-1", "Final"}},
		{"verify non-numeric amount", "verify", []string{"user-1", "Final", "lots"}},
		{"announcement without message", "announcement", []string{"group-42"}},
		{"team non-numeric page", "team", []string{"two"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCommand(tc.cmd, tc.args); !errors.Is(err, ErrUnknownCommand) {
				t.Fatalf("expected ErrUnknownCommand, got %v", err)
			}
		})
	}
}

// Every callback the keyboard builders can emit must decode back into the
// action it encodes.
func TestCallbackRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		data string
		want Action
	}{
		{"squad", encodeCallback("squad", "Final"), CreateSquad{Match: "Final"}},
		{"select", encodeCallback("select", "Final", "Kohli"), SelectPlayer{Match: "Final", Player: "Kohli"}},
		{"drop", encodeCallback("drop", "Final", "Kohli"), RemovePlayer{Match: "Final", Player: "Kohli"}},
		{"captain", encodeCallback("captain", "Final", "Kohli"), SetCaptain{Match: "Final", Player: "Kohli"}},
		{"vice", encodeCallback("vice", "Final", "Kohli"), SetViceCaptain{Match: "Final", Player: "Kohli"}},
		{"room", encodeRequestBet("Final", bet.RoomChotu, 500), RequestBet{Match: "Final", Room: "Chotu", Amount: 500}},
		{"verify", encodeVerifyBet("user-1", "Final", 500), VerifyBet{UserID: "user-1", Match: "Final", Amount: 500}},
		{"answer", encodeCallback("answer", "3", "Yes"), AnswerQuestion{ID: "3", Option: "Yes"}},
		{"question", encodeCallback("question", "3"), ShowQuestion{ID: "3"}},
		{"prev", encodeCallback("prev", "3"), PrevQuestion{From: "3"}},
		{"next", encodeCallback("next", "3"), NextQuestion{From: "3"}},
		{"team page", encodeCallback("team", "2"), ShowOverview{Page: 2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCallback(tc.data)
			if err != nil {
				t.Fatalf("parse callback %q: %v", tc.data, err)
			}
			assertActionEqual(t, got, tc.want)
		})
	}
}

func TestParseCallbackFailures(t *testing.T) {
	cases := []string{
		"bogus::Final",
		"select::Final",
		"room::Final::Chotu::abc",
		"verify::user-1::Final",
		"team::two",
		"",
	}

	for _, data := range cases {
		if _, err := ParseCallback(data); !errors.Is(err, ErrUnknownCommand) {
			t.Fatalf("expected ErrUnknownCommand for %q, got %v", data, err)
		}
	}
}

// Match names travel inside callback data, so a name carrying the separator
// would corrupt every button. The encoder is private; this pins the format.
func TestEncodeCallbackFormat(t *testing.T) {
	if got := encodeCallback("select", "Final", "Kohli"); got != "select::Final::Kohli" {
		t.Fatalf("unexpected callback encoding: %q", got)
	}
}

func assertActionEqual(t *testing.T, got, want Action) {
	t.Helper()

	switch w := want.(type) {
	case AddPlayers:
		g, ok := got.(AddPlayers)
		if !ok || g.Match != w.Match || g.Team != w.Team {
			t.Fatalf("got %#v, want %#v", got, want)
		}
		if len(g.Players) != len(w.Players) {
			t.Fatalf("got players %v, want %v", g.Players, w.Players)
		}
		for i := range w.Players {
			if g.Players[i] != w.Players[i] {
				t.Fatalf("got players %v, want %v", g.Players, w.Players)
			}
		}
	default:
		if got != want {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	}
}
