package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trainwr/fantasy-cricket/internal/domain/bet"
)

// callbackSep joins callback data fields. Button taps round-trip through
// ParseCallback, so every encoded field must survive the split.
const callbackSep = "::"

var ErrUnknownCommand = errors.New("unknown command")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Action is one parsed user intention. The string protocol carried in
// commands and button callbacks is decoded exactly once, here; everything
// past this boundary works with typed fields.
type Action interface {
	isAction()
}

// User actions.
type (
	ShowHelp     struct{}
	ShowSchedule struct{}
	ShowProfile  struct{}

	CreateSquad struct {
		Match string `validate:"required"`
	}
	ShowSquad struct {
		Match string `validate:"required"`
	}
	SelectPlayer struct {
		Match  string `validate:"required"`
		Player string `validate:"required"`
	}
	RemovePlayer struct {
		Match  string `validate:"required"`
		Player string `validate:"required"`
	}
	SetCaptain struct {
		Match  string `validate:"required"`
		Player string `validate:"required"`
	}
	SetViceCaptain struct {
		Match  string `validate:"required"`
		Player string `validate:"required"`
	}

	ShowRooms struct {
		Match string `validate:"required"`
	}
	RequestBet struct {
		Match  string `validate:"required"`
		Room   string `validate:"required"`
		Amount int    `validate:"gt=0"`
	}

	ShowQuestions struct{}
	ShowQuestion  struct {
		ID string `validate:"required"`
	}
	AnswerQuestion struct {
		ID     string `validate:"required"`
		Option string `validate:"required"`
	}
	PrevQuestion struct {
		From string `validate:"required"`
	}
	NextQuestion struct {
		From string `validate:"required"`
	}

	ShowRanking           struct{}
	ShowPredictionRanking struct{}
)

// Admin actions.
type (
	ShowAdminHelp struct{}

	CreateMatch struct {
		Name string `validate:"required"`
	}
	RemoveMatch struct {
		Name string `validate:"required"`
	}
	AddTeam struct {
		Match string `validate:"required"`
		Team  string `validate:"required"`
	}
	RemoveTeam struct {
		Match string `validate:"required"`
		Team  string `validate:"required"`
	}
	ResetTeamRoster struct {
		Match string `validate:"required"`
		Team  string `validate:"required"`
	}
	AddPlayers struct {
		Match   string   `validate:"required"`
		Team    string   `validate:"required"`
		Players []string `validate:"min=1,dive,required"`
	}
	LockMatch struct {
		Match string `validate:"required"`
	}
	UnlockMatch struct {
		Match string `validate:"required"`
	}

	VerifyBet struct {
		UserID string `validate:"required"`
		Match  string `validate:"required"`
		Amount int    `validate:"gt=0"`
	}

	AddQuestion struct {
		Text    string `validate:"required"`
		OptionA string `validate:"required"`
		OptionB string `validate:"required"`
	}
	SetCorrectAnswer struct {
		ID     string `validate:"required"`
		Option int    `validate:"min=1,max=2"`
	}

	AssignPoints struct {
		Player string `validate:"required"`
		Points int
	}

	Announce struct {
		ChatID  string `validate:"required"`
		Message string `validate:"required"`
	}

	ShowOverview     struct{ Page int }
	ExportSheet      struct{}
	CheckStorage     struct{}
	Backup           struct{}
	Restore          struct{ Payload []byte }
	ClearAll         struct{}
	ClearPredictions struct{}
)

func (ShowHelp) isAction()              {}
func (ShowSchedule) isAction()          {}
func (ShowProfile) isAction()           {}
func (CreateSquad) isAction()           {}
func (ShowSquad) isAction()             {}
func (SelectPlayer) isAction()          {}
func (RemovePlayer) isAction()          {}
func (SetCaptain) isAction()            {}
func (SetViceCaptain) isAction()        {}
func (ShowRooms) isAction()             {}
func (RequestBet) isAction()            {}
func (ShowQuestions) isAction()         {}
func (ShowQuestion) isAction()          {}
func (AnswerQuestion) isAction()        {}
func (PrevQuestion) isAction()          {}
func (NextQuestion) isAction()          {}
func (ShowRanking) isAction()           {}
func (ShowPredictionRanking) isAction() {}
func (ShowAdminHelp) isAction()         {}
func (CreateMatch) isAction()           {}
func (RemoveMatch) isAction()           {}
func (AddTeam) isAction()               {}
func (RemoveTeam) isAction()            {}
func (ResetTeamRoster) isAction()       {}
func (AddPlayers) isAction()            {}
func (LockMatch) isAction()             {}
func (UnlockMatch) isAction()           {}
func (VerifyBet) isAction()             {}
func (AddQuestion) isAction()           {}
func (SetCorrectAnswer) isAction()      {}
func (AssignPoints) isAction()          {}
func (Announce) isAction()              {}
func (ShowOverview) isAction()          {}
func (ExportSheet) isAction()           {}
func (CheckStorage) isAction()          {}
func (Backup) isAction()                {}
func (Restore) isAction()               {}
func (ClearAll) isAction()              {}
func (ClearPredictions) isAction()      {}

// ParseCommand decodes a slash command and its positional arguments.
// Multi-word trailing arguments (match names, question text) must be quoted
// or joined by the transport before reaching here; args arrive pre-split.
func ParseCommand(name string, args []string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "/")))

	var action Action
	switch name {
	case "help", "start":
		action = ShowHelp{}
	case "admhelp":
		action = ShowAdminHelp{}
	case "schedule":
		action = ShowSchedule{}
	case "profile":
		action = ShowProfile{}
	case "createteam":
		action = CreateSquad{Match: joined(args)}
	case "myteam":
		action = ShowSquad{Match: joined(args)}
	case "bet":
		action = ShowRooms{Match: joined(args)}
	case "yon":
		action = ShowQuestions{}
	case "ranking":
		action = ShowRanking{}
	case "yonranking":
		action = ShowPredictionRanking{}
	case "creatematch":
		action = CreateMatch{Name: joined(args)}
	case "removematch":
		action = RemoveMatch{Name: joined(args)}
	case "addteam":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: addteam <match> <team>", ErrUnknownCommand)
		}
		action = AddTeam{Match: args[0], Team: args[1]}
	case "removeteam":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: removeteam <match> <team>", ErrUnknownCommand)
		}
		action = RemoveTeam{Match: args[0], Team: args[1]}
	case "resetplayers":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: resetplayers <match> <team>", ErrUnknownCommand)
		}
		action = ResetTeamRoster{Match: args[0], Team: args[1]}
	case "addplayers":
		if len(args) < 3 {
			return nil, fmt.Errorf("%w: addplayers <match> <team> <player>...", ErrUnknownCommand)
		}
		action = AddPlayers{Match: args[0], Team: args[1], Players: args[2:]}
	case "lock":
		action = LockMatch{Match: joined(args)}
	case "unlock":
		action = UnlockMatch{Match: joined(args)}
	case "verify":
		if len(args) < 3 {
			return nil, fmt.Errorf("%w: verify <user> <match> <amount>", ErrUnknownCommand)
		}
		amount, err := strconv.Atoi(args[len(args)-1])
		if err != nil {
			return nil, fmt.Errorf("%w: amount must be an integer", ErrUnknownCommand)
		}
		action = VerifyBet{
			UserID: args[0],
			Match:  strings.Join(args[1:len(args)-1], " "),
			Amount: amount,
		}
	case "yonadd":
		if len(args) < 3 {
			return nil, fmt.Errorf("%w: yonadd <text> <optionA> <optionB>", ErrUnknownCommand)
		}
		action = AddQuestion{
			Text:    strings.Join(args[:len(args)-2], " "),
			OptionA: args[len(args)-2],
			OptionB: args[len(args)-1],
		}
	case "yonanswer":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: yonanswer <question-id> <1|2>", ErrUnknownCommand)
		}
		option, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("%w: option must be 1 or 2", ErrUnknownCommand)
		}
		action = SetCorrectAnswer{ID: args[0], Option: option}
	case "points":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: points <player> <points>", ErrUnknownCommand)
		}
		points, err := strconv.Atoi(args[len(args)-1])
		if err != nil {
			return nil, fmt.Errorf("%w: points must be an integer", ErrUnknownCommand)
		}
		action = AssignPoints{Player: strings.Join(args[:len(args)-1], " "), Points: points}
	case "announcement":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: announcement <chat> <message>", ErrUnknownCommand)
		}
		action = Announce{ChatID: args[0], Message: strings.Join(args[1:], " ")}
	case "team":
		page := 1
		if len(args) > 0 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("%w: team [page]", ErrUnknownCommand)
			}
			page = parsed
		}
		action = ShowOverview{Page: page}
	case "sheet":
		action = ExportSheet{}
	case "checkstorage":
		action = CheckStorage{}
	case "backup":
		action = Backup{}
	case "clear":
		action = ClearAll{}
	case "yonclear":
		action = ClearPredictions{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	return checked(action)
}

// ParseCallback decodes button callback data produced by the keyboard
// builders.
func ParseCallback(data string) (Action, error) {
	parts := strings.Split(data, callbackSep)
	verb := parts[0]
	args := parts[1:]

	var action Action
	switch verb {
	case "squad":
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: squad callback", ErrUnknownCommand)
		}
		action = CreateSquad{Match: args[0]}
	case "select":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: select callback", ErrUnknownCommand)
		}
		action = SelectPlayer{Match: args[0], Player: args[1]}
	case "drop":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: drop callback", ErrUnknownCommand)
		}
		action = RemovePlayer{Match: args[0], Player: args[1]}
	case "captain":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: captain callback", ErrUnknownCommand)
		}
		action = SetCaptain{Match: args[0], Player: args[1]}
	case "vice":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: vice callback", ErrUnknownCommand)
		}
		action = SetViceCaptain{Match: args[0], Player: args[1]}
	case "room":
		if len(args) < 3 {
			return nil, fmt.Errorf("%w: room callback", ErrUnknownCommand)
		}
		amount, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("%w: room amount", ErrUnknownCommand)
		}
		action = RequestBet{Match: args[0], Room: args[1], Amount: amount}
	case "verify":
		if len(args) < 3 {
			return nil, fmt.Errorf("%w: verify callback", ErrUnknownCommand)
		}
		amount, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("%w: verify amount", ErrUnknownCommand)
		}
		action = VerifyBet{UserID: args[0], Match: args[1], Amount: amount}
	case "team":
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: team callback", ErrUnknownCommand)
		}
		page, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("%w: team page", ErrUnknownCommand)
		}
		action = ShowOverview{Page: page}
	case "answer":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: answer callback", ErrUnknownCommand)
		}
		action = AnswerQuestion{ID: args[0], Option: args[1]}
	case "question":
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: question callback", ErrUnknownCommand)
		}
		action = ShowQuestion{ID: args[0]}
	case "prev":
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: prev callback", ErrUnknownCommand)
		}
		action = PrevQuestion{From: args[0]}
	case "next":
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: next callback", ErrUnknownCommand)
		}
		action = NextQuestion{From: args[0]}
	default:
		return nil, fmt.Errorf("%w: callback %s", ErrUnknownCommand, verb)
	}

	return checked(action)
}

func checked(action Action) (Action, error) {
	if err := validate.Struct(action); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownCommand, err)
	}
	return action, nil
}

func joined(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func encodeCallback(parts ...string) string {
	return strings.Join(parts, callbackSep)
}

func encodeRequestBet(match string, room bet.Room, amount int) string {
	return encodeCallback("room", match, string(room), strconv.Itoa(amount))
}

func encodeVerifyBet(userID, match string, amount int) string {
	return encodeCallback("verify", userID, match, strconv.Itoa(amount))
}
