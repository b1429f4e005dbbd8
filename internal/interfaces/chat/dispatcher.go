package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/trainwr/fantasy-cricket/internal/domain/bet"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
	"github.com/trainwr/fantasy-cricket/internal/usecase"
)

var ErrRateLimited = errors.New("rate limited")

var chatTracer = otel.Tracer("fantasy-cricket/internal/interfaces/chat")

const helpText = `Commands:
/schedule - list matches
/createteam <match> - start picking your squad
/myteam <match> - show your squad
/bet <match> - request a wager
/yon - prediction questions
/ranking - points leaderboard
/yonranking - prediction leaderboard
/profile - your squads, bets and answers`

const adminHelpText = `Admin commands:
/creatematch <name>, /removematch <name>
/addteam <match> <team>, /removeteam <match> <team>
/addplayers <match> <team> <players...>, /resetplayers <match> <team>
/lock <match>, /unlock <match>
/verify <user> <match> <amount>
/points <player> <points>
/yonadd <text> <optionA> <optionB>, /yonanswer <id> <1|2>, /yonclear
/announcement <chat> <message>
/team [page], /sheet, /backup, /restore (attach backup), /checkstorage, /clear`

// Request is one inbound user action, already parsed by the transport.
type Request struct {
	UserID    string
	Username  string
	RealmName string
	Action    Action
}

// Dispatcher routes parsed actions to the owning service and renders the
// outcome. It owns the admin allow-list, the per-user rate limit, and the
// mapping from typed failures to user-facing text.
type Dispatcher struct {
	catalog     *usecase.CatalogService
	squads      *usecase.SquadService
	bets        *usecase.BetService
	predictions *usecase.PredictionService
	rankings    *usecase.RankingService
	maintenance *usecase.MaintenanceService

	admins  map[string]struct{}
	limiter *rateLimiter
	logger  *logging.Logger
}

func NewDispatcher(
	catalog *usecase.CatalogService,
	squads *usecase.SquadService,
	bets *usecase.BetService,
	predictions *usecase.PredictionService,
	rankings *usecase.RankingService,
	maintenance *usecase.MaintenanceService,
	adminIDs []string,
	logger *logging.Logger,
) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}

	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			admins[id] = struct{}{}
		}
	}

	return &Dispatcher{
		catalog:     catalog,
		squads:      squads,
		bets:        bets,
		predictions: predictions,
		rankings:    rankings,
		maintenance: maintenance,
		admins:      admins,
		limiter:     newRateLimiter(),
		logger:      logger,
	}
}

// Dispatch handles one request end to end. On a typed failure it returns
// both the rendered rejection and the error, so transports can still branch
// on the error kind.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Reply, error) {
	ctx, span := startChatSpan(ctx, "Dispatcher.Dispatch")
	defer span.End()

	if strings.TrimSpace(req.UserID) == "" {
		err := fmt.Errorf("%w: user id is required", usecase.ErrInvalidInput)
		return d.failure(ctx, req, err)
	}
	if !d.limiter.Allow(req.UserID) {
		d.logger.WarnContext(ctx, "rate limit hit", "user_id", req.UserID)
		return alertReply("Slow down. Try again in a minute."), ErrRateLimited
	}

	actor := usecase.Actor{
		ID:       req.UserID,
		Username: req.Username,
		Admin:    d.isAdmin(req.UserID),
	}

	reply, err := d.dispatch(ctx, req, actor)
	if err != nil {
		return d.failure(ctx, req, err)
	}
	return reply, nil
}

func (d *Dispatcher) isAdmin(userID string) bool {
	_, ok := d.admins[userID]
	return ok
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request, actor usecase.Actor) (Reply, error) {
	realmName := req.RealmName

	switch action := req.Action.(type) {
	case ShowHelp:
		return Reply{Text: helpText}, nil

	case ShowAdminHelp:
		if !actor.Admin {
			return Reply{}, fmt.Errorf("%w: administrator access required", usecase.ErrUnauthorized)
		}
		return Reply{Text: adminHelpText}, nil

	case ShowSchedule:
		summaries, err := d.catalog.Schedule(ctx, realmName)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: renderSchedule(summaries), Keyboard: scheduleKeyboard(summaries)}, nil

	case ShowProfile:
		profile, err := d.rankings.Profile(ctx, realmName, actor.ID)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: renderProfile(profile)}, nil

	case CreateSquad:
		view, err := d.squads.CreateSquad(ctx, realmName, actor, action.Match)
		if err != nil {
			return Reply{}, err
		}
		return squadReply(view), nil

	case ShowSquad:
		view, err := d.squads.Squad(ctx, realmName, actor.ID, action.Match)
		if err != nil {
			return Reply{}, err
		}
		return squadReply(view), nil

	case SelectPlayer:
		view, err := d.squads.SelectPlayer(ctx, realmName, actor, action.Match, action.Player)
		if err != nil {
			return Reply{}, err
		}
		return squadReply(view), nil

	case RemovePlayer:
		view, err := d.squads.RemovePlayer(ctx, realmName, actor, action.Match, action.Player)
		if err != nil {
			return Reply{}, err
		}
		return squadReply(view), nil

	case SetCaptain:
		view, err := d.squads.SetCaptain(ctx, realmName, actor, action.Match, action.Player)
		if err != nil {
			return Reply{}, err
		}
		return squadReply(view), nil

	case SetViceCaptain:
		view, err := d.squads.SetViceCaptain(ctx, realmName, actor, action.Match, action.Player)
		if err != nil {
			return Reply{}, err
		}
		return squadReply(view), nil

	case ShowRooms:
		if _, err := d.catalog.Match(ctx, realmName, action.Match); err != nil {
			return Reply{}, err
		}
		return Reply{
			Text:     fmt.Sprintf("Pick a room for %s:", action.Match),
			Keyboard: roomsKeyboard(action.Match, d.bets.Rooms()),
		}, nil

	case RequestBet:
		prompted, err := d.bets.RequestBet(ctx, realmName, actor, action.Match, bet.Room(action.Room), action.Amount)
		if err != nil {
			return Reply{}, err
		}
		if !prompted {
			return textReply("Your bet of %d on %s is recorded, but admins could not be reached. They will review it shortly.", action.Amount, action.Match), nil
		}
		return textReply("Your bet of %d on %s is waiting for admin verification.", action.Amount, action.Match), nil

	case VerifyBet:
		if err := d.bets.VerifyBet(ctx, realmName, actor, action.UserID, action.Match, action.Amount); err != nil {
			return Reply{}, err
		}
		return textReply("Verified bet of %d for %s on %s.", action.Amount, action.UserID, action.Match), nil

	case ShowQuestions:
		view, err := d.predictions.FirstQuestion(ctx, realmName, actor.ID)
		if err != nil {
			return Reply{}, err
		}
		return questionReply(view), nil

	case ShowQuestion:
		view, err := d.predictions.Question(ctx, realmName, actor.ID, action.ID)
		if err != nil {
			return Reply{}, err
		}
		return questionReply(view), nil

	case AnswerQuestion:
		if err := d.predictions.Answer(ctx, realmName, actor, action.ID, action.Option); err != nil {
			return Reply{}, err
		}
		view, err := d.predictions.Question(ctx, realmName, actor.ID, action.ID)
		if err != nil {
			return Reply{}, err
		}
		return questionReply(view), nil

	case PrevQuestion:
		view, err := d.predictions.Previous(ctx, realmName, actor.ID, action.From)
		if err != nil {
			return Reply{}, err
		}
		return questionReply(view), nil

	case NextQuestion:
		view, err := d.predictions.Next(ctx, realmName, actor.ID, action.From)
		if err != nil {
			return Reply{}, err
		}
		return questionReply(view), nil

	case ShowRanking:
		ranks, err := d.rankings.SquadRanking(ctx, realmName)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: renderSquadRanking(ranks)}, nil

	case ShowPredictionRanking:
		ranks, err := d.rankings.PredictionRanking(ctx, realmName)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: renderPredictionRanking(ranks)}, nil

	case CreateMatch:
		if err := d.catalog.CreateMatch(ctx, realmName, actor, action.Name); err != nil {
			return Reply{}, err
		}
		return textReply("Match %s created.", action.Name), nil

	case RemoveMatch:
		if err := d.catalog.RemoveMatch(ctx, realmName, actor, action.Name); err != nil {
			return Reply{}, err
		}
		return textReply("Match %s removed, along with its squads and bets.", action.Name), nil

	case AddTeam:
		if err := d.catalog.AddTeam(ctx, realmName, actor, action.Match, action.Team); err != nil {
			return Reply{}, err
		}
		return textReply("Team %s added to %s.", action.Team, action.Match), nil

	case RemoveTeam:
		if err := d.catalog.RemoveTeam(ctx, realmName, actor, action.Match, action.Team); err != nil {
			return Reply{}, err
		}
		return textReply("Team %s removed from %s.", action.Team, action.Match), nil

	case ResetTeamRoster:
		removed, err := d.catalog.ResetTeamRoster(ctx, realmName, actor, action.Match, action.Team)
		if err != nil {
			return Reply{}, err
		}
		return textReply("Cleared %d players from %s in %s.", len(removed), action.Team, action.Match), nil

	case AddPlayers:
		if err := d.catalog.AddPlayers(ctx, realmName, actor, action.Match, action.Team, action.Players); err != nil {
			return Reply{}, err
		}
		return textReply("Added %d players to %s in %s.", len(action.Players), action.Team, action.Match), nil

	case LockMatch:
		if err := d.catalog.Lock(ctx, realmName, actor, action.Match); err != nil {
			return Reply{}, err
		}
		return textReply("Match %s locked.", action.Match), nil

	case UnlockMatch:
		if err := d.catalog.Unlock(ctx, realmName, actor, action.Match); err != nil {
			return Reply{}, err
		}
		return textReply("Match %s unlocked.", action.Match), nil

	case AddQuestion:
		id, err := d.predictions.AddQuestion(ctx, realmName, actor, action.Text, action.OptionA, action.OptionB)
		if err != nil {
			return Reply{}, err
		}
		return textReply("Question %s added.", id), nil

	case SetCorrectAnswer:
		answer, err := d.predictions.SetCorrectAnswer(ctx, realmName, actor, action.ID, action.Option)
		if err != nil {
			return Reply{}, err
		}
		return textReply("Question %s closed with answer %q.", action.ID, answer), nil

	case AssignPoints:
		if err := d.rankings.AssignPoints(ctx, realmName, actor, action.Player, action.Points); err != nil {
			return Reply{}, err
		}
		return textReply("%s now has %d points.", action.Player, action.Points), nil

	case Announce:
		if err := d.maintenance.Announce(ctx, actor, action.ChatID, action.Message); err != nil {
			return Reply{}, err
		}
		return textReply("Announcement sent to %s.", action.ChatID), nil

	case ShowOverview:
		page, err := d.maintenance.Overview(ctx, realmName, actor, action.Page)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: renderOverview(page), Keyboard: overviewKeyboard(page)}, nil

	case ExportSheet:
		data, err := d.maintenance.ExportCSV(ctx, realmName, actor)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: "Squad export attached.", Document: &File{Name: "squads.csv", Data: data}}, nil

	case CheckStorage:
		stats, err := d.maintenance.CheckStorage(ctx, realmName, actor)
		if err != nil {
			return Reply{}, err
		}
		if stats.LimitBytes > 0 {
			return textReply("Storage: %d of %d bytes used (%.1f%%).", stats.UsedBytes, stats.LimitBytes, stats.Usage()*100), nil
		}
		return textReply("Storage: %d bytes used, no limit.", stats.UsedBytes), nil

	case Backup:
		data, err := d.maintenance.Backup(ctx, realmName, actor)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: "Backup attached.", Document: &File{Name: "backup.json", Data: data}}, nil

	case Restore:
		if err := d.maintenance.Restore(ctx, realmName, actor, action.Payload); err != nil {
			return Reply{}, err
		}
		return Reply{Text: "Backup restored."}, nil

	case ClearAll:
		if err := d.maintenance.Clear(ctx, realmName, actor); err != nil {
			return Reply{}, err
		}
		return Reply{Text: "All data cleared."}, nil

	case ClearPredictions:
		if err := d.maintenance.ClearPredictions(ctx, realmName, actor); err != nil {
			return Reply{}, err
		}
		return Reply{Text: "Prediction data cleared."}, nil

	default:
		return Reply{}, fmt.Errorf("%w: unhandled action %T", ErrUnknownCommand, req.Action)
	}
}

func (d *Dispatcher) failure(ctx context.Context, req Request, err error) (Reply, error) {
	d.logger.WarnContext(ctx, "request rejected",
		"user_id", req.UserID,
		"realm", req.RealmName,
		"action", fmt.Sprintf("%T", req.Action),
		"error", err,
	)
	text, alert := errorText(err)
	return Reply{Text: text, Alert: alert}, err
}

// errorText maps typed failures to user-facing copy. Alert-style errors are
// transient UI rejections; the rest read as normal messages.
func errorText(err error) (text string, alert bool) {
	switch {
	case errors.Is(err, usecase.ErrMatchLocked):
		return "This match is locked.", true
	case errors.Is(err, usecase.ErrTeamFull):
		return "Your squad already has 11 players.", true
	case errors.Is(err, usecase.ErrPlayerNotInSquad):
		return "That player is not in your squad.", true
	case errors.Is(err, usecase.ErrCaptainConflict):
		return "That player is already your captain.", true
	case errors.Is(err, usecase.ErrInsufficientPlayers):
		return "You need more players in your squad first.", true
	case errors.Is(err, usecase.ErrAlreadyAnswered):
		return "You already answered this question.", true
	case errors.Is(err, usecase.ErrQuestionClosed):
		return "This question is closed.", true
	case errors.Is(err, usecase.ErrBetNotFound):
		return "No matching pending bet was found.", false
	case errors.Is(err, usecase.ErrUnauthorized):
		return "You are not allowed to do that.", false
	case errors.Is(err, usecase.ErrAlreadyExists):
		return "That already exists.", false
	case errors.Is(err, usecase.ErrNotFound):
		return "Not found.", false
	case errors.Is(err, usecase.ErrInvalidFormat):
		return "That backup file is not valid.", false
	case errors.Is(err, usecase.ErrStorageUnavailable):
		return "Storage is unavailable right now. Nothing was changed; please retry.", false
	case errors.Is(err, usecase.ErrInvalidInput), errors.Is(err, ErrUnknownCommand):
		return "I did not understand that. Try /help.", false
	default:
		return "Something went wrong. Please try again.", false
	}
}

func squadReply(view usecase.SquadView) Reply {
	return Reply{Text: renderSquad(view), Keyboard: squadKeyboard(view)}
}

func questionReply(view usecase.QuestionView) Reply {
	return Reply{Text: renderQuestion(view), Keyboard: questionKeyboard(view)}
}

func startChatSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, parent
	}
	return chatTracer.Start(ctx, name)
}
