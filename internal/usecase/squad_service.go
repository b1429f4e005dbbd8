package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trainwr/fantasy-cricket/internal/domain/catalog"
	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
	"github.com/trainwr/fantasy-cricket/internal/domain/squad"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

// SquadView is the read model for rendering a user's selection screen.
type SquadView struct {
	MatchName string
	Match     catalog.Match
	Squad     squad.Squad
	State     squad.State
}

// SquadService drives the per-user squad selection state machine. Every
// mutation checks the match lock first; a locked match freezes the squad
// exactly as it stands.
type SquadService struct {
	realms *RealmManager
	logger *logging.Logger
}

func NewSquadService(realms *RealmManager, logger *logging.Logger) *SquadService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SquadService{
		realms: realms,
		logger: logger,
	}
}

// CreateSquad starts selection for the match. Calling it again once a squad
// exists is a no-op; the selection UI re-sends the entry action freely.
func (s *SquadService) CreateSquad(ctx context.Context, realmName string, actor Actor, matchName string) (SquadView, error) {
	ctx, span := startUsecaseSpan(ctx, "SquadService.CreateSquad")
	defer span.End()

	return s.mutate(ctx, realmName, actor, matchName, func(match catalog.Match, sq *squad.Squad) error {
		if sq.State() == squad.StateNone {
			sq.Players = []string{}
		}
		return nil
	})
}

func (s *SquadService) SelectPlayer(ctx context.Context, realmName string, actor Actor, matchName, player string) (SquadView, error) {
	ctx, span := startUsecaseSpan(ctx, "SquadService.SelectPlayer")
	defer span.End()

	player = strings.TrimSpace(player)
	if player == "" {
		return SquadView{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}

	return s.mutate(ctx, realmName, actor, matchName, func(match catalog.Match, sq *squad.Squad) error {
		if !matchHasPlayer(match, player) {
			return fmt.Errorf("%w: player %s in match %s", ErrNotFound, player, matchName)
		}
		if err := sq.Select(player); err != nil {
			if errors.Is(err, squad.ErrTeamFull) {
				return fmt.Errorf("%w: squad already has %d players", ErrTeamFull, squad.MaxPlayers)
			}
			return err
		}
		return nil
	})
}

func (s *SquadService) RemovePlayer(ctx context.Context, realmName string, actor Actor, matchName, player string) (SquadView, error) {
	ctx, span := startUsecaseSpan(ctx, "SquadService.RemovePlayer")
	defer span.End()

	player = strings.TrimSpace(player)
	if player == "" {
		return SquadView{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}

	return s.mutate(ctx, realmName, actor, matchName, func(match catalog.Match, sq *squad.Squad) error {
		sq.Remove(player)
		return nil
	})
}

func (s *SquadService) SetCaptain(ctx context.Context, realmName string, actor Actor, matchName, player string) (SquadView, error) {
	ctx, span := startUsecaseSpan(ctx, "SquadService.SetCaptain")
	defer span.End()

	player = strings.TrimSpace(player)
	if player == "" {
		return SquadView{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}

	return s.mutate(ctx, realmName, actor, matchName, func(match catalog.Match, sq *squad.Squad) error {
		if err := sq.SetCaptain(player); err != nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotInSquad, player)
		}
		return nil
	})
}

func (s *SquadService) SetViceCaptain(ctx context.Context, realmName string, actor Actor, matchName, player string) (SquadView, error) {
	ctx, span := startUsecaseSpan(ctx, "SquadService.SetViceCaptain")
	defer span.End()

	player = strings.TrimSpace(player)
	if player == "" {
		return SquadView{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}

	return s.mutate(ctx, realmName, actor, matchName, func(match catalog.Match, sq *squad.Squad) error {
		switch err := sq.SetViceCaptain(player); {
		case err == nil:
			return nil
		case errors.Is(err, squad.ErrInsufficientPlayers):
			return fmt.Errorf("%w: need at least two players before picking a vice-captain", ErrInsufficientPlayers)
		case errors.Is(err, squad.ErrCaptainConflict):
			return fmt.Errorf("%w: %s is already captain", ErrCaptainConflict, player)
		default:
			return fmt.Errorf("%w: %s", ErrPlayerNotInSquad, player)
		}
	})
}

// Squad returns the user's current selection for one match, without taking
// the write lock.
func (s *SquadService) Squad(ctx context.Context, realmName, userID, matchName string) (SquadView, error) {
	ctx, span := startUsecaseSpan(ctx, "SquadService.Squad")
	defer span.End()

	matchName = strings.TrimSpace(matchName)
	if matchName == "" {
		return SquadView{}, fmt.Errorf("%w: match name is required", ErrInvalidInput)
	}

	var view SquadView
	err := s.realms.View(ctx, realmName, func(doc realm.Document) error {
		match, ok := doc.Matches[matchName]
		if !ok {
			return fmt.Errorf("%w: match %s", ErrNotFound, matchName)
		}
		sq := doc.SquadOf(userID, matchName)
		view = SquadView{MatchName: matchName, Match: match, Squad: sq, State: sq.State()}
		return nil
	})
	if err != nil {
		return SquadView{}, err
	}
	return view, nil
}

// mutate handles the boilerplate shared by every squad mutation: resolve the
// match, reject locked matches, assemble the squad, run op, write it back.
func (s *SquadService) mutate(
	ctx context.Context,
	realmName string,
	actor Actor,
	matchName string,
	op func(match catalog.Match, sq *squad.Squad) error,
) (SquadView, error) {
	matchName = strings.TrimSpace(matchName)
	if matchName == "" {
		return SquadView{}, fmt.Errorf("%w: match name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(actor.ID) == "" {
		return SquadView{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	var view SquadView
	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		match, ok := doc.Matches[matchName]
		if !ok {
			return fmt.Errorf("%w: match %s", ErrNotFound, matchName)
		}
		if match.Locked {
			return fmt.Errorf("%w: %s", ErrMatchLocked, matchName)
		}

		sq := doc.SquadOf(actor.ID, matchName)
		if err := op(match, &sq); err != nil {
			return err
		}
		doc.SetSquad(actor.ID, matchName, sq)

		view = SquadView{MatchName: matchName, Match: match, Squad: sq.Clone(), State: sq.State()}
		return nil
	})
	if err != nil {
		return SquadView{}, err
	}
	return view, nil
}

func matchHasPlayer(match catalog.Match, player string) bool {
	for _, name := range match.Players {
		if name == player {
			return true
		}
	}
	return false
}
