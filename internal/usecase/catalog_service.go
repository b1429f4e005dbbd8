package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/trainwr/fantasy-cricket/internal/domain/catalog"
	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

// MatchSummary is the read model behind the schedule listing.
type MatchSummary struct {
	Name   string
	Teams  []string
	Locked bool
}

// CatalogService owns match, team and roster administration. Every
// operation here is admin-only; reads are open to everyone.
type CatalogService struct {
	realms *RealmManager
	logger *logging.Logger
}

func NewCatalogService(realms *RealmManager, logger *logging.Logger) *CatalogService {
	if logger == nil {
		logger = logging.Default()
	}

	return &CatalogService{
		realms: realms,
		logger: logger,
	}
}

func (s *CatalogService) CreateMatch(ctx context.Context, realmName string, actor Actor, matchName string) error {
	ctx, span := startUsecaseSpan(ctx, "CatalogService.CreateMatch")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	matchName = strings.TrimSpace(matchName)
	if matchName == "" {
		return fmt.Errorf("%w: match name is required", ErrInvalidInput)
	}

	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		if _, ok := doc.Matches[matchName]; ok {
			return fmt.Errorf("%w: match %s", ErrAlreadyExists, matchName)
		}
		doc.Matches[matchName] = catalog.NewMatch()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "match created", "realm", realmName, "match", matchName, "admin", actor.ID)
	return nil
}

// RemoveMatch cascades to squads, pending and verified bets, and role
// assignments. Prediction data and player points are match-independent and
// survive.
func (s *CatalogService) RemoveMatch(ctx context.Context, realmName string, actor Actor, matchName string) error {
	ctx, span := startUsecaseSpan(ctx, "CatalogService.RemoveMatch")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	matchName = strings.TrimSpace(matchName)
	if matchName == "" {
		return fmt.Errorf("%w: match name is required", ErrInvalidInput)
	}

	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		if !doc.RemoveMatch(matchName) {
			return fmt.Errorf("%w: match %s", ErrNotFound, matchName)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "match removed", "realm", realmName, "match", matchName, "admin", actor.ID)
	return nil
}

func (s *CatalogService) AddTeam(ctx context.Context, realmName string, actor Actor, matchName, teamName string) error {
	ctx, span := startUsecaseSpan(ctx, "CatalogService.AddTeam")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	matchName = strings.TrimSpace(matchName)
	teamName = strings.TrimSpace(teamName)
	if matchName == "" || teamName == "" {
		return fmt.Errorf("%w: match and team names are required", ErrInvalidInput)
	}

	return s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		match, ok := doc.Matches[matchName]
		if !ok {
			return fmt.Errorf("%w: match %s", ErrNotFound, matchName)
		}
		if _, ok := match.Teams[teamName]; ok {
			return fmt.Errorf("%w: team %s in match %s", ErrAlreadyExists, teamName, matchName)
		}
		match.Teams[teamName] = []string{}
		doc.Matches[matchName] = match
		return nil
	})
}

func (s *CatalogService) RemoveTeam(ctx context.Context, realmName string, actor Actor, matchName, teamName string) error {
	ctx, span := startUsecaseSpan(ctx, "CatalogService.RemoveTeam")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	matchName = strings.TrimSpace(matchName)
	teamName = strings.TrimSpace(teamName)
	if matchName == "" || teamName == "" {
		return fmt.Errorf("%w: match and team names are required", ErrInvalidInput)
	}

	return s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		match, ok := doc.Matches[matchName]
		if !ok {
			return fmt.Errorf("%w: match %s", ErrNotFound, matchName)
		}
		if match.RemoveTeam(teamName) == nil {
			return fmt.Errorf("%w: team %s in match %s", ErrNotFound, teamName, matchName)
		}
		doc.Matches[matchName] = match
		return nil
	})
}

// ResetTeamRoster empties one team's roster and drops its players from the
// match's selection pool, keeping the team registered. Returns the removed
// player names.
func (s *CatalogService) ResetTeamRoster(ctx context.Context, realmName string, actor Actor, matchName, teamName string) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "CatalogService.ResetTeamRoster")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	matchName = strings.TrimSpace(matchName)
	teamName = strings.TrimSpace(teamName)
	if matchName == "" || teamName == "" {
		return nil, fmt.Errorf("%w: match and team names are required", ErrInvalidInput)
	}

	var removed []string
	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		match, ok := doc.Matches[matchName]
		if !ok {
			return fmt.Errorf("%w: match %s", ErrNotFound, matchName)
		}
		roster, ok := match.ResetTeam(teamName)
		if !ok {
			return fmt.Errorf("%w: team %s in match %s", ErrNotFound, teamName, matchName)
		}
		doc.Matches[matchName] = match
		removed = roster
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "team roster reset",
		"realm", realmName,
		"match", matchName,
		"team", teamName,
		"removed_players", len(removed),
	)
	return removed, nil
}

// AddPlayers appends names to both the team roster and the match's flattened
// selection pool. Names are not deduplicated against the pool; the source
// system allowed repeats and downstream views consume the list as-is.
func (s *CatalogService) AddPlayers(ctx context.Context, realmName string, actor Actor, matchName, teamName string, players []string) error {
	ctx, span := startUsecaseSpan(ctx, "CatalogService.AddPlayers")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	matchName = strings.TrimSpace(matchName)
	teamName = strings.TrimSpace(teamName)
	if matchName == "" || teamName == "" {
		return fmt.Errorf("%w: match and team names are required", ErrInvalidInput)
	}

	cleaned := make([]string, 0, len(players))
	for _, name := range players {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cleaned = append(cleaned, name)
	}
	if len(cleaned) == 0 {
		return fmt.Errorf("%w: at least one player name is required", ErrInvalidInput)
	}

	return s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		match, ok := doc.Matches[matchName]
		if !ok {
			return fmt.Errorf("%w: match %s", ErrNotFound, matchName)
		}
		roster, ok := match.Teams[teamName]
		if !ok {
			return fmt.Errorf("%w: team %s in match %s", ErrNotFound, teamName, matchName)
		}
		match.Teams[teamName] = append(roster, cleaned...)
		match.Players = append(match.Players, cleaned...)
		doc.Matches[matchName] = match
		return nil
	})
}

func (s *CatalogService) Lock(ctx context.Context, realmName string, actor Actor, matchName string) error {
	return s.setLock(ctx, realmName, actor, matchName, true)
}

func (s *CatalogService) Unlock(ctx context.Context, realmName string, actor Actor, matchName string) error {
	return s.setLock(ctx, realmName, actor, matchName, false)
}

func (s *CatalogService) setLock(ctx context.Context, realmName string, actor Actor, matchName string, locked bool) error {
	ctx, span := startUsecaseSpan(ctx, "CatalogService.setLock")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	matchName = strings.TrimSpace(matchName)
	if matchName == "" {
		return fmt.Errorf("%w: match name is required", ErrInvalidInput)
	}

	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		match, ok := doc.Matches[matchName]
		if !ok {
			return fmt.Errorf("%w: match %s", ErrNotFound, matchName)
		}
		match.Locked = locked
		doc.Matches[matchName] = match
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "match lock changed", "realm", realmName, "match", matchName, "locked", locked)
	return nil
}

// Schedule lists all matches sorted by name.
func (s *CatalogService) Schedule(ctx context.Context, realmName string) ([]MatchSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "CatalogService.Schedule")
	defer span.End()

	var summaries []MatchSummary
	err := s.realms.View(ctx, realmName, func(doc realm.Document) error {
		summaries = make([]MatchSummary, 0, len(doc.Matches))
		for name, match := range doc.Matches {
			teams := make([]string, 0, len(match.Teams))
			for team := range match.Teams {
				teams = append(teams, team)
			}
			sort.Strings(teams)
			summaries = append(summaries, MatchSummary{
				Name:   name,
				Teams:  teams,
				Locked: match.Locked,
			})
		}
		sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// Match returns one match's full definition.
func (s *CatalogService) Match(ctx context.Context, realmName, matchName string) (catalog.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "CatalogService.Match")
	defer span.End()

	matchName = strings.TrimSpace(matchName)
	if matchName == "" {
		return catalog.Match{}, fmt.Errorf("%w: match name is required", ErrInvalidInput)
	}

	var found catalog.Match
	err := s.realms.View(ctx, realmName, func(doc realm.Document) error {
		match, ok := doc.Matches[matchName]
		if !ok {
			return fmt.Errorf("%w: match %s", ErrNotFound, matchName)
		}
		found = match
		return nil
	})
	if err != nil {
		return catalog.Match{}, err
	}
	return found, nil
}
