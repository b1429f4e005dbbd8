package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
	"github.com/trainwr/fantasy-cricket/internal/platform/cache"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

const (
	captainMultiplier     = 2.0
	viceCaptainMultiplier = 1.5
	predictionRankingSize = 10
)

// SquadRank is one leaderboard row for the points-based ranking.
type SquadRank struct {
	UserID string
	Score  float64
}

// PredictionRank is one leaderboard row for the correct-answer tally.
type PredictionRank struct {
	UserID  string
	Correct int
}

// ProfileSquad is one match entry in a user's profile.
type ProfileSquad struct {
	Match       string
	Players     []string
	Captain     string
	ViceCaptain string
}

// ProfileView aggregates everything one user has in the realm.
type ProfileView struct {
	Squads  []ProfileSquad
	Bets    map[string]int
	Answers map[string]string
}

// RankingService computes both leaderboards as pure functions over the
// current document. Results are cached per document revision, so a cache
// hit is guaranteed to reflect the latest committed state.
type RankingService struct {
	realms *RealmManager
	cache  *cache.Store
	logger *logging.Logger
}

func NewRankingService(realms *RealmManager, cacheStore *cache.Store, logger *logging.Logger) *RankingService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RankingService{
		realms: realms,
		cache:  cacheStore,
		logger: logger,
	}
}

// AssignPoints sets a player's point total. There is no history; repeat
// assignments overwrite.
func (s *RankingService) AssignPoints(ctx context.Context, realmName string, actor Actor, player string, points int) error {
	ctx, span := startUsecaseSpan(ctx, "RankingService.AssignPoints")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	player = strings.TrimSpace(player)
	if player == "" {
		return fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}

	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		doc.Points[player] = points
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "player points assigned",
		"realm", realmName,
		"player", player,
		"points", points,
		"admin", actor.ID,
	)
	return nil
}

// SquadRanking scores every user across all their squads: captain picks
// count double, vice-captain picks one and a half times, everything else
// once. Players without assigned points contribute nothing.
func (s *RankingService) SquadRanking(ctx context.Context, realmName string) ([]SquadRank, error) {
	ctx, span := startUsecaseSpan(ctx, "RankingService.SquadRanking")
	defer span.End()

	doc, revision, err := s.realms.Snapshot(ctx, realmName)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("ranking:squad:%s:%d", realmName, revision)
	value, err := s.cache.GetOrLoad(ctx, key, func(context.Context) (any, error) {
		return squadRanking(doc), nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]SquadRank), nil
}

// PredictionRanking tallies case-insensitive matches against recorded
// correct answers and keeps the top ten.
func (s *RankingService) PredictionRanking(ctx context.Context, realmName string) ([]PredictionRank, error) {
	ctx, span := startUsecaseSpan(ctx, "RankingService.PredictionRanking")
	defer span.End()

	doc, revision, err := s.realms.Snapshot(ctx, realmName)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("ranking:prediction:%s:%d", realmName, revision)
	value, err := s.cache.GetOrLoad(ctx, key, func(context.Context) (any, error) {
		return predictionRanking(doc), nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]PredictionRank), nil
}

// Profile renders one user's squads, verified bets and answers.
func (s *RankingService) Profile(ctx context.Context, realmName, userID string) (ProfileView, error) {
	ctx, span := startUsecaseSpan(ctx, "RankingService.Profile")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ProfileView{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	var view ProfileView
	err := s.realms.View(ctx, realmName, func(doc realm.Document) error {
		matches := make([]string, 0, len(doc.UserTeams[userID]))
		for match := range doc.UserTeams[userID] {
			matches = append(matches, match)
		}
		sort.Strings(matches)

		view.Squads = make([]ProfileSquad, 0, len(matches))
		for _, match := range matches {
			sq := doc.SquadOf(userID, match)
			view.Squads = append(view.Squads, ProfileSquad{
				Match:       match,
				Players:     sq.Players,
				Captain:     sq.Captain,
				ViceCaptain: sq.ViceCaptain,
			})
		}

		view.Bets = make(map[string]int, len(doc.Amounts[userID]))
		for match, amount := range doc.Amounts[userID] {
			view.Bets[match] = amount
		}

		view.Answers = make(map[string]string, len(doc.UserAnswers[userID]))
		for id, answer := range doc.UserAnswers[userID] {
			view.Answers[id] = answer
		}
		return nil
	})
	if err != nil {
		return ProfileView{}, err
	}
	return view, nil
}

func squadRanking(doc realm.Document) []SquadRank {
	users := make([]string, 0, len(doc.UserTeams))
	for user := range doc.UserTeams {
		users = append(users, user)
	}
	sort.Strings(users)

	ranks := make([]SquadRank, 0, len(users))
	for _, user := range users {
		total := 0.0
		for match := range doc.UserTeams[user] {
			sq := doc.SquadOf(user, match)
			for _, player := range sq.Players {
				points := float64(doc.Points[player])
				switch player {
				case sq.Captain:
					total += points * captainMultiplier
				case sq.ViceCaptain:
					total += points * viceCaptainMultiplier
				default:
					total += points
				}
			}
		}
		ranks = append(ranks, SquadRank{UserID: user, Score: total})
	}

	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Score > ranks[j].Score })
	return ranks
}

func predictionRanking(doc realm.Document) []PredictionRank {
	users := make([]string, 0, len(doc.UserAnswers))
	for user := range doc.UserAnswers {
		users = append(users, user)
	}
	sort.Strings(users)

	ranks := make([]PredictionRank, 0, len(users))
	for _, user := range users {
		correct := 0
		for id, answer := range doc.UserAnswers[user] {
			expected, ok := doc.CorrectAnswers[id]
			if !ok {
				continue
			}
			if strings.EqualFold(answer, expected) {
				correct++
			}
		}
		ranks = append(ranks, PredictionRank{UserID: user, Correct: correct})
	}

	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Correct > ranks[j].Correct })
	if len(ranks) > predictionRankingSize {
		ranks = ranks[:predictionRankingSize]
	}
	return ranks
}
