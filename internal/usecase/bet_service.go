package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/trainwr/fantasy-cricket/internal/domain/bet"
	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
	"github.com/trainwr/fantasy-cricket/internal/domain/squad"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

// Notifier delivers out-of-band messages through the chat gateway. Delivery
// failures never roll back committed state; callers log and move on.
type Notifier interface {
	PromptVerification(ctx context.Context, req bet.VerificationRequest) error
	NotifyUser(ctx context.Context, userID, message string) error
}

// BetService runs the two-phase wager handshake: a user requests, an
// administrator verifies. The pending record lives only between the two.
type BetService struct {
	realms   *RealmManager
	notifier Notifier
	stakes   map[bet.Room]int
	logger   *logging.Logger
}

func NewBetService(realms *RealmManager, notifier Notifier, stakes map[bet.Room]int, logger *logging.Logger) *BetService {
	if logger == nil {
		logger = logging.Default()
	}
	if len(stakes) == 0 {
		stakes = bet.DefaultStakes()
	}

	return &BetService{
		realms:   realms,
		notifier: notifier,
		stakes:   stakes,
		logger:   logger,
	}
}

// Rooms returns the configured wager tiers.
func (s *BetService) Rooms() map[bet.Room]int {
	rooms := make(map[bet.Room]int, len(s.stakes))
	for room, stake := range s.stakes {
		rooms[room] = stake
	}
	return rooms
}

// RequestBet records a pending wager and prompts administrators to verify
// it. A new request for the same user and match replaces any earlier one.
// The prompt is sent after the pending record is durable; a delivery
// failure keeps the record and is reported in the returned flag.
func (s *BetService) RequestBet(ctx context.Context, realmName string, actor Actor, matchName string, room bet.Room, amount int) (prompted bool, err error) {
	ctx, span := startUsecaseSpan(ctx, "BetService.RequestBet")
	defer span.End()

	matchName = strings.TrimSpace(matchName)
	if strings.TrimSpace(actor.ID) == "" {
		return false, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if matchName == "" {
		return false, fmt.Errorf("%w: match name is required", ErrInvalidInput)
	}
	stake, ok := s.stakes[room]
	if !ok {
		return false, fmt.Errorf("%w: unknown room %s", ErrInvalidInput, room)
	}
	if amount != stake {
		return false, fmt.Errorf("%w: room %s stake is %d", ErrInvalidInput, room, stake)
	}

	err = s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		match, ok := doc.Matches[matchName]
		if !ok {
			return fmt.Errorf("%w: match %s", ErrNotFound, matchName)
		}
		if match.Locked {
			return fmt.Errorf("%w: %s", ErrMatchLocked, matchName)
		}
		if doc.SquadOf(actor.ID, matchName).State() < squad.StateHasPlayers {
			return fmt.Errorf("%w: pick a squad for %s before betting", ErrInsufficientPlayers, matchName)
		}

		if doc.PendingBets[actor.ID] == nil {
			doc.PendingBets[actor.ID] = make(map[string]bet.Pending)
		}
		doc.PendingBets[actor.ID][matchName] = bet.Pending{Room: room, Amount: amount}
		return nil
	})
	if err != nil {
		return false, err
	}

	req := bet.VerificationRequest{
		UserID:    actor.ID,
		Username:  actor.Username,
		MatchName: matchName,
		Room:      room,
		Amount:    amount,
	}
	if err := s.notifier.PromptVerification(ctx, req); err != nil {
		s.logger.WarnContext(ctx, "verification prompt not delivered",
			"realm", realmName,
			"user_id", actor.ID,
			"match", matchName,
			"error", err,
		)
		return false, nil
	}

	s.logger.InfoContext(ctx, "bet requested",
		"realm", realmName,
		"user_id", actor.ID,
		"match", matchName,
		"room", string(room),
		"amount", amount,
	)
	return true, nil
}

// VerifyBet settles a pending wager. The amount must match the pending
// record; stale or already-verified requests fail with ErrBetNotFound
// because verification removes the record.
func (s *BetService) VerifyBet(ctx context.Context, realmName string, actor Actor, userID, matchName string, amount int) error {
	ctx, span := startUsecaseSpan(ctx, "BetService.VerifyBet")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	matchName = strings.TrimSpace(matchName)
	if userID == "" || matchName == "" {
		return fmt.Errorf("%w: user id and match name are required", ErrInvalidInput)
	}

	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		pending, ok := doc.PendingBets[userID][matchName]
		if !ok || pending.Amount != amount {
			return fmt.Errorf("%w: no pending bet of %d for user %s on %s", ErrBetNotFound, amount, userID, matchName)
		}

		if doc.Amounts[userID] == nil {
			doc.Amounts[userID] = make(map[string]int)
		}
		doc.Amounts[userID][matchName] = amount

		delete(doc.PendingBets[userID], matchName)
		if len(doc.PendingBets[userID]) == 0 {
			delete(doc.PendingBets, userID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Your bet of %d on %s has been verified.", amount, matchName)
	if err := s.notifier.NotifyUser(ctx, userID, message); err != nil {
		s.logger.WarnContext(ctx, "verification notice not delivered",
			"realm", realmName,
			"user_id", userID,
			"match", matchName,
			"error", err,
		)
	}

	s.logger.InfoContext(ctx, "bet verified",
		"realm", realmName,
		"user_id", userID,
		"match", matchName,
		"amount", amount,
		"admin", actor.ID,
	)
	return nil
}

// PendingBets lists every pending wager in the realm, for the admin
// overview.
func (s *BetService) PendingBets(ctx context.Context, realmName string, actor Actor) (map[string]map[string]bet.Pending, error) {
	ctx, span := startUsecaseSpan(ctx, "BetService.PendingBets")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var out map[string]map[string]bet.Pending
	err := s.realms.View(ctx, realmName, func(doc realm.Document) error {
		out = doc.PendingBets
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
