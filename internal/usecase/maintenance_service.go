package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

// OverviewEntry is one user/match squad row in the admin overview.
type OverviewEntry struct {
	UserID      string
	Match       string
	Players     []string
	Captain     string
	ViceCaptain string
	BetAmount   int
}

// OverviewPage is one page of the admin overview. Pages keep replies under
// chat message length limits.
type OverviewPage struct {
	Entries    []OverviewEntry
	Page       int
	TotalPages int
}

// overviewPageSize bounds how many squad rows fit one chat message.
const overviewPageSize = 5

// MaintenanceService covers the admin housekeeping surface: backup and
// restore of the whole realm document, bulk clears, spreadsheet export,
// announcements and storage checks.
type MaintenanceService struct {
	realms   *RealmManager
	notifier Notifier
	logger   *logging.Logger
}

func NewMaintenanceService(realms *RealmManager, notifier Notifier, logger *logging.Logger) *MaintenanceService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MaintenanceService{
		realms:   realms,
		notifier: notifier,
		logger:   logger,
	}
}

// Backup exports the full realm document as indented JSON.
func (s *MaintenanceService) Backup(ctx context.Context, realmName string, actor Actor) ([]byte, error) {
	ctx, span := startUsecaseSpan(ctx, "MaintenanceService.Backup")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	doc, _, err := s.realms.Snapshot(ctx, realmName)
	if err != nil {
		return nil, err
	}

	payload, err := sonic.ConfigDefault.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}

	s.logger.InfoContext(ctx, "backup exported", "realm", realmName, "admin", actor.ID, "bytes", len(payload))
	return payload, nil
}

// Restore replaces the realm document with the uploaded backup. The payload
// must carry every top-level collection; anything less is rejected before
// any state changes.
func (s *MaintenanceService) Restore(ctx context.Context, realmName string, actor Actor, payload []byte) error {
	ctx, span := startUsecaseSpan(ctx, "MaintenanceService.Restore")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}

	var raw map[string]any
	if err := sonic.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("%w: not a JSON object", ErrInvalidFormat)
	}
	for _, key := range realm.RequiredKeys {
		if _, ok := raw[key]; !ok {
			return fmt.Errorf("%w: missing key %q", ErrInvalidFormat, key)
		}
	}

	var restored realm.Document
	if err := sonic.Unmarshal(payload, &restored); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	restored.Normalize()

	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		*doc = restored
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "backup restored", "realm", realmName, "admin", actor.ID)
	return nil
}

// Clear resets the realm to an empty document.
func (s *MaintenanceService) Clear(ctx context.Context, realmName string, actor Actor) error {
	ctx, span := startUsecaseSpan(ctx, "MaintenanceService.Clear")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		*doc = realm.NewDocument()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WarnContext(ctx, "realm cleared", "realm", realmName, "admin", actor.ID)
	return nil
}

// ClearPredictions drops all questions, answers and correct answers,
// leaving match and squad data untouched.
func (s *MaintenanceService) ClearPredictions(ctx context.Context, realmName string, actor Actor) error {
	ctx, span := startUsecaseSpan(ctx, "MaintenanceService.ClearPredictions")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := s.realms.Update(ctx, realmName, func(doc *realm.Document) error {
		doc.ClearPredictions()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WarnContext(ctx, "prediction data cleared", "realm", realmName, "admin", actor.ID)
	return nil
}

// Overview lists users' squads per match, with any verified bet, for admin
// verification. Output is paginated; page is clamped into the valid range,
// so 0 reads as the first page.
func (s *MaintenanceService) Overview(ctx context.Context, realmName string, actor Actor, page int) (OverviewPage, error) {
	ctx, span := startUsecaseSpan(ctx, "MaintenanceService.Overview")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return OverviewPage{}, err
	}

	var entries []OverviewEntry
	err := s.realms.View(ctx, realmName, func(doc realm.Document) error {
		entries = overviewEntries(doc)
		return nil
	})
	if err != nil {
		return OverviewPage{}, err
	}

	totalPages := (len(entries) + overviewPageSize - 1) / overviewPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * overviewPageSize
	end := start + overviewPageSize
	if start > len(entries) {
		start = len(entries)
	}
	if end > len(entries) {
		end = len(entries)
	}

	return OverviewPage{
		Entries:    entries[start:end],
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// Announce relays an admin broadcast to one chat through the gateway.
func (s *MaintenanceService) Announce(ctx context.Context, actor Actor, chatID, message string) error {
	ctx, span := startUsecaseSpan(ctx, "MaintenanceService.Announce")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	chatID = strings.TrimSpace(chatID)
	message = strings.TrimSpace(message)
	if chatID == "" || message == "" {
		return fmt.Errorf("%w: chat id and message are required", ErrInvalidInput)
	}

	if err := s.notifier.NotifyUser(ctx, chatID, message); err != nil {
		return fmt.Errorf("deliver announcement to %s: %w", chatID, err)
	}

	s.logger.InfoContext(ctx, "announcement sent", "chat_id", chatID, "admin", actor.ID, "chars", len(message))
	return nil
}

// ExportCSV renders the admin overview as a spreadsheet.
func (s *MaintenanceService) ExportCSV(ctx context.Context, realmName string, actor Actor) ([]byte, error) {
	ctx, span := startUsecaseSpan(ctx, "MaintenanceService.ExportCSV")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var entries []OverviewEntry
	err := s.realms.View(ctx, realmName, func(doc realm.Document) error {
		entries = overviewEntries(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writer := csv.NewWriter(buf)
	if err := writer.Write([]string{"user", "match", "captain", "vice_captain", "players", "verified_bet"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range entries {
		record := []string{
			entry.UserID,
			entry.Match,
			entry.Captain,
			entry.ViceCaptain,
			strings.Join(entry.Players, "; "),
			strconv.Itoa(entry.BetAmount),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	out := append([]byte(nil), buf.Bytes()...)
	s.logger.InfoContext(ctx, "spreadsheet exported", "realm", realmName, "admin", actor.ID, "rows", len(entries))
	return out, nil
}

// CheckStorage reports the primary store's capacity reading.
func (s *MaintenanceService) CheckStorage(ctx context.Context, realmName string, actor Actor) (realm.StorageStats, error) {
	ctx, span := startUsecaseSpan(ctx, "MaintenanceService.CheckStorage")
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return realm.StorageStats{}, err
	}
	return s.realms.Stats(ctx, realmName)
}

func overviewEntries(doc realm.Document) []OverviewEntry {
	users := make([]string, 0, len(doc.UserTeams))
	for user := range doc.UserTeams {
		users = append(users, user)
	}
	sort.Strings(users)

	var entries []OverviewEntry
	for _, user := range users {
		matches := make([]string, 0, len(doc.UserTeams[user]))
		for match := range doc.UserTeams[user] {
			matches = append(matches, match)
		}
		sort.Strings(matches)

		for _, match := range matches {
			sq := doc.SquadOf(user, match)
			entries = append(entries, OverviewEntry{
				UserID:      user,
				Match:       match,
				Players:     sq.Players,
				Captain:     sq.Captain,
				ViceCaptain: sq.ViceCaptain,
				BetAmount:   doc.Amounts[user][match],
			})
		}
	}
	return entries
}
