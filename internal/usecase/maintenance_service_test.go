package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

func newMaintenanceFixture(t *testing.T) (*RealmManager, *MaintenanceService, *fakeNotifier) {
	t.Helper()

	manager := newTestManager()
	seedMatch(t, manager, "Final", "India", "Kohli", "Bumrah")
	buildSquad(t, manager, "user-1", "Final", "Kohli", "Bumrah", []string{"Kohli", "Bumrah"})
	notifier := newFakeNotifier()
	return manager, NewMaintenanceService(manager, notifier, logging.NewNop()), notifier
}

func TestMaintenanceService_AdminGate(t *testing.T) {
	_, svc, _ := newMaintenanceFixture(t)
	user := Actor{ID: "user-1"}

	if _, err := svc.Backup(t.Context(), testRealm, user); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for backup, got %v", err)
	}
	if err := svc.Restore(t.Context(), testRealm, user, []byte("{}")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for restore, got %v", err)
	}
	if err := svc.Clear(t.Context(), testRealm, user); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for clear, got %v", err)
	}
	if _, err := svc.ExportCSV(t.Context(), testRealm, user); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for export, got %v", err)
	}
	if err := svc.Announce(t.Context(), user, "group-1", "hello"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for announce, got %v", err)
	}
}

func TestMaintenanceService_BackupRestoreRoundTrip(t *testing.T) {
	manager, svc, _ := newMaintenanceFixture(t)

	payload, err := svc.Backup(t.Context(), testRealm, adminActor)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}

	if err := svc.Clear(t.Context(), testRealm, adminActor); err != nil {
		t.Fatalf("clear: %v", err)
	}
	doc, _, err := manager.Snapshot(t.Context(), testRealm)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(doc.Matches) != 0 || len(doc.UserTeams) != 0 {
		t.Fatalf("expected empty realm after clear, got %d matches", len(doc.Matches))
	}

	if err := svc.Restore(t.Context(), testRealm, adminActor, payload); err != nil {
		t.Fatalf("restore: %v", err)
	}
	doc, _, err = manager.Snapshot(t.Context(), testRealm)
	if err != nil {
		t.Fatalf("snapshot after restore: %v", err)
	}
	if _, ok := doc.Matches["Final"]; !ok {
		t.Fatal("expected Final back after restore")
	}
	sq := doc.SquadOf("user-1", "Final")
	if sq.Captain != "Kohli" || sq.ViceCaptain != "Bumrah" {
		t.Fatalf("expected squad roles restored, got %+v", sq)
	}
}

func TestMaintenanceService_RestoreRejectsPartialPayload(t *testing.T) {
	manager, svc, _ := newMaintenanceFixture(t)

	err := svc.Restore(t.Context(), testRealm, adminActor, []byte(`{"matches": {}}`))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing key") {
		t.Fatalf("expected the missing key to be named, got %v", err)
	}

	if err := svc.Restore(t.Context(), testRealm, adminActor, []byte("not json")); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat for garbage, got %v", err)
	}

	// A rejected restore leaves the realm untouched.
	doc, _, err := manager.Snapshot(t.Context(), testRealm)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, ok := doc.Matches["Final"]; !ok {
		t.Fatal("expected existing data to survive a rejected restore")
	}
}

func TestMaintenanceService_ClearPredictionsKeepsMatchData(t *testing.T) {
	manager, svc, _ := newMaintenanceFixture(t)

	predictions := NewPredictionService(manager, logging.NewNop())
	id, err := predictions.AddQuestion(t.Context(), testRealm, adminActor, "Will it rain?", "Yes", "No")
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if err := predictions.Answer(t.Context(), testRealm, Actor{ID: "user-1"}, id, "Yes"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	if err := svc.ClearPredictions(t.Context(), testRealm, adminActor); err != nil {
		t.Fatalf("clear predictions: %v", err)
	}

	doc, _, err := manager.Snapshot(t.Context(), testRealm)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(doc.Questions) != 0 || len(doc.UserAnswers) != 0 || len(doc.CorrectAnswers) != 0 {
		t.Fatal("expected all prediction data cleared")
	}
	if _, ok := doc.Matches["Final"]; !ok {
		t.Fatal("expected match data untouched")
	}
}

func TestMaintenanceService_OverviewAndExport(t *testing.T) {
	manager, svc, _ := newMaintenanceFixture(t)

	// A verified bet shows up in the overview row.
	bets := NewBetService(manager, newFakeNotifier(), nil, logging.NewNop())
	if _, err := bets.RequestBet(t.Context(), testRealm, Actor{ID: "user-1"}, "Final", "Chotu", 500); err != nil {
		t.Fatalf("request bet: %v", err)
	}
	if err := bets.VerifyBet(t.Context(), testRealm, adminActor, "user-1", "Final", 500); err != nil {
		t.Fatalf("verify bet: %v", err)
	}

	page, err := svc.Overview(t.Context(), testRealm, adminActor, 1)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(page.Entries) != 1 || page.Page != 1 || page.TotalPages != 1 {
		t.Fatalf("expected one overview row on one page, got %+v", page)
	}
	if page.Entries[0].UserID != "user-1" || page.Entries[0].BetAmount != 500 {
		t.Fatalf("unexpected overview row: %+v", page.Entries[0])
	}

	out, err := svc.ExportCSV(t.Context(), testRealm, adminActor)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %q", string(out))
	}
	if lines[0] != "user,match,captain,vice_captain,players,verified_bet" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Kohli; Bumrah") || !strings.HasSuffix(lines[1], "500") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestMaintenanceService_OverviewPagination(t *testing.T) {
	manager, svc, _ := newMaintenanceFixture(t)

	// Seven squads across users spill onto a second page of five.
	for _, user := range []string{"user-2", "user-3", "user-4", "user-5", "user-6", "user-7"} {
		buildSquad(t, manager, user, "Final", "Kohli", "Bumrah", []string{"Kohli", "Bumrah"})
	}

	page, err := svc.Overview(t.Context(), testRealm, adminActor, 1)
	if err != nil {
		t.Fatalf("overview page 1: %v", err)
	}
	if len(page.Entries) != 5 || page.Page != 1 || page.TotalPages != 2 {
		t.Fatalf("unexpected first page: %d entries, page %d/%d", len(page.Entries), page.Page, page.TotalPages)
	}
	if page.Entries[0].UserID != "user-1" {
		t.Fatalf("expected users in sorted order, got %q first", page.Entries[0].UserID)
	}

	page, err = svc.Overview(t.Context(), testRealm, adminActor, 2)
	if err != nil {
		t.Fatalf("overview page 2: %v", err)
	}
	if len(page.Entries) != 2 || page.Entries[0].UserID != "user-6" {
		t.Fatalf("unexpected second page: %+v", page)
	}

	// Out-of-range pages clamp instead of erroring.
	page, err = svc.Overview(t.Context(), testRealm, adminActor, 99)
	if err != nil {
		t.Fatalf("overview page 99: %v", err)
	}
	if page.Page != 2 {
		t.Fatalf("expected clamp to last page, got %d", page.Page)
	}
	page, err = svc.Overview(t.Context(), testRealm, adminActor, 0)
	if err != nil {
		t.Fatalf("overview page 0: %v", err)
	}
	if page.Page != 1 {
		t.Fatalf("expected clamp to first page, got %d", page.Page)
	}
}

func TestMaintenanceService_Announce(t *testing.T) {
	_, svc, notifier := newMaintenanceFixture(t)

	if err := svc.Announce(t.Context(), adminActor, "group-42", "Finals start at 7pm."); err != nil {
		t.Fatalf("announce: %v", err)
	}
	if got := notifier.notices["group-42"]; len(got) != 1 || got[0] != "Finals start at 7pm." {
		t.Fatalf("unexpected delivery: %+v", notifier.notices)
	}

	if err := svc.Announce(t.Context(), adminActor, " ", "hello"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank chat id, got %v", err)
	}
	if err := svc.Announce(t.Context(), adminActor, "group-42", " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank message, got %v", err)
	}

	notifier.notifyErr = errors.New("gateway down")
	if err := svc.Announce(t.Context(), adminActor, "group-42", "again"); err == nil {
		t.Fatal("expected a delivery failure to surface")
	}
}

func TestMaintenanceService_CheckStorage(t *testing.T) {
	_, svc, _ := newMaintenanceFixture(t)

	stats, err := svc.CheckStorage(t.Context(), testRealm, adminActor)
	if err != nil {
		t.Fatalf("check storage: %v", err)
	}
	if stats.UsedBytes == 0 {
		t.Fatal("expected a non-empty realm to report used bytes")
	}
}
