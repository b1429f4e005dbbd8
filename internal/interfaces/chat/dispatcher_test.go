package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/trainwr/fantasy-cricket/internal/domain/bet"
	memorystore "github.com/trainwr/fantasy-cricket/internal/infrastructure/store/memory"
	"github.com/trainwr/fantasy-cricket/internal/platform/cache"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
	"github.com/trainwr/fantasy-cricket/internal/usecase"
)

const dispatchRealm = "default"

type noopNotifier struct{}

func (noopNotifier) PromptVerification(context.Context, bet.VerificationRequest) error { return nil }
func (noopNotifier) NotifyUser(context.Context, string, string) error                  { return nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *usecase.CatalogService) {
	t.Helper()

	logger := logging.NewNop()
	realms := usecase.NewRealmManager(memorystore.NewStore(), nil, nil, logger)
	catalog := usecase.NewCatalogService(realms, logger)

	d := NewDispatcher(
		catalog,
		usecase.NewSquadService(realms, logger),
		usecase.NewBetService(realms, noopNotifier{}, nil, logger),
		usecase.NewPredictionService(realms, logger),
		usecase.NewRankingService(realms, cache.NewStore(time.Minute), logger),
		usecase.NewMaintenanceService(realms, noopNotifier{}, logger),
		[]string{"admin-1"},
		logger,
	)
	return d, catalog
}

func seedFinal(t *testing.T, catalog *usecase.CatalogService, players ...string) {
	t.Helper()

	admin := usecase.Actor{ID: "admin-1", Admin: true}
	if err := catalog.CreateMatch(t.Context(), dispatchRealm, admin, "Final"); err != nil {
		t.Fatalf("create match: %v", err)
	}
	if err := catalog.AddTeam(t.Context(), dispatchRealm, admin, "Final", "India"); err != nil {
		t.Fatalf("add team: %v", err)
	}
	if err := catalog.AddPlayers(t.Context(), dispatchRealm, admin, "Final", "India", players); err != nil {
		t.Fatalf("add players: %v", err)
	}
}

func dispatch(t *testing.T, d *Dispatcher, userID string, action Action) (Reply, error) {
	t.Helper()
	return d.Dispatch(t.Context(), Request{
		UserID:    userID,
		RealmName: dispatchRealm,
		Action:    action,
	})
}

func TestDispatcher_HelpNeedsNoState(t *testing.T) {
	d, _ := newTestDispatcher(t)

	reply, err := dispatch(t, d, "user-1", ShowHelp{})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !strings.Contains(reply.Text, "/createteam") {
		t.Fatalf("expected command list, got %q", reply.Text)
	}
}

func TestDispatcher_AdminGate(t *testing.T) {
	d, _ := newTestDispatcher(t)

	reply, err := dispatch(t, d, "user-1", ShowAdminHelp{})
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if reply.Text != "You are not allowed to do that." {
		t.Fatalf("unexpected rejection text: %q", reply.Text)
	}

	if _, err := dispatch(t, d, "admin-1", ShowAdminHelp{}); err != nil {
		t.Fatalf("admin dispatch: %v", err)
	}
}

func TestDispatcher_AdminCommandsUseAllowList(t *testing.T) {
	d, _ := newTestDispatcher(t)

	if _, err := dispatch(t, d, "user-1", CreateMatch{Name: "Final"}); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for create, got %v", err)
	}

	reply, err := dispatch(t, d, "admin-1", CreateMatch{Name: "Final"})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if !strings.Contains(reply.Text, "Final") {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
}

func TestDispatcher_AnnounceRelaysThroughNotifier(t *testing.T) {
	d, _ := newTestDispatcher(t)

	if _, err := dispatch(t, d, "user-1", Announce{ChatID: "group-42", Message: "hello"}); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin announce, got %v", err)
	}

	reply, err := dispatch(t, d, "admin-1", Announce{ChatID: "group-42", Message: "Finals start at 7pm."})
	if err != nil {
		t.Fatalf("announce: %v", err)
	}
	if reply.Text != "Announcement sent to group-42." {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
}

func TestOverviewKeyboardClampsAtBothEnds(t *testing.T) {
	if kb := overviewKeyboard(usecase.OverviewPage{Page: 1, TotalPages: 1}); kb != nil {
		t.Fatalf("expected no nav row for a single page, got %+v", kb)
	}

	kb := overviewKeyboard(usecase.OverviewPage{Page: 2, TotalPages: 3})
	if len(kb) != 1 || len(kb[0]) != 2 {
		t.Fatalf("expected one nav row with two buttons, got %+v", kb)
	}
	if kb[0][0].Data != "team::1" || kb[0][1].Data != "team::3" {
		t.Fatalf("unexpected nav data: %+v", kb[0])
	}

	first := overviewKeyboard(usecase.OverviewPage{Page: 1, TotalPages: 2})
	if len(first) != 1 || len(first[0]) != 1 || first[0][0].Data != "team::2" {
		t.Fatalf("expected only a next button on the first page, got %+v", first)
	}
}

func TestDispatcher_SquadFlowRendersKeyboard(t *testing.T) {
	d, catalog := newTestDispatcher(t)
	seedFinal(t, catalog, "Kohli", "Bumrah")

	reply, err := dispatch(t, d, "user-1", SelectPlayer{Match: "Final", Player: "Kohli"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !strings.Contains(reply.Text, "Kohli") {
		t.Fatalf("expected squad text to list Kohli, got %q", reply.Text)
	}

	// The keyboard offers the unselected player and a drop row for Kohli.
	var labels []string
	for _, row := range reply.Keyboard {
		for _, button := range row {
			labels = append(labels, button.Label)
		}
	}
	joined := strings.Join(labels, "|")
	if !strings.Contains(joined, "Bumrah") || !strings.Contains(joined, "❌ Kohli") {
		t.Fatalf("unexpected keyboard labels: %v", labels)
	}
}

func TestDispatcher_TypedFailuresRenderAsText(t *testing.T) {
	d, catalog := newTestDispatcher(t)
	seedFinal(t, catalog, "Kohli", "Bumrah")

	admin := usecase.Actor{ID: "admin-1", Admin: true}
	if err := catalog.Lock(t.Context(), dispatchRealm, admin, "Final"); err != nil {
		t.Fatalf("lock: %v", err)
	}

	reply, err := dispatch(t, d, "user-1", SelectPlayer{Match: "Final", Player: "Kohli"})
	if !errors.Is(err, usecase.ErrMatchLocked) {
		t.Fatalf("expected ErrMatchLocked, got %v", err)
	}
	if reply.Text != "This match is locked." || !reply.Alert {
		t.Fatalf("unexpected rejection reply: %+v", reply)
	}
}

func TestDispatcher_MissingUserIDRejected(t *testing.T) {
	d, _ := newTestDispatcher(t)

	reply, err := dispatch(t, d, "", ShowHelp{})
	if !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if reply.Text == "" {
		t.Fatal("expected a rendered rejection")
	}
}

func TestDispatcher_RateLimit(t *testing.T) {
	d, _ := newTestDispatcher(t)

	for i := 0; i < rateLimitBudget; i++ {
		if _, err := dispatch(t, d, "user-1", ShowHelp{}); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}

	reply, err := dispatch(t, d, "user-1", ShowHelp{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if !reply.Alert || reply.Text == "" {
		t.Fatalf("expected an alert reply, got %+v", reply)
	}

	// Other users are unaffected.
	if _, err := dispatch(t, d, "user-2", ShowHelp{}); err != nil {
		t.Fatalf("unrelated user: %v", err)
	}
}

func TestDispatcher_BetRequestRendersConfirmation(t *testing.T) {
	d, catalog := newTestDispatcher(t)
	seedFinal(t, catalog, "Kohli", "Bumrah")

	if _, err := dispatch(t, d, "user-1", SelectPlayer{Match: "Final", Player: "Kohli"}); err != nil {
		t.Fatalf("select: %v", err)
	}

	reply, err := dispatch(t, d, "user-1", RequestBet{Match: "Final", Room: "Chotu", Amount: 500})
	if err != nil {
		t.Fatalf("request bet: %v", err)
	}
	if !strings.Contains(reply.Text, "waiting for admin verification") {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
}

func TestDispatcher_ExportAttachesDocument(t *testing.T) {
	d, catalog := newTestDispatcher(t)
	seedFinal(t, catalog, "Kohli")

	if _, err := dispatch(t, d, "user-1", SelectPlayer{Match: "Final", Player: "Kohli"}); err != nil {
		t.Fatalf("select: %v", err)
	}

	reply, err := dispatch(t, d, "admin-1", ExportSheet{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if reply.Document == nil || reply.Document.Name != "squads.csv" {
		t.Fatalf("expected a csv attachment, got %+v", reply.Document)
	}
	if !strings.Contains(string(reply.Document.Data), "user-1") {
		t.Fatalf("expected the squad row in the export, got %q", string(reply.Document.Data))
	}
}
