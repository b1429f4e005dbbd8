package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/trainwr/fantasy-cricket/internal/domain/bet"
	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

type fakeNotifier struct {
	prompts   []bet.VerificationRequest
	notices   map[string][]string
	promptErr error
	notifyErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{notices: make(map[string][]string)}
}

func (f *fakeNotifier) PromptVerification(_ context.Context, req bet.VerificationRequest) error {
	if f.promptErr != nil {
		return f.promptErr
	}
	f.prompts = append(f.prompts, req)
	return nil
}

func (f *fakeNotifier) NotifyUser(_ context.Context, userID, message string) error {
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.notices[userID] = append(f.notices[userID], message)
	return nil
}

func newBetFixture(t *testing.T) (*RealmManager, *BetService, *fakeNotifier) {
	t.Helper()

	manager := newTestManager()
	seedMatch(t, manager, "Final", "India", "Kohli", "Bumrah")

	squads := NewSquadService(manager, logging.NewNop())
	if _, err := squads.SelectPlayer(t.Context(), testRealm, Actor{ID: "user-1"}, "Final", "Kohli"); err != nil {
		t.Fatalf("seed squad: %v", err)
	}

	notifier := newFakeNotifier()
	svc := NewBetService(manager, notifier, nil, logging.NewNop())
	return manager, svc, notifier
}

func TestBetService_HandshakeHappyPath(t *testing.T) {
	manager, svc, notifier := newBetFixture(t)
	user := Actor{ID: "user-1", Username: "sachin_fan"}

	prompted, err := svc.RequestBet(t.Context(), testRealm, user, "Final", bet.RoomChotu, 500)
	if err != nil {
		t.Fatalf("request bet: %v", err)
	}
	if !prompted {
		t.Fatal("expected the verification prompt to be delivered")
	}
	if len(notifier.prompts) != 1 || notifier.prompts[0].Amount != 500 {
		t.Fatalf("unexpected prompts: %+v", notifier.prompts)
	}

	if err := svc.VerifyBet(t.Context(), testRealm, adminActor, "user-1", "Final", 500); err != nil {
		t.Fatalf("verify bet: %v", err)
	}

	doc, _, err := manager.Snapshot(t.Context(), testRealm)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if doc.Amounts["user-1"]["Final"] != 500 {
		t.Fatalf("expected verified amount 500, got %v", doc.Amounts)
	}
	if len(doc.PendingBets) != 0 {
		t.Fatalf("expected pending record consumed, got %v", doc.PendingBets)
	}
	if len(notifier.notices["user-1"]) != 1 {
		t.Fatalf("expected one verification notice, got %v", notifier.notices)
	}
}

func TestBetService_RepeatRequestReplacesPending(t *testing.T) {
	manager, svc, _ := newBetFixture(t)
	user := Actor{ID: "user-1"}

	if _, err := svc.RequestBet(t.Context(), testRealm, user, "Final", bet.RoomChotu, 500); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := svc.RequestBet(t.Context(), testRealm, user, "Final", bet.RoomRocket, 2500); err != nil {
		t.Fatalf("second request: %v", err)
	}

	doc, _, err := manager.Snapshot(t.Context(), testRealm)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	pending := doc.PendingBets["user-1"]["Final"]
	if pending.Room != bet.RoomRocket || pending.Amount != 2500 {
		t.Fatalf("expected later request to win, got %+v", pending)
	}

	// The stale amount no longer verifies.
	if err := svc.VerifyBet(t.Context(), testRealm, adminActor, "user-1", "Final", 500); !errors.Is(err, ErrBetNotFound) {
		t.Fatalf("expected ErrBetNotFound for stale amount, got %v", err)
	}
}

func TestBetService_RequestValidation(t *testing.T) {
	_, svc, _ := newBetFixture(t)
	user := Actor{ID: "user-1"}

	if _, err := svc.RequestBet(t.Context(), testRealm, user, "Final", "Mystery", 500); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown room, got %v", err)
	}
	if _, err := svc.RequestBet(t.Context(), testRealm, user, "Final", bet.RoomChotu, 9999); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for wrong stake, got %v", err)
	}
	if _, err := svc.RequestBet(t.Context(), testRealm, user, "No Such Match", bet.RoomChotu, 500); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown match, got %v", err)
	}
}

func TestBetService_RequestNeedsSquadWithPlayers(t *testing.T) {
	manager := newTestManager()
	seedMatch(t, manager, "Final", "India", "Kohli")

	svc := NewBetService(manager, newFakeNotifier(), nil, logging.NewNop())
	_, err := svc.RequestBet(t.Context(), testRealm, Actor{ID: "user-2"}, "Final", bet.RoomChotu, 500)
	if !errors.Is(err, ErrInsufficientPlayers) {
		t.Fatalf("expected ErrInsufficientPlayers without a squad, got %v", err)
	}
}

func TestBetService_LockedMatchRejectsRequests(t *testing.T) {
	manager, svc, _ := newBetFixture(t)

	catalogSvc := NewCatalogService(manager, logging.NewNop())
	if err := catalogSvc.Lock(t.Context(), testRealm, adminActor, "Final"); err != nil {
		t.Fatalf("lock: %v", err)
	}

	_, err := svc.RequestBet(t.Context(), testRealm, Actor{ID: "user-1"}, "Final", bet.RoomChotu, 500)
	if !errors.Is(err, ErrMatchLocked) {
		t.Fatalf("expected ErrMatchLocked, got %v", err)
	}
}

func TestBetService_PromptFailureKeepsPending(t *testing.T) {
	manager, svc, notifier := newBetFixture(t)
	notifier.promptErr = errors.New("gateway down")

	prompted, err := svc.RequestBet(t.Context(), testRealm, Actor{ID: "user-1"}, "Final", bet.RoomChotu, 500)
	if err != nil {
		t.Fatalf("request bet: %v", err)
	}
	if prompted {
		t.Fatal("expected prompted=false when delivery fails")
	}

	doc, _, err := manager.Snapshot(t.Context(), testRealm)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, ok := doc.PendingBets["user-1"]["Final"]; !ok {
		t.Fatal("expected pending bet to survive a failed prompt")
	}
}

func TestBetService_VerifyRequiresAdmin(t *testing.T) {
	_, svc, _ := newBetFixture(t)

	err := svc.VerifyBet(t.Context(), testRealm, Actor{ID: "user-1"}, "user-1", "Final", 500)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBetService_VerifyTwiceFails(t *testing.T) {
	_, svc, _ := newBetFixture(t)
	user := Actor{ID: "user-1"}

	if _, err := svc.RequestBet(t.Context(), testRealm, user, "Final", bet.RoomChotu, 500); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := svc.VerifyBet(t.Context(), testRealm, adminActor, "user-1", "Final", 500); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if err := svc.VerifyBet(t.Context(), testRealm, adminActor, "user-1", "Final", 500); !errors.Is(err, ErrBetNotFound) {
		t.Fatalf("expected ErrBetNotFound on second verify, got %v", err)
	}
}
