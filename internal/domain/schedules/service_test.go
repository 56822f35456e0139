package schedules

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pill-tracker/internal/domain/users"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Schedule

	// beforeCAS simula una escritura concurrente entre lectura y escritura.
	beforeCAS func(id string)
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Schedule{}}
}

func (r *testRepo) Create(ctx context.Context, s Schedule) error {
	r.byID[s.ID] = s
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Schedule, error) {
	s, ok := r.byID[id]
	if !ok {
		return Schedule{}, ErrNotFound
	}
	return s, nil
}

func (r *testRepo) ListByUsername(ctx context.Context, username string) ([]Schedule, error) {
	out := make([]Schedule, 0)
	for _, s := range r.byID {
		if s.Username == username {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *testRepo) UpdateProgress(ctx context.Context, id string, expected, next float64, at time.Time) error {
	if r.beforeCAS != nil {
		r.beforeCAS(id)
	}
	s, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if s.Progress != expected {
		return ErrConflict
	}
	s.Progress = next
	s.UpdatedAt = at
	r.byID[id] = s
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) DeleteByUsername(ctx context.Context, username string) (int, error) {
	n := 0
	for id, s := range r.byID {
		if s.Username == username {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

// testUsers: username -> uid. Resuelve sin distinguir mayúsculas, como users.Service.
type testUsers map[string]string

func (u testUsers) Resolve(ctx context.Context, username, userID string) (users.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	uid, ok := u[username]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	if uid != userID {
		return users.User{}, users.ErrForbidden
	}
	return users.User{ID: uid, Username: username}, nil
}

func newTestService(now time.Time) (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, testUsers{"ana": "uid-ana", "bob": "uid-bob"}).
		WithClock(func() time.Time { return now })
	return svc, repo
}

func validInput() CreateInput {
	return CreateInput{
		Title:     "Antibiotic",
		Receptor:  "Ana",
		PillName:  "Amoxicillin",
		Dosage:    "500mg",
		StartTime: "08:00",
		StartDate: "2024-06-01",
		EndDate:   "2024-06-11",
		Note:      "after meals",
	}
}

// -------------------------
// Tests
// -------------------------

func TestCreate_StartsAtZeroAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(day0)

	sc, err := svc.Create(ctx, "uid-ana", "ana", validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sc.ID == "" || sc.Progress != 0 || sc.Username != "ana" {
		t.Fatalf("unexpected schedule: %#v", sc)
	}

	items, err := svc.List(ctx, "uid-ana", "ana")
	if err != nil || len(items) != 1 {
		t.Fatalf("List: %v %#v", err, items)
	}
	got := items[0]
	if got.Title != "Antibiotic" || got.PillName != "Amoxicillin" || got.Note != "after meals" ||
		FormatDate(got.StartDate) != "2024-06-01" || FormatDate(got.EndDate) != "2024-06-11" || got.Progress != 0 {
		t.Fatalf("fields changed on round trip: %#v", got)
	}
}

func TestCreate_KeepsSubmittedValuesVerbatim(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(day0)

	in := validInput()
	in.Title = " Morning dose "
	in.Note = "take with food\n"
	in.Dosage = "  1 tablet"
	in.EndDate = "2024-06-11T00:00:00+00:00"

	created, err := svc.Create(ctx, "uid-ana", "ana", in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	items, err := svc.List(ctx, "uid-ana", "ana")
	if err != nil || len(items) != 1 {
		t.Fatalf("List: %v %#v", err, items)
	}

	for _, got := range []Schedule{created, items[0]} {
		if got.Title != in.Title || got.Note != in.Note || got.Dosage != in.Dosage {
			t.Fatalf("descriptive fields changed: %#v", got)
		}
		if got.StartDateString() != in.StartDate || got.EndDateString() != in.EndDate {
			t.Fatalf("dates changed: %q %q", got.StartDateString(), got.EndDateString())
		}
	}
}

func TestMixedCaseUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(day0.AddDate(0, 0, 3))

	sc, err := svc.Create(ctx, "uid-ana", "Ana", validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sc.Username != "ana" {
		t.Fatalf("expected canonical username, got %q", sc.Username)
	}

	items, err := svc.List(ctx, "uid-ana", "ANA")
	if err != nil || len(items) != 1 {
		t.Fatalf("List: %v %#v", err, items)
	}
	if _, err := svc.AdvanceProgress(ctx, "uid-ana", "Ana", sc.ID); err != nil {
		t.Fatalf("AdvanceProgress: %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(day0)

	in := validInput()
	in.EndDate = in.StartDate
	if _, err := svc.Create(ctx, "uid-ana", "ana", in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty window, got %v", err)
	}

	in = validInput()
	in.StartDate = "june first"
	if _, err := svc.Create(ctx, "uid-ana", "ana", in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad date, got %v", err)
	}
}

func TestAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(day0)

	if _, err := svc.Create(ctx, "uid-bob", "ana", validInput()); !errors.Is(err, users.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.List(ctx, "uid-ana", "ghost"); !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected users.ErrNotFound, got %v", err)
	}

	sc, _ := svc.Create(ctx, "uid-ana", "ana", validInput())

	// bob se autoriza sobre su propio username pero el schedule es de ana.
	if _, err := svc.AdvanceProgress(ctx, "uid-bob", "bob", sc.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected schedule ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, "uid-bob", "bob", sc.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected schedule ErrForbidden on delete, got %v", err)
	}
}

func TestAdvanceProgress_PersistsAndRereads(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(day0.AddDate(0, 0, 3))

	sc, _ := svc.Create(ctx, "uid-ana", "ana", validInput())

	updated, err := svc.AdvanceProgress(ctx, "uid-ana", "ana", sc.ID)
	if err != nil {
		t.Fatalf("AdvanceProgress: %v", err)
	}
	if updated.Progress != 33.33 {
		t.Fatalf("expected 33.33, got %v", updated.Progress)
	}
	if repo.byID[sc.ID].Progress != 33.33 {
		t.Fatalf("progress not persisted")
	}

	// Segunda llamada suma sobre el valor guardado.
	updated, err = svc.AdvanceProgress(ctx, "uid-ana", "ana", sc.ID)
	if err != nil {
		t.Fatalf("AdvanceProgress: %v", err)
	}
	if updated.Progress != 66.66 {
		t.Fatalf("expected 66.66, got %v", updated.Progress)
	}

	updated, _ = svc.AdvanceProgress(ctx, "uid-ana", "ana", sc.ID)
	if updated.Progress != 100 {
		t.Fatalf("expected clamp to 100, got %v", updated.Progress)
	}

	if _, err := svc.AdvanceProgress(ctx, "uid-ana", "ana", sc.ID); !errors.Is(err, ErrAlreadyComplete) {
		t.Fatalf("expected ErrAlreadyComplete, got %v", err)
	}
}

func TestAdvanceProgress_OutOfWindowDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(day0.AddDate(0, 0, -1))

	sc, _ := svc.Create(ctx, "uid-ana", "ana", validInput())
	if _, err := svc.AdvanceProgress(ctx, "uid-ana", "ana", sc.ID); !errors.Is(err, ErrOutOfWindow) {
		t.Fatalf("expected ErrOutOfWindow, got %v", err)
	}
	if repo.byID[sc.ID].Progress != 0 {
		t.Fatalf("failed update must not write")
	}
}

func TestAdvanceProgress_LostCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(day0.AddDate(0, 0, 3))

	sc, _ := svc.Create(ctx, "uid-ana", "ana", validInput())
	repo.beforeCAS = func(id string) {
		s := repo.byID[id]
		s.Progress = 10
		repo.byID[id] = s
	}

	if _, err := svc.AdvanceProgress(ctx, "uid-ana", "ana", sc.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if repo.byID[sc.ID].Progress != 10 {
		t.Fatalf("concurrent write must survive, got %v", repo.byID[sc.ID].Progress)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(day0)

	sc, _ := svc.Create(ctx, "uid-ana", "ana", validInput())
	if err := svc.Delete(ctx, "uid-ana", "ana", sc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := repo.byID[sc.ID]; ok {
		t.Fatalf("schedule still stored")
	}
	if err := svc.Delete(ctx, "uid-ana", "ana", sc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
