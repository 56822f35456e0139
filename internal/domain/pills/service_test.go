package pills

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testRepo struct {
	pills map[string]Pill
	cats  map[string]Category
}

func newTestRepo(items ...Pill) *testRepo {
	r := &testRepo{pills: map[string]Pill{}, cats: map[string]Category{}}
	for _, p := range items {
		r.pills[p.ID] = p
	}
	return r
}

func (r *testRepo) ListPills(ctx context.Context) ([]Pill, error) {
	out := make([]Pill, 0, len(r.pills))
	for _, p := range r.pills {
		out = append(out, p)
	}
	return out, nil
}

func (r *testRepo) GetPill(ctx context.Context, id string) (Pill, error) {
	p, ok := r.pills[id]
	if !ok {
		return Pill{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) SavePill(ctx context.Context, p Pill) error {
	r.pills[p.ID] = p
	return nil
}

func (r *testRepo) ListCategories(ctx context.Context) ([]Category, error) {
	out := make([]Category, 0, len(r.cats))
	for _, c := range r.cats {
		out = append(out, c)
	}
	return out, nil
}

func (r *testRepo) SaveCategory(ctx context.Context, c Category) error {
	r.cats[c.ID] = c
	return nil
}

func catalog() []Pill {
	return []Pill{
		{ID: "p1", Name: "Paracetamol", Category: "Analgesic"},
		{ID: "p2", Name: "Ibuprofen", Category: "Analgesic"},
		{ID: "p3", Name: "Amoxicillin", Category: "Antibiotic"},
		{ID: "p4", Name: "Amlodipine", Category: "Antihypertensive"},
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestRepo(catalog()...), 0)

	cases := []struct {
		name      string
		query     string
		category  string
		wantFirst string
		wantErr   error
	}{
		{name: "exact", query: "Ibuprofen", wantFirst: "p2"},
		{name: "case insensitive prefix", query: "amox", wantFirst: "p3"},
		{name: "typo", query: "paracetmol", wantFirst: "p1"},
		{name: "swapped letters", query: "ibuporfen", wantFirst: "p2"},
		{name: "category filter", query: "am", category: "Antihypertensive", wantFirst: "p4"},
		{name: "category excludes match", query: "Ibuprofen", category: "Antibiotic", wantErr: ErrNotFound},
		{name: "nothing close", query: "zzzzqqq", wantErr: ErrNotFound},
		{name: "missing name", query: " ", wantErr: ErrInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Search(ctx, tc.query, tc.category)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v (%#v)", tc.wantErr, err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if got[0].ID != tc.wantFirst {
				t.Fatalf("expected %s first, got %#v", tc.wantFirst, got)
			}
		})
	}
}

func TestHome_LimitsAndListsCategoryNames(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(catalog()...)
	repo.cats["c1"] = Category{ID: "c1", Name: "Analgesic"}

	svc := NewService(repo, 2)
	data, err := svc.Home(ctx)
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if len(data.Pills) != 2 {
		t.Fatalf("expected 2 pills, got %d", len(data.Pills))
	}
	if len(data.Categories) != 1 || data.Categories[0] != "Analgesic" {
		t.Fatalf("unexpected categories: %#v", data.Categories)
	}
}

func TestMatchName(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestRepo(catalog()...), 0)

	p, ok, err := svc.MatchName(ctx, "amoxicilin")
	if err != nil || !ok || p.ID != "p3" {
		t.Fatalf("expected p3, got %#v ok=%v err=%v", p, ok, err)
	}

	if _, ok, _ := svc.MatchName(ctx, "unknown-label-xyz"); ok {
		t.Fatalf("expected no match")
	}
}

func TestSeed_OnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	data := `{"pills":[{"name":"Paracetamol","category":"Analgesic"},{"pillId":"x1","name":"Cetirizine","category":"Antihistamine"},{"name":""}],
"categories":[{"name":"Analgesic"},{"id":"antihistamine","name":"Antihistamine"}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := LoadCatalogFile(path)
	if err != nil {
		t.Fatalf("LoadCatalogFile: %v", err)
	}

	repo := newTestRepo()
	svc := NewService(repo, 0)

	n, err := svc.Seed(ctx, c)
	if err != nil || n != 2 {
		t.Fatalf("Seed: n=%d err=%v", n, err)
	}
	if _, ok := repo.pills["x1"]; !ok {
		t.Fatalf("explicit pill id must be kept")
	}
	if len(repo.cats) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(repo.cats))
	}

	n, _ = svc.Seed(ctx, c)
	if n != 0 || len(repo.pills) != 2 {
		t.Fatalf("second seed must be a no-op, n=%d pills=%d", n, len(repo.pills))
	}
}
