package pills

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input")

const DefaultHomePillCount = 20

type Service struct {
	repo      Repository
	homeCount int
	shuffle   func(n int, swap func(i, j int))
}

func NewService(repo Repository, homeCount int) *Service {
	if homeCount <= 0 {
		homeCount = DefaultHomePillCount
	}
	return &Service{
		repo:      repo,
		homeCount: homeCount,
		shuffle:   rand.Shuffle,
	}
}

type HomeData struct {
	Pills      []Pill
	Categories []string
}

// Home devuelve hasta homeCount pills al azar y los nombres de categoría.
func (s *Service) Home(ctx context.Context) (HomeData, error) {
	items, err := s.repo.ListPills(ctx)
	if err != nil {
		return HomeData{}, err
	}
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return HomeData{}, err
	}

	s.shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	if len(items) > s.homeCount {
		items = items[:s.homeCount]
	}

	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return HomeData{Pills: items, Categories: names}, nil
}

// Search busca por nombre con tolerancia a errores de tipeo. category, si
// viene, filtra por igualdad exacta. Sin resultados devuelve ErrNotFound.
func (s *Service) Search(ctx context.Context, name, category string) ([]Pill, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: please enter a word to search for a pill", ErrInvalidInput)
	}

	items, err := s.repo.ListPills(ctx)
	if err != nil {
		return nil, err
	}

	ranked := Rank(name, items)
	if category = strings.TrimSpace(category); category != "" {
		filtered := ranked[:0]
		for _, p := range ranked {
			if p.Category == category {
				filtered = append(filtered, p)
			}
		}
		ranked = filtered
	}

	if len(ranked) == 0 {
		return nil, ErrNotFound
	}
	return ranked, nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Pill, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pill{}, ErrNotFound
	}
	return s.repo.GetPill(ctx, id)
}

// MatchName busca la pill que mejor coincide con label (p.ej. la etiqueta
// que devuelve el modelo de predicción). ok=false si nada alcanza el umbral.
func (s *Service) MatchName(ctx context.Context, label string) (Pill, bool, error) {
	if strings.TrimSpace(label) == "" {
		return Pill{}, false, nil
	}
	items, err := s.repo.ListPills(ctx)
	if err != nil {
		return Pill{}, false, err
	}
	ranked := Rank(label, items)
	if len(ranked) == 0 {
		return Pill{}, false, nil
	}
	return ranked[0], true, nil
}

// Catalog es el formato del archivo de seed.
type Catalog struct {
	Pills      []Pill     `json:"pills"`
	Categories []Category `json:"categories"`
}

func LoadCatalogFile(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return c, nil
}

// Seed carga el catálogo sólo si todavía no hay pills. Devuelve cuántas pills cargó.
func (s *Service) Seed(ctx context.Context, c Catalog) (int, error) {
	existing, err := s.repo.ListPills(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			continue
		}
		if cat.ID == "" {
			cat.ID = uuid.NewString()
		}
		if err := s.repo.SaveCategory(ctx, cat); err != nil {
			return 0, fmt.Errorf("seed category %q: %w", cat.Name, err)
		}
	}

	n := 0
	for _, p := range c.Pills {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if err := s.repo.SavePill(ctx, p); err != nil {
			return n, fmt.Errorf("seed pill %q: %w", p.Name, err)
		}
		n++
	}
	return n, nil
}
