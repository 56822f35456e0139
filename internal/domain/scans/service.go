package scans

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"pill-tracker/internal/domain/pills"
	"pill-tracker/internal/domain/users"
	"pill-tracker/internal/ports/prediction"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrTooLarge        = errors.New("image too large")
	ErrUnsupportedType = errors.New("unsupported image type")
)

const DefaultMaxBytes int64 = 5 << 20

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// UserAuthorizer lo implementa users.Service. El usuario devuelto trae el username canónico.
type UserAuthorizer interface {
	Resolve(ctx context.Context, username, userID string) (users.User, error)
	Authorize(ctx context.Context, username, userID string) error
}

// PillMatcher lo implementa pills.Service.
type PillMatcher interface {
	MatchName(ctx context.Context, label string) (pills.Pill, bool, error)
}

type Service struct {
	repo      Repository
	users     UserAuthorizer
	predictor prediction.Predictor
	catalog   PillMatcher
	maxBytes  int64
	now       func() time.Time
}

func NewService(repo Repository, users UserAuthorizer, predictor prediction.Predictor, catalog PillMatcher, maxBytes int64) *Service {
	if predictor == nil {
		predictor = prediction.Unavailable{}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{
		repo:      repo,
		users:     users,
		predictor: predictor,
		catalog:   catalog,
		maxBytes:  maxBytes,
		now:       time.Now,
	}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Authorize verifica que userID sea el dueño de username. El handler de
// upload la llama antes de leer el cuerpo.
func (s *Service) Authorize(ctx context.Context, userID, username string) error {
	return s.users.Authorize(ctx, username, userID)
}

type Result struct {
	Scan Scan
	Pill *pills.Pill
}

// Scan valida la imagen, la manda al modelo y guarda el resultado.
// El content type se detecta por contenido; el declarado por el cliente se ignora.
func (s *Service) Scan(ctx context.Context, userID, username string, img prediction.Image) (Result, error) {
	u, err := s.users.Resolve(ctx, username, userID)
	if err != nil {
		return Result{}, err
	}

	if len(img.Data) == 0 {
		return Result{}, fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}
	if int64(len(img.Data)) > s.maxBytes {
		return Result{}, ErrTooLarge
	}
	ct := http.DetectContentType(img.Data)
	if _, ok := allowedTypes[ct]; !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	img.ContentType = ct

	pred, err := s.predictor.Predict(ctx, img)
	if err != nil {
		return Result{}, err
	}

	sc := Scan{
		ID:          uuid.NewString(),
		Username:    u.Username,
		Label:       strings.TrimSpace(pred.Label),
		Confidence:  pred.Confidence,
		FileName:    img.FileName,
		ContentType: ct,
		Size:        int64(len(img.Data)),
		CreatedAt:   s.now().UTC(),
	}

	var match *pills.Pill
	if s.catalog != nil && sc.Label != "" {
		p, ok, err := s.catalog.MatchName(ctx, sc.Label)
		if err != nil {
			return Result{}, err
		}
		if ok {
			sc.PillID = p.ID
			match = &p
		}
	}

	if err := s.repo.Create(ctx, sc); err != nil {
		return Result{}, err
	}
	return Result{Scan: sc, Pill: match}, nil
}

// History devuelve los scans del usuario, más nuevos primero.
func (s *Service) History(ctx context.Context, userID, username string) ([]Scan, error) {
	u, err := s.users.Resolve(ctx, username, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByUsername(ctx, u.Username)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Service) DeleteByUsername(ctx context.Context, username string) error {
	_, err := s.repo.DeleteByUsername(ctx, username)
	return err
}

// Purge borra los scans más viejos que retention. Lo corre el scheduler.
func (s *Service) Purge(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("%w: retention must be positive", ErrInvalidInput)
	}
	return s.repo.DeleteOlderThan(ctx, s.now().UTC().Add(-retention))
}
