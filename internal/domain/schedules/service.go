package schedules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pill-tracker/internal/domain/users"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden: el schedule existe pero es de otro usuario.
	ErrForbidden = errors.New("schedule belongs to another user")
)

// UserAuthorizer resuelve el usuario de la ruta y verifica que sea el autenticado.
// Lo implementa users.Service. El usuario devuelto trae el username canónico.
type UserAuthorizer interface {
	Resolve(ctx context.Context, username, userID string) (users.User, error)
}

type Service struct {
	repo  Repository
	users UserAuthorizer
	now   func() time.Time
}

func NewService(repo Repository, users UserAuthorizer) *Service {
	return &Service{
		repo:  repo,
		users: users,
		now:   time.Now,
	}
}

// WithClock reemplaza el reloj (tests y jobs).
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

type CreateInput struct {
	Title     string
	Receptor  string
	PillName  string
	Dosage    string
	StartTime string
	StartDate string
	EndDate   string
	Note      string
}

func (s *Service) Create(ctx context.Context, userID, username string, in CreateInput) (Schedule, error) {
	u, err := s.users.Resolve(ctx, username, userID)
	if err != nil {
		return Schedule{}, err
	}

	start, err := ParseDate(in.StartDate)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: startDate: %v", ErrInvalidInput, err)
	}
	end, err := ParseDate(in.EndDate)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: endDate: %v", ErrInvalidInput, err)
	}
	if !end.After(start) {
		return Schedule{}, fmt.Errorf("%w: endDate must be after startDate", ErrInvalidInput)
	}

	// Los campos descriptivos son opacos: se guardan tal como llegan.
	now := s.now().UTC()
	sc := Schedule{
		ID:            uuid.NewString(),
		Username:      u.Username,
		Title:         in.Title,
		Receptor:      in.Receptor,
		PillName:      in.PillName,
		Dosage:        in.Dosage,
		StartTime:     in.StartTime,
		Note:          in.Note,
		StartDate:     start,
		EndDate:       end,
		StartDateText: in.StartDate,
		EndDateText:   in.EndDate,
		Progress:      0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, sc); err != nil {
		return Schedule{}, err
	}
	return sc, nil
}

// List devuelve los schedules del usuario, ordenados por fecha de inicio.
func (s *Service) List(ctx context.Context, userID, username string) ([]Schedule, error) {
	u, err := s.users.Resolve(ctx, username, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByUsername(ctx, u.Username)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].StartDate.Equal(items[j].StartDate) {
			return items[i].StartDate.Before(items[j].StartDate)
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

// AdvanceProgress lee el schedule, corre el motor y escribe con compare-and-swap
// sobre el progreso leído. Devuelve el registro tal como quedó guardado.
func (s *Service) AdvanceProgress(ctx context.Context, userID, username, scheduleID string) (Schedule, error) {
	sc, err := s.owned(ctx, userID, username, scheduleID)
	if err != nil {
		return Schedule{}, err
	}

	now := s.now()
	next, err := AdvanceProgress(sc, now)
	if err != nil {
		return Schedule{}, err
	}

	if err := s.repo.UpdateProgress(ctx, sc.ID, sc.Progress, next, now.UTC()); err != nil {
		return Schedule{}, err
	}
	return s.repo.GetByID(ctx, sc.ID)
}

func (s *Service) Delete(ctx context.Context, userID, username, scheduleID string) error {
	sc, err := s.owned(ctx, userID, username, scheduleID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, sc.ID)
}

// DeleteByUsername borra todos los schedules de un usuario (baja de cuenta).
func (s *Service) DeleteByUsername(ctx context.Context, username string) error {
	_, err := s.repo.DeleteByUsername(ctx, username)
	return err
}

func (s *Service) owned(ctx context.Context, userID, username, scheduleID string) (Schedule, error) {
	u, err := s.users.Resolve(ctx, username, userID)
	if err != nil {
		return Schedule{}, err
	}

	sc, err := s.repo.GetByID(ctx, strings.TrimSpace(scheduleID))
	if err != nil {
		return Schedule{}, err
	}
	if sc.Username != u.Username {
		return Schedule{}, ErrForbidden
	}
	return sc, nil
}
