package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pill-tracker/internal/domain/schedules"
	"pill-tracker/internal/ports/docstore"
)

type scheduleDoc struct {
	ScheduleID string    `json:"scheduleId"`
	Username   string    `json:"username"`
	Title      string    `json:"title"`
	Receptor   string    `json:"receptor"`
	PillName   string    `json:"pillName"`
	Dosage     string    `json:"dosage"`
	StartTime  string    `json:"startTime"`
	StartDate  string    `json:"startDate"`
	EndDate    string    `json:"endDate"`
	Note       string    `json:"note"`
	Progress   float64   `json:"progress"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type SchedulesRepo struct {
	store docstore.Store
}

func NewSchedulesRepo(store docstore.Store) *SchedulesRepo {
	return &SchedulesRepo{store: store}
}

func (r *SchedulesRepo) Create(ctx context.Context, s schedules.Schedule) error {
	data, err := docstore.Encode(toScheduleDoc(s))
	if err != nil {
		return err
	}
	return r.store.Set(ctx, colSchedules, s.ID, data)
}

func (r *SchedulesRepo) GetByID(ctx context.Context, id string) (schedules.Schedule, error) {
	doc, err := r.store.Get(ctx, colSchedules, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return schedules.Schedule{}, schedules.ErrNotFound
		}
		return schedules.Schedule{}, err
	}
	return fromScheduleDoc(doc)
}

func (r *SchedulesRepo) ListByUsername(ctx context.Context, username string) ([]schedules.Schedule, error) {
	docs, err := r.store.Find(ctx, colSchedules, docstore.Filter{Field: "username", Value: username})
	if err != nil {
		return nil, err
	}

	out := make([]schedules.Schedule, 0, len(docs))
	for _, doc := range docs {
		s, err := fromScheduleDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *SchedulesRepo) UpdateProgress(ctx context.Context, id string, expected, next float64, at time.Time) error {
	err := r.store.Update(ctx, colSchedules, id,
		map[string]any{"progress": next, "updatedAt": at},
		docstore.Precondition{Field: "progress", Equals: expected},
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return schedules.ErrNotFound
	case errors.Is(err, docstore.ErrPreconditionFailed):
		return schedules.ErrConflict
	default:
		return err
	}
}

func (r *SchedulesRepo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, colSchedules, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return schedules.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *SchedulesRepo) DeleteByUsername(ctx context.Context, username string) (int, error) {
	return deleteWhere(ctx, r.store, colSchedules, docstore.Filter{Field: "username", Value: username})
}

func toScheduleDoc(s schedules.Schedule) scheduleDoc {
	return scheduleDoc{
		ScheduleID: s.ID,
		Username:   s.Username,
		Title:      s.Title,
		Receptor:   s.Receptor,
		PillName:   s.PillName,
		Dosage:     s.Dosage,
		StartTime:  s.StartTime,
		StartDate:  s.StartDateString(),
		EndDate:    s.EndDateString(),
		Note:       s.Note,
		Progress:   s.Progress,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func fromScheduleDoc(doc docstore.Document) (schedules.Schedule, error) {
	var d scheduleDoc
	if err := docstore.Decode(doc, &d); err != nil {
		return schedules.Schedule{}, err
	}

	start, err := schedules.ParseDate(d.StartDate)
	if err != nil {
		return schedules.Schedule{}, fmt.Errorf("schedule %s: startDate: %w", doc.ID, err)
	}
	end, err := schedules.ParseDate(d.EndDate)
	if err != nil {
		return schedules.Schedule{}, fmt.Errorf("schedule %s: endDate: %w", doc.ID, err)
	}

	id := d.ScheduleID
	if id == "" {
		id = doc.ID
	}
	return schedules.Schedule{
		ID:            id,
		Username:      d.Username,
		Title:         d.Title,
		Receptor:      d.Receptor,
		PillName:      d.PillName,
		Dosage:        d.Dosage,
		StartTime:     d.StartTime,
		StartDate:     start,
		EndDate:       end,
		StartDateText: d.StartDate,
		EndDateText:   d.EndDate,
		Note:          d.Note,
		Progress:      d.Progress,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

// deleteWhere borra todos los documentos que cumplen filters.
func deleteWhere(ctx context.Context, store docstore.Store, collection string, filters ...docstore.Filter) (int, error) {
	docs, err := store.Find(ctx, collection, filters...)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, doc := range docs {
		if err := store.Delete(ctx, collection, doc.ID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return n, err
		}
		n++
	}
	return n, nil
}
