package schedules

import (
	"errors"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Schedule es un plan de dosis con ventana de calendario y porcentaje de avance.
type Schedule struct {
	ID       string
	Username string // dueño, inmutable

	Title     string
	Receptor  string
	PillName  string
	Dosage    string
	StartTime string // hora del día, no participa del cálculo de progreso
	Note      string

	StartDate time.Time
	EndDate   time.Time

	// Fechas tal como se enviaron; vacías en registros sin texto original.
	StartDateText string
	EndDateText   string

	// Progress en [0,100], nunca decrece.
	Progress float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

var errBadDate = errors.New("date must be YYYY-MM-DD or RFC3339")

// ParseDate acepta fecha de calendario (medianoche UTC) o RFC3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errBadDate
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, errBadDate
}

// FormatDate es la inversa de ParseDate: medianoche UTC vuelve como fecha sola.
// Se normaliza a UTC antes de decidir, así "+00:00" y "Z" formatean igual.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.UTC()
	if t.Equal(t.Truncate(24 * time.Hour)) {
		return t.Format(dateLayout)
	}
	return t.Format(time.RFC3339)
}

// StartDateString devuelve la fecha de inicio como se envió al crear.
func (s Schedule) StartDateString() string {
	return dateString(s.StartDateText, s.StartDate)
}

// EndDateString devuelve la fecha de fin como se envió al crear.
func (s Schedule) EndDateString() string {
	return dateString(s.EndDateText, s.EndDate)
}

func dateString(text string, t time.Time) string {
	if text != "" {
		return text
	}
	return FormatDate(t)
}
