package users

import "time"

// Gender del perfil.
// @Enum male, female
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// User es el perfil guardado; el ID es el uid del identity provider.
type User struct {
	ID       string
	Username string

	Email         string
	EmailVerified bool

	FullName string
	Phone    string
	Address  string
	Gender   Gender

	CreatedAt time.Time
	UpdatedAt time.Time
}
