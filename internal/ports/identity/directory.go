package identity

import "context"

// Directory son las operaciones de cuenta que quedan del lado del identity provider.
// El servicio nunca maneja credenciales; solo propaga cambios de email.
type Directory interface {
	UpdateEmail(ctx context.Context, userID, email string) error
	SendEmailVerification(ctx context.Context, userID string) error
}

// NopDirectory se usa en modo dev (sin identity provider).
type NopDirectory struct{}

func (NopDirectory) UpdateEmail(context.Context, string, string) error   { return nil }
func (NopDirectory) SendEmailVerification(context.Context, string) error { return nil }
