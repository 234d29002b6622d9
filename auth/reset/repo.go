package reset

import "context"

// Repo stores issued password-reset tokens. Rows are written once and looked
// up by token string; they are not required to be deleted on redemption.
type Repo interface {
	Insert(ctx context.Context, token *PasswordResetToken) error
	Get(ctx context.Context, token string) (*PasswordResetToken, error)
}
