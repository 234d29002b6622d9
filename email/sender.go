// Package email is the outbound mail boundary. The session protocol only
// depends on the Sender interface; delivery details stay here.
package email

import "context"

type Sender interface {
	// SendPasswordReset mails a reset link containing the token to the given
	// address.
	SendPasswordReset(ctx context.Context, to, token string) error
}
