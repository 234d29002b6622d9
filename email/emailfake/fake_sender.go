package emailfake

import (
	"context"
	"errors"
	"sync"

	"github.com/apitienda/store-api/email"
)

var _ email.Sender = (*FakeSender)(nil)

// FakeSender records sent reset mails and can be told to fail, for testing
// the send-failure path of the reset-request flow.
type FakeSender struct {
	Fail bool

	sent []SentMail
	lock sync.Mutex
}

type SentMail struct {
	To    string
	Token string
}

func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

func (fs *FakeSender) SendPasswordReset(_ context.Context, to, token string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.Fail {
		return errors.New("send failed")
	}
	fs.sent = append(fs.sent, SentMail{To: to, Token: token})
	return nil
}

func (fs *FakeSender) Sent() []SentMail {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return append([]SentMail(nil), fs.sent...)
}
