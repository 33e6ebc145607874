package mailer

import (
	"context"
	"sync"
)

// Message is a delivered mail as seen by Recorder
type Message struct {
	Subject string
	Body    string
	To      MailUser
	From    *MailUser
}

// Recorder is an in-memory Mailer. It keeps every message it accepts and
// fails with Err when set.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

// NewRecorder returns an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SendEmail(ctx context.Context, subject, body string, to MailUser, from *MailUser) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	r.messages = append(r.messages, Message{
		Subject: subject,
		Body:    body,
		To:      to,
		From:    from,
	})
	return nil
}

// Messages returns a copy of the recorded messages
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Reset drops recorded messages and the configured error
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
	r.Err = nil
}
