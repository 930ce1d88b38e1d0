// Package messenger contains core.Messenger implementations used inside
// this process: a recording messenger for tests and a slog-backed
// messenger for development. Real platform transports (WhatsApp, Telegram,
// web chat) plug in at wiring time; the core treats all of them as
// fire-and-forget.
package messenger

import (
	"context"
	"fmt"
	"sync"

	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/AdonayRH/wahisper-sub000/logging"
)

// Recording captures every outbound message per user. The zero value is
// not usable; construct with NewRecording.
type Recording struct {
	mu    sync.Mutex
	sent  map[string][]string
	files map[string][]byte
	// SendErr, when set, is returned by Send to exercise the best-effort
	// delivery path.
	SendErr error
}

// NewRecording constructs an empty recording messenger.
func NewRecording() *Recording {
	return &Recording{sent: make(map[string][]string), files: make(map[string][]byte)}
}

// Send records the message.
func (r *Recording) Send(ctx context.Context, userID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SendErr != nil {
		return r.SendErr
	}
	r.sent[userID] = append(r.sent[userID], text)
	return nil
}

// Edit records the edit as a plain message.
func (r *Recording) Edit(ctx context.Context, userID, messageRef, text string) error {
	return r.Send(ctx, userID, text)
}

// Delete is a no-op.
func (r *Recording) Delete(ctx context.Context, userID, messageRef string) error { return nil }

// GetFile returns bytes registered with AddFile.
func (r *Recording) GetFile(ctx context.Context, fileRef string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.files[fileRef]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", fileRef, core.ErrNotFound)
	}
	return data, nil
}

// AddFile registers downloadable bytes for a file reference.
func (r *Recording) AddFile(fileRef string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[fileRef] = data
}

// Sent returns a copy of the messages delivered to the user.
func (r *Recording) Sent(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent[userID]...)
}

// Last returns the most recent message delivered to the user, or "".
func (r *Recording) Last(userID string) string {
	msgs := r.Sent(userID)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

// Interface compliance (compile-time assertion)
var _ core.Messenger = (*Recording)(nil)

// SlogMessenger writes outbound traffic to a structured logger. Useful as
// a stand-in transport during development.
type SlogMessenger struct {
	logger logging.Logger
}

// NewSlog constructs a messenger that logs instead of delivering.
func NewSlog(logger logging.Logger) *SlogMessenger {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &SlogMessenger{logger: logger}
}

// Send logs the message.
func (s *SlogMessenger) Send(ctx context.Context, userID, text string) error {
	s.logger.Info("outbound message", "user_id", userID, "text", text)
	return nil
}

// Edit logs the edit.
func (s *SlogMessenger) Edit(ctx context.Context, userID, messageRef, text string) error {
	s.logger.Info("outbound edit", "user_id", userID, "message_ref", messageRef, "text", text)
	return nil
}

// Delete logs the delete.
func (s *SlogMessenger) Delete(ctx context.Context, userID, messageRef string) error {
	s.logger.Info("outbound delete", "user_id", userID, "message_ref", messageRef)
	return nil
}

// GetFile always fails; the log transport has no file storage.
func (s *SlogMessenger) GetFile(ctx context.Context, fileRef string) ([]byte, error) {
	return nil, fmt.Errorf("file %s: %w", fileRef, core.ErrNotFound)
}

var _ core.Messenger = (*SlogMessenger)(nil)
