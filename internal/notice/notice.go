// Package notice holds the two overlay dialogs: the generic message modal
// and the email-verification modal.
package notice

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Modal is the generic blocking message dialog. Closing it invokes the
// injected refresh hook — an explicit UI refresh, not a page reload, and no
// network request of its own.
type Modal struct {
	mu      sync.Mutex
	visible bool
	text    string
	onClose func()
}

func NewModal(onClose func()) *Modal {
	return &Modal{onClose: onClose}
}

func (m *Modal) Show(text string) {
	m.mu.Lock()
	m.text = text
	m.visible = true
	m.mu.Unlock()
}

func (m *Modal) Close() {
	m.mu.Lock()
	wasVisible := m.visible
	m.visible = false
	m.text = ""
	m.mu.Unlock()

	if wasVisible && m.onClose != nil {
		m.onClose()
	}
}

func (m *Modal) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

func (m *Modal) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Verifier is the slice of the API client the email dialog needs.
type Verifier interface {
	VerifyEmail(ctx context.Context, email string) error
}

// EmailModal is the email-verification dialog. Submit posts the address and
// closes the dialog no matter what the server answered.
type EmailModal struct {
	mu       sync.Mutex
	visible  bool
	verifier Verifier
}

func NewEmailModal(v Verifier) *EmailModal {
	return &EmailModal{verifier: v}
}

func (m *EmailModal) Show() {
	m.mu.Lock()
	m.visible = true
	m.mu.Unlock()
}

func (m *EmailModal) Close() {
	m.mu.Lock()
	m.visible = false
	m.mu.Unlock()
}

func (m *EmailModal) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

func (m *EmailModal) Submit(ctx context.Context, email string) {
	defer m.Close()
	if err := m.verifier.VerifyEmail(ctx, email); err != nil {
		zap.L().Debug("notice.verify_email", zap.Error(err))
	}
}
