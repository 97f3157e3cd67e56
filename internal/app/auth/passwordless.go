package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/pkg/validate"
)

// Stage is the passwordless flow's position.
type Stage string

const (
	StageChooseMethod Stage = "choose-method"
	StageContact      Stage = "awaiting-contact"
	StageCode         Stage = "awaiting-code"
	StageDone         Stage = "succeeded"
)

// CodeLength is the number of one-time-code digits.
const CodeLength = 6

// resendCooldownSeconds gates how soon a new code may be requested.
const resendCooldownSeconds = 60

// Flow is the ephemeral passwordless login state machine. It is never
// persisted; abandoning it (or starting a new one) cancels the resend
// cooldown. The code buffer is 6 independent single-digit slots with
// auto-advance and backspace navigation, mirroring the entry widget.
//
// All state is guarded by the owning Manager's lock.
type Flow struct {
	m *Manager

	stage    Stage
	method   Method
	contact  string
	digits   [CodeLength]string
	focus    int
	resendIn int
}

func newFlow(m *Manager) *Flow {
	return &Flow{m: m, stage: StageChooseMethod}
}

// Stage returns the flow's current stage.
func (f *Flow) Stage() Stage {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.stage
}

// Method returns the chosen contact channel.
func (f *Flow) Method() Method {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.method
}

// Contact returns the entered contact value.
func (f *Flow) Contact() string {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.contact
}

// Digits returns the code buffer slots.
func (f *Flow) Digits() [CodeLength]string {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.digits
}

// FocusIndex returns the slot the entry widget should focus.
func (f *Flow) FocusIndex() int {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.focus
}

// ResendIn returns the seconds remaining until resend re-enables.
func (f *Flow) ResendIn() int {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.resendIn
}

// CanResend reports whether a new code may be requested.
func (f *Flow) CanResend() bool {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.stage == StageCode && f.resendIn == 0
}

// ChooseMethod picks the contact channel and advances to contact entry.
// Choosing a method restarts the flow, cancelling any running cooldown.
func (f *Flow) ChooseMethod(m Method) {
	f.m.mu.Lock()
	f.resetLocked()
	f.method = m
	f.stage = StageContact
	f.m.mu.Unlock()
	f.m.hub.Notify()
}

// SetContact records the contact value being entered.
func (f *Flow) SetContact(contact string) {
	f.m.mu.Lock()
	f.contact = strings.TrimSpace(contact)
	f.m.mu.Unlock()
	f.m.hub.Notify()
}

// Back steps to the previous stage, clearing what the abandoned stage
// had collected.
func (f *Flow) Back() {
	f.m.mu.Lock()
	switch f.stage {
	case StageContact:
		f.resetLocked()
	case StageCode:
		f.digits = [CodeLength]string{}
		f.focus = 0
		f.resendIn = 0
		f.stage = StageContact
	}
	f.m.mu.Unlock()
	f.m.hub.Notify()
}

// SendCode validates the contact locally and requests a one-time code.
// On success the flow advances to code entry and the 60-second resend
// cooldown starts.
func (f *Flow) SendCode(ctx context.Context) error {
	f.m.mu.Lock()
	method, contact := f.method, f.contact
	f.m.mu.Unlock()

	if err := validateContact(method, contact); err != nil {
		return f.m.fail(err)
	}

	f.m.begin()
	if err := f.m.api.SendCode(ctx, method, contact); err != nil {
		f.m.log.Warn("send code failed", zap.Error(err))
		return f.m.fail(err)
	}

	f.m.mu.Lock()
	f.m.loading = false
	f.stage = StageCode
	f.digits = [CodeLength]string{}
	f.focus = 0
	f.resendIn = resendCooldownSeconds
	f.m.mu.Unlock()
	f.m.hub.Notify()
	return nil
}

// Resend requests a fresh code. It is gated by the cooldown.
func (f *Flow) Resend(ctx context.Context) error {
	f.m.mu.Lock()
	waiting := f.resendIn > 0
	f.m.mu.Unlock()

	if waiting {
		return ErrResendCooldown
	}
	return f.SendCode(ctx)
}

// TickCooldown decrements the resend countdown by one second. The host's
// scheduler drives it; tests call it directly to advance virtual time.
func (f *Flow) TickCooldown() {
	f.m.mu.Lock()
	changed := f.resendIn > 0
	if changed {
		f.resendIn--
	}
	f.m.mu.Unlock()
	if changed {
		f.m.hub.Notify()
	}
}

// EnterDigit writes a single digit into slot i and advances the focus.
// Non-digit input is ignored.
func (f *Flow) EnterDigit(i int, d string) {
	if i < 0 || i >= CodeLength || len(d) != 1 || d[0] < '0' || d[0] > '9' {
		return
	}
	f.m.mu.Lock()
	f.digits[i] = d
	if i < CodeLength-1 {
		f.focus = i + 1
	}
	f.m.mu.Unlock()
	f.m.hub.Notify()
}

// Backspace clears slot i, or moves to and clears the previous slot when
// i is already empty.
func (f *Flow) Backspace(i int) {
	if i < 0 || i >= CodeLength {
		return
	}
	f.m.mu.Lock()
	if f.digits[i] != "" {
		f.digits[i] = ""
		f.focus = i
	} else if i > 0 {
		f.digits[i-1] = ""
		f.focus = i - 1
	}
	f.m.mu.Unlock()
	f.m.hub.Notify()
}

// Code joins the entered slots.
func (f *Flow) Code() string {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return strings.Join(f.digits[:], "")
}

// VerifyCode submits the entered code. An incomplete buffer is a local
// validation failure and never reaches the remote collaborator. A remote
// rejection keeps the flow at code entry for retry; success establishes
// the session.
func (f *Flow) VerifyCode(ctx context.Context) error {
	f.m.mu.Lock()
	method, contact := f.method, f.contact
	complete := true
	for _, d := range f.digits {
		if d == "" {
			complete = false
			break
		}
	}
	code := strings.Join(f.digits[:], "")
	f.m.mu.Unlock()

	if !complete {
		return f.m.fail(ErrIncompleteCode)
	}

	f.m.begin()
	user, err := f.m.api.VerifyCode(ctx, method, contact, code)
	if err != nil {
		f.m.log.Warn("code verification rejected", zap.Error(err))
		return f.m.fail(err)
	}

	f.m.mu.Lock()
	f.stage = StageDone
	f.resendIn = 0
	f.m.mu.Unlock()

	f.m.establish(user)
	return nil
}

// resetLocked restarts the flow; callers hold f.m.mu. Resetting cancels
// the resend cooldown.
func (f *Flow) resetLocked() {
	f.stage = StageChooseMethod
	f.method = ""
	f.contact = ""
	f.digits = [CodeLength]string{}
	f.focus = 0
	f.resendIn = 0
}

func validateContact(method Method, contact string) error {
	if method == MethodPhone {
		if !validate.Phone(contact) {
			return ErrInvalidPhone
		}
		return nil
	}
	if !validate.Email(contact) {
		return ErrInvalidEmail
	}
	return nil
}
