// Package mailer delivers invitation notifications. Delivery is best-effort:
// a failed send is logged and never fails the state transition that triggered
// it.
package mailer

import (
	"fmt"

	"github.com/AsaielHummadi/Sustain/logger"
)

// InvitationMessage carries everything the invitation email template needs.
type InvitationMessage struct {
	To               string
	OrganizationName string
	RoleName         string
	FactoryName      string
	AcceptURL        string
}

type Mailer interface {
	SendInvitation(msg InvitationMessage) error
}

// LogMailer writes the invitation to the log instead of sending it. It stands
// in until an SMTP provider is configured.
type LogMailer struct{}

func New() Mailer {
	return LogMailer{}
}

func (LogMailer) SendInvitation(msg InvitationMessage) error {
	logger.Success(fmt.Sprintf("Invitation email to %s (org: %s, role: %s): %s",
		msg.To, msg.OrganizationName, msg.RoleName, msg.AcceptURL))
	return nil
}

// SendInvitation is the fire-and-forget wrapper controllers call. Errors are
// swallowed after logging so notification failure cannot undo the invitation.
func SendInvitation(m Mailer, msg InvitationMessage) {
	if err := m.SendInvitation(msg); err != nil {
		logger.Error("Failed to send invitation email to "+msg.To, err)
	}
}
