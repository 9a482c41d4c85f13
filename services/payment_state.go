package services

import (
	"fmt"

	"github.com/clientdesk-api/models"
	"github.com/clientdesk-api/utils"
)

// PaymentAction is the next payment step offered for a project
type PaymentAction struct {
	Label   string             `json:"label"`
	Kind    models.PaymentKind `json:"kind"`
	Enabled bool               `json:"enabled"`
}

// PaymentState is the display state derived from paymentStatus
type PaymentState struct {
	Percent int            `json:"percent"`
	Label   string         `json:"label"`
	Action  *PaymentAction `json:"action,omitempty"`
}

const (
	ActionPayDeposit      = "Pay Deposit"
	ActionCompletePayment = "Complete Payment"
)

// DerivePaymentState maps paymentStatus onto a label and the next payment
// action. Only the conventional 0/50/100 values are actionable; any other
// percentage is display-only. The final payment opens only once the
// project is completed.
func DerivePaymentState(paymentStatus int, status models.ProjectStatus) PaymentState {
	paymentStatus = utils.Clamp(paymentStatus, 0, 100)

	switch paymentStatus {
	case 0:
		return PaymentState{
			Percent: 0,
			Label:   "Payment Pending",
			Action: &PaymentAction{
				Label:   ActionPayDeposit,
				Kind:    models.PaymentKindDeposit,
				Enabled: status == models.ProjectStatusAwaitingDP,
			},
		}
	case 50:
		return PaymentState{
			Percent: 50,
			Label:   "50% Paid",
			Action: &PaymentAction{
				Label:   ActionCompletePayment,
				Kind:    models.PaymentKindFinal,
				Enabled: status == models.ProjectStatusCompleted,
			},
		}
	case 100:
		return PaymentState{Percent: 100, Label: "Fully Paid"}
	default:
		return PaymentState{Percent: paymentStatus, Label: fmt.Sprintf("%d%% Paid", paymentStatus)}
	}
}

// ProjectPaymentState is DerivePaymentState applied to a loaded project
func ProjectPaymentState(p models.Project) PaymentState {
	return DerivePaymentState(p.PaymentStatus, p.Status)
}

// EnabledAction returns the action a client may take now, if any
func (s PaymentState) EnabledAction() (PaymentAction, bool) {
	if s.Action == nil || !s.Action.Enabled {
		return PaymentAction{}, false
	}
	return *s.Action, true
}
