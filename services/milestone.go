package services

import (
	"github.com/clientdesk-api/models"
	"github.com/clientdesk-api/utils"
)

// MilestoneStatus is the state of one derived milestone
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
)

// Milestone is recomputed from the project on every read and never stored
type Milestone struct {
	Name          string          `json:"name"`
	ProgressValue int             `json:"progressValue"`
	Status        MilestoneStatus `json:"status"`
}

var milestoneLadder = [...]struct {
	name      string
	threshold int
}{
	{"Project Approval & DP", 10},
	{"Design & Planning", 25},
	{"Development - Backend", 50},
	{"Development - Frontend", 75},
	{"Testing & Deployment", 100},
}

// depositPaid is the paymentStatus at which the approval stage counts as done
const depositPaid = 50

// DeriveMilestones builds the fixed five-stage ladder for a project.
// Out-of-range progress and payment values are clamped to 0..100.
func DeriveMilestones(progress, paymentStatus int, status models.ProjectStatus) []Milestone {
	progress = utils.Clamp(progress, 0, 100)
	paymentStatus = utils.Clamp(paymentStatus, 0, 100)

	milestones := make([]Milestone, len(milestoneLadder))
	for i, step := range milestoneLadder {
		m := Milestone{Name: step.name, ProgressValue: step.threshold, Status: MilestonePending}
		switch {
		case progress >= step.threshold:
			m.Status = MilestoneCompleted
		case i > 0 && milestones[i-1].Status == MilestoneCompleted:
			m.Status = MilestoneInProgress
		}
		milestones[i] = m
	}

	// A received down payment means approval is done whatever the progress.
	// The stage after it is left as the progress rule computed it.
	if paymentStatus >= depositPaid && milestones[0].Status != MilestoneCompleted {
		milestones[0].Status = MilestoneCompleted
	}

	if status == models.ProjectStatusCompleted {
		for i := range milestones {
			milestones[i].Status = MilestoneCompleted
		}
	}

	return milestones
}

// ProjectMilestones is DeriveMilestones applied to a loaded project
func ProjectMilestones(p models.Project) []Milestone {
	return DeriveMilestones(p.Progress, p.PaymentStatus, p.Status)
}

// CurrentMilestone returns the first milestone that is not completed, or
// nil when every stage is done
func CurrentMilestone(milestones []Milestone) *Milestone {
	for i := range milestones {
		if milestones[i].Status != MilestoneCompleted {
			return &milestones[i]
		}
	}
	return nil
}
