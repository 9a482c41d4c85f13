package services

import "github.com/clientdesk-api/models"

// StatusMeta is the display metadata for one project status
type StatusMeta struct {
	Status models.ProjectStatus `json:"status"`
	Label  string               `json:"label"`
	Color  string               `json:"color"`
}

var statusOrder = []models.ProjectStatus{
	models.ProjectStatusPendingReview,
	models.ProjectStatusAwaitingDP,
	models.ProjectStatusInProgress,
	models.ProjectStatusUnderReview,
	models.ProjectStatusCompleted,
}

var statusCatalog = map[models.ProjectStatus]StatusMeta{
	models.ProjectStatusPendingReview: {Status: models.ProjectStatusPendingReview, Label: "Pending Review", Color: "yellow"},
	models.ProjectStatusAwaitingDP:    {Status: models.ProjectStatusAwaitingDP, Label: "Awaiting Down Payment", Color: "orange"},
	models.ProjectStatusInProgress:    {Status: models.ProjectStatusInProgress, Label: "In Progress", Color: "blue"},
	models.ProjectStatusUnderReview:   {Status: models.ProjectStatusUnderReview, Label: "Under Review", Color: "purple"},
	models.ProjectStatusCompleted:     {Status: models.ProjectStatusCompleted, Label: "Completed", Color: "green"},
}

// LookupStatus returns the display metadata for a status. Unknown codes get
// a neutral gray entry labelled with the raw code.
func LookupStatus(status models.ProjectStatus) StatusMeta {
	if meta, ok := statusCatalog[status]; ok {
		return meta
	}
	return StatusMeta{Status: status, Label: string(status), Color: "gray"}
}

// IsValidStatus reports whether status is one of the known codes
func IsValidStatus(status models.ProjectStatus) bool {
	_, ok := statusCatalog[status]
	return ok
}

// Statuses lists every known status in lifecycle order
func Statuses() []StatusMeta {
	out := make([]StatusMeta, 0, len(statusOrder))
	for _, s := range statusOrder {
		out = append(out, statusCatalog[s])
	}
	return out
}

// statusRank is the position of a status in the lifecycle, -1 if unknown
func statusRank(status models.ProjectStatus) int {
	for i, s := range statusOrder {
		if s == status {
			return i
		}
	}
	return -1
}
