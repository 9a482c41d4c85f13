package dto

import "github.com/clientdesk-api/models"

// ProjectFilter represents filter criteria for projects
type ProjectFilter struct {
	UserID    string
	Search    string
	Status    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
	IsAdmin   bool
}

// ProjectListResponse represents paginated project list response
type ProjectListResponse struct {
	Projects   []ProjectSummary `json:"projects"`
	TotalCount int64            `json:"totalCount"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// ProjectSummary is a list row with its derived labels
type ProjectSummary struct {
	models.Project
	StatusLabel  string `json:"statusLabel"`
	StatusColor  string `json:"statusColor"`
	PaymentLabel string `json:"paymentLabel"`
}

// CreateProjectRequest represents the request payload for creating a new project
type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=10000"`
	Timeline    int    `json:"timeline" binding:"gte=0,lte=520"`
}

// UpdateProjectRequest is the owner-editable part of a project
type UpdateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=10000"`
}

// AdminUpdateProjectRequest carries admin-only edits; nil fields are left alone
type AdminUpdateProjectRequest struct {
	Status      *models.ProjectStatus `json:"status"`
	Progress    *int                  `json:"progress" binding:"omitempty,gte=0,lte=100"`
	Timeline    *int                  `json:"timeline" binding:"omitempty,gte=0,lte=520"`
	QuoteAmount *int64                `json:"quoteAmount" binding:"omitempty,gte=0"`
	Currency    *string               `json:"currency" binding:"omitempty,len=3"`
}

// DashboardStatsResponse counts projects per status
type DashboardStatsResponse struct {
	Total       int64            `json:"total"`
	ByStatus    map[string]int64 `json:"byStatus"`
	UnreadCount int64            `json:"unreadNotifications"`
}
