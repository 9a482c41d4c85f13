package v1

import (
	"net/http"
	"strconv"

	"github.com/clientdesk-api/dto"
	"github.com/gin-gonic/gin"
)

// ListProjects returns all projects for admins, or only the caller's own
// projects for clients.
// Query: page, pageSize, search, status, sortBy, sortOrder
func (h *Handler) ListProjects(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok {
		return
	}

	// Parse query parameters
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if err != nil || pageSize < 1 {
		pageSize = 10
	}

	filter := dto.ProjectFilter{
		UserID:    userID,
		Search:    c.Query("search"),
		Status:    c.Query("status"),
		SortBy:    c.DefaultQuery("sortBy", "created_at"),
		SortOrder: c.DefaultQuery("sortOrder", "desc"),
		Page:      page,
		PageSize:  pageSize,
		IsAdmin:   isAdmin,
	}

	response, err := h.projects.ListProjects(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, response)
}

// GetProject returns a project with its milestones, payment state and
// recent activity
func (h *Handler) GetProject(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok {
		return
	}

	detail, err := h.projects.GetProjectDetail(c.Request.Context(), c.Param("id"), userID, isAdmin)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, detail)
}

// GetProjectActivity returns the full activity log of a project
func (h *Handler) GetProjectActivity(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok {
		return
	}

	activity, err := h.projects.GetActivity(c.Request.Context(), c.Param("id"), userID, isAdmin)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, activity)
}

// CreateProject submits a new project request for the caller
func (h *Handler) CreateProject(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Project created successfully",
		"data":    project,
	})
}

// UpdateProject edits the title and description of a project
func (h *Handler) UpdateProject(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	project, err := h.projects.UpdateProject(c.Request.Context(), c.Param("id"), userID, isAdmin, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Project updated successfully",
		"data":    project,
	})
}

// DeleteProject soft-deletes a project
func (h *Handler) DeleteProject(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok {
		return
	}

	if err := h.projects.DeleteProject(c.Request.Context(), c.Param("id"), userID, isAdmin); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Project deleted successfully",
	})
}

// AdminUpdateProject changes status, progress, timeline or quote
func (h *Handler) AdminUpdateProject(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	var req dto.AdminUpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	project, err := h.projects.AdminUpdateProject(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, project)
}
