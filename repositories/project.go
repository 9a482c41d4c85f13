package repositories

import (
	"context"
	"strings"

	"github.com/clientdesk-api/models"
	"gorm.io/gorm"
)

// ProjectRepository handles database operations for projects
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository instance
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ProjectRepository) WithTx(tx *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: tx}
}

// FindByID retrieves a project by its ID
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (models.Project, error) {
	var project models.Project
	result := r.db.WithContext(ctx).First(&project, "id = ?", id)
	return project, result.Error
}

// Create inserts a new project into the database
func (r *ProjectRepository) Create(ctx context.Context, project models.Project) (models.Project, error) {
	result := r.db.WithContext(ctx).Create(&project)
	return project, result.Error
}

// UpdateFields writes only the given columns. Map updates let zero values
// such as progress 0 through, which struct updates would skip.
func (r *ProjectRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a project from the database (soft delete)
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByStatus counts projects per status, restricted to one owner unless
// userID is empty
func (r *ProjectRepository) CountByStatus(ctx context.Context, userID string) (map[models.ProjectStatus]int64, error) {
	type row struct {
		Status models.ProjectStatus
		Count  int64
	}

	var rows []row
	db := r.db.WithContext(ctx).Model(&models.Project{})
	if userID != "" {
		db = db.Where("user_id = ?", userID)
	}
	if err := db.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.ProjectStatus]int64, len(rows))
	for _, c := range rows {
		counts[c.Status] = c.Count
	}
	return counts, nil
}

// ProjectQuery carries the already-sanitised list parameters
type ProjectQuery struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
	UserID    string
	IsAdmin   bool
	Search    string
	Status    string
}

// FindWithPagination retrieves projects with pagination, filtering and sorting
func (r *ProjectRepository) FindWithPagination(ctx context.Context, q ProjectQuery) ([]models.Project, int64, error) {
	var projects []models.Project
	var totalCount int64

	db := r.db.WithContext(ctx).Model(&models.Project{})

	// Filter by user ID jika bukan admin
	if !q.IsAdmin && q.UserID != "" {
		db = db.Where("user_id = ?", q.UserID)
	}

	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}

	if q.Search != "" {
		searchPattern := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", searchPattern, searchPattern)
	}

	// Count total records (dengan filter yang sama)
	if err := db.Session(&gorm.Session{}).Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.PageSize

	orderString := q.SortBy + " " + q.SortOrder
	if err := db.Order(orderString).Limit(q.PageSize).Offset(offset).Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, totalCount, nil
}
