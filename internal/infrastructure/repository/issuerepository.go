package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/infrastructure/persistence/mappers"
	"github.com/civiclens/civiclens/internal/infrastructure/persistence/models"
	"github.com/civiclens/civiclens/internal/shared/db"
	"github.com/civiclens/civiclens/internal/shared/geo"
	"github.com/civiclens/civiclens/internal/shared/logger"
	"github.com/civiclens/civiclens/internal/shared/utils"
)

// IssueRepositoryImpl implements the issue.Repository interface.
type IssueRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.IssueMapper
	logger logger.Interface
}

func NewIssueRepository(db *gorm.DB, logger logger.Interface) issue.Repository {
	return &IssueRepositoryImpl{
		db:     db,
		mapper: mappers.NewIssueMapper(),
		logger: logger,
	}
}

func (r *IssueRepositoryImpl) Create(ctx context.Context, entity *issue.Issue) error {
	model := r.mapper.ToModel(entity)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create issue in database", "error", err, "issue_id", model.ID)
		return fmt.Errorf("failed to create issue: %w", err)
	}

	return nil
}

func (r *IssueRepositoryImpl) GetByID(ctx context.Context, id string) (*issue.Issue, error) {
	var model models.IssueModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, issue.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get issue by ID: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, fmt.Errorf("failed to map issue model to entity: %w", err)
	}

	return entity, nil
}

func (r *IssueRepositoryImpl) CompareAndSwapStatus(ctx context.Context, entity *issue.Issue, expected vo.IssueStatus) error {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.IssueModel{}).
		Where("id = ? AND status = ?", entity.ID(), expected.String()).
		Updates(map[string]any{
			"status":      entity.Status().String(),
			"ai_score":    entity.AIScore(),
			"after_image": entity.AfterImage(),
			"updated_at":  entity.UpdatedAt().UnixMilli(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update issue status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.IssueModel{}).Where("id = ?", entity.ID()).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check issue existence: %w", err)
		}
		if count == 0 {
			return issue.ErrNotFound
		}
		return issue.ErrStatusChanged
	}

	return nil
}

func (r *IssueRepositoryImpl) IncrementReportCount(ctx context.Context, id string, now time.Time) (int, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.IssueModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"report_count": gorm.Expr("report_count + ?", 1),
			"updated_at":   now.UnixMilli(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to increment report count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, issue.ErrNotFound
	}

	var count int
	if err := tx.Model(&models.IssueModel{}).Where("id = ?", id).Pluck("report_count", &count).Error; err != nil {
		return 0, fmt.Errorf("failed to read report count: %w", err)
	}

	return count, nil
}

func (r *IssueRepositoryImpl) FindNearbyPending(ctx context.Context, box geo.BoundingBox) ([]issue.Candidate, error) {
	var rows []models.IssueModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Select("id", "category", "status", "lat", "lng", "before_image", "report_count").
		Where("status = ?", vo.StatusPending.String()).
		Where("before_image IS NOT NULL AND before_image <> ''").
		Where("lat BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("lng BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby issues: %w", err)
	}

	candidates := make([]issue.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, issue.Candidate{
			ID:          row.ID,
			Category:    vo.Category(row.Category),
			Status:      vo.IssueStatus(row.Status),
			Lat:         row.Lat,
			Lng:         row.Lng,
			BeforeImage: *row.BeforeImage,
			ReportCount: row.ReportCount,
		})
	}

	return candidates, nil
}

func (r *IssueRepositoryImpl) List(ctx context.Context, filter issue.Filter) ([]*issue.Issue, int64, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.IssueModel{})

	if filter.Category != nil {
		query = query.Where("category = ?", filter.Category.String())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.ReporterID != "" {
		query = query.Where("reporter_id = ?", filter.ReporterID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count issues: %w", err)
	}

	p := utils.ValidatePagination(filter.Page, filter.PageSize)

	var modelList []*models.IssueModel
	if err := query.Order("created_at DESC").Order("id DESC").
		Limit(p.PageSize).Offset(p.Offset()).
		Find(&modelList).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list issues: %w", err)
	}

	entities, err := r.mapper.ToEntities(modelList)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to map issue models to entities: %w", err)
	}

	return entities, total, nil
}

func (r *IssueRepositoryImpl) ListStaleIDs(ctx context.Context, statuses []vo.IssueStatus, updatedBefore time.Time, limit int) ([]string, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, s.String())
	}

	query := db.GetTxFromContext(ctx, r.db).Model(&models.IssueModel{}).
		Where("status IN ?", values).
		Where("updated_at < ?", updatedBefore.UnixMilli()).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var ids []string
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale issues: %w", err)
	}

	return ids, nil
}

func (r *IssueRepositoryImpl) CountByStatus(ctx context.Context) (map[vo.IssueStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}

	if err := db.GetTxFromContext(ctx, r.db).Model(&models.IssueModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count issues by status: %w", err)
	}

	counts := make(map[vo.IssueStatus]int64, len(vo.AllStatuses))
	for _, s := range vo.AllStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[vo.IssueStatus(row.Status)] = row.Count
	}

	return counts, nil
}
