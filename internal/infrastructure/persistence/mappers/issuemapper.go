package mappers

import (
	"fmt"
	"time"

	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/infrastructure/persistence/models"
	"github.com/civiclens/civiclens/internal/shared/mapper"
)

type IssueMapper interface {
	ToEntity(model *models.IssueModel) (*issue.Issue, error)
	ToModel(entity *issue.Issue) *models.IssueModel
	ToEntities(models []*models.IssueModel) ([]*issue.Issue, error)
}

type IssueMapperImpl struct{}

func NewIssueMapper() IssueMapper {
	return &IssueMapperImpl{}
}

func (m *IssueMapperImpl) ToEntity(model *models.IssueModel) (*issue.Issue, error) {
	if model == nil {
		return nil, nil
	}

	category, err := vo.NewCategory(model.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	status, err := vo.NewIssueStatus(model.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to create status: %w", err)
	}

	location, err := vo.NewCoordinates(model.Lat, model.Lng)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinates: %w", err)
	}

	entity, err := issue.ReconstructIssue(issue.ReconstructParams{
		ID:          model.ID,
		ReporterID:  model.ReporterID,
		Category:    category,
		Subcategory: deref(model.Subcategory),
		Title:       model.Title,
		Description: deref(model.Description),
		Location:    location,
		Address:     deref(model.Address),
		Status:      status,
		BeforeImage: deref(model.BeforeImage),
		AfterImage:  model.AfterImage,
		AIScore:     model.AIScore,
		ReportCount: model.ReportCount,
		CreatedAt:   FromMillis(model.CreatedAt),
		UpdatedAt:   FromMillis(model.UpdatedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct issue entity: %w", err)
	}

	return entity, nil
}

func (m *IssueMapperImpl) ToModel(entity *issue.Issue) *models.IssueModel {
	if entity == nil {
		return nil
	}

	return &models.IssueModel{
		ID:          entity.ID(),
		ReporterID:  entity.ReporterID(),
		Category:    entity.Category().String(),
		Subcategory: nilIfEmpty(entity.Subcategory()),
		Title:       entity.Title(),
		Description: nilIfEmpty(entity.Description()),
		Lat:         entity.Location().Lat(),
		Lng:         entity.Location().Lng(),
		Address:     nilIfEmpty(entity.Address()),
		Status:      entity.Status().String(),
		BeforeImage: nilIfEmpty(entity.BeforeImage()),
		AfterImage:  entity.AfterImage(),
		AIScore:     entity.AIScore(),
		ReportCount: entity.ReportCount(),
		CreatedAt:   entity.CreatedAt().UnixMilli(),
		UpdatedAt:   entity.UpdatedAt().UnixMilli(),
	}
}

func (m *IssueMapperImpl) ToEntities(modelList []*models.IssueModel) ([]*issue.Issue, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.IssueModel) string { return model.ID })
}

// FromMillis converts a stored unix-millisecond timestamp to UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
