package mappers

import (
	"fmt"

	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/infrastructure/persistence/models"
	"github.com/civiclens/civiclens/internal/shared/mapper"
)

type AuditLedgerMapper interface {
	ToEntity(model *models.AuditLedgerModel) (*ledger.Entry, error)
	ToModel(entity *ledger.Entry) *models.AuditLedgerModel
	ToEntities(models []*models.AuditLedgerModel) ([]*ledger.Entry, error)
}

type AuditLedgerMapperImpl struct{}

func NewAuditLedgerMapper() AuditLedgerMapper {
	return &AuditLedgerMapperImpl{}
}

func (m *AuditLedgerMapperImpl) ToEntity(model *models.AuditLedgerModel) (*ledger.Entry, error) {
	if model == nil {
		return nil, nil
	}

	action := ledger.Action(model.Action)
	if !action.IsValid() {
		return nil, fmt.Errorf("unknown ledger action %q", model.Action)
	}

	newStatus, err := vo.NewIssueStatus(model.NewStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to create new status: %w", err)
	}

	var prevStatus *vo.IssueStatus
	if model.PrevStatus != nil {
		prev, err := vo.NewIssueStatus(*model.PrevStatus)
		if err != nil {
			return nil, fmt.Errorf("failed to create previous status: %w", err)
		}
		prevStatus = &prev
	}

	return ledger.ReconstructEntry(
		model.ID,
		model.IssueID,
		action,
		prevStatus,
		newStatus,
		model.ActorID,
		map[string]any(model.Metadata),
		FromMillis(model.CreatedAt),
	), nil
}

func (m *AuditLedgerMapperImpl) ToModel(entity *ledger.Entry) *models.AuditLedgerModel {
	if entity == nil {
		return nil
	}

	var prev *string
	if p := entity.PrevStatus(); p != nil {
		s := p.String()
		prev = &s
	}

	return &models.AuditLedgerModel{
		ID:         entity.ID(),
		IssueID:    entity.IssueID(),
		Action:     entity.Action().String(),
		PrevStatus: prev,
		NewStatus:  entity.NewStatus().String(),
		ActorID:    entity.ActorID(),
		Metadata:   entity.Metadata(),
		CreatedAt:  entity.Timestamp().UnixMilli(),
	}
}

func (m *AuditLedgerMapperImpl) ToEntities(modelList []*models.AuditLedgerModel) ([]*ledger.Entry, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.AuditLedgerModel) uint64 { return model.ID })
}
