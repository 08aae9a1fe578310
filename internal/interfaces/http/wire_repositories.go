package http

import (
	"gorm.io/gorm"

	"github.com/civiclens/civiclens/internal/domain/issue"
	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/domain/reputation"
	"github.com/civiclens/civiclens/internal/infrastructure/repository"
	"github.com/civiclens/civiclens/internal/shared/db"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

// repositories holds all repository instances used by the application.
type repositories struct {
	issueRepo  issue.Repository
	ledgerRepo ledger.Repository
	creditRepo reputation.Repository
	txManager  *db.TransactionManager
}

func newRepositories(gdb *gorm.DB, log logger.Interface) *repositories {
	return &repositories{
		issueRepo:  repository.NewIssueRepository(gdb, log),
		ledgerRepo: repository.NewAuditLedgerRepository(gdb),
		creditRepo: repository.NewCreditRepository(gdb),
		txManager:  db.NewTransactionManager(gdb),
	}
}
