package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/infrastructure/migration"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	m, err := migration.NewMigrator(gdb, "sqlite", logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, m.Up(context.Background()))

	return gdb
}

type issueOpt func(p *issue.NewIssueParams)

func withImage(url string) issueOpt {
	return func(p *issue.NewIssueParams) { p.BeforeImage = url }
}

func withCategory(c vo.Category) issueOpt {
	return func(p *issue.NewIssueParams) { p.Category = c }
}

func newTestIssue(t *testing.T, lat, lng float64, now time.Time, opts ...issueOpt) *issue.Issue {
	t.Helper()

	loc, err := vo.NewCoordinates(lat, lng)
	require.NoError(t, err)

	p := issue.NewIssueParams{
		ReporterID: "reporter-1",
		Category:   vo.CategoryRoads,
		Title:      "Pothole on main road",
		Location:   loc,
	}
	for _, opt := range opts {
		opt(&p)
	}

	entity, err := issue.NewIssue(p, now)
	require.NoError(t, err)
	return entity
}
