package models

import "github.com/civiclens/civiclens/internal/shared/constants"

// IssueModel stores timestamps as unix milliseconds.
type IssueModel struct {
	ID          string  `gorm:"primaryKey;size:36"`
	ReporterID  string  `gorm:"size:36;not null;index"`
	Category    string  `gorm:"size:32;not null"`
	Subcategory *string `gorm:"size:64"`
	Title       string  `gorm:"size:200;not null"`
	Description *string `gorm:"type:text"`
	Lat         float64 `gorm:"not null"`
	Lng         float64 `gorm:"not null"`
	Address     *string `gorm:"size:512"`
	Status      string  `gorm:"size:32;not null"`
	BeforeImage *string `gorm:"size:1024"`
	AfterImage  *string `gorm:"size:1024"`
	AIScore     *float64
	ReportCount int   `gorm:"not null;default:1"`
	CreatedAt   int64 `gorm:"autoCreateTime:false;not null"`
	UpdatedAt   int64 `gorm:"autoUpdateTime:false;not null"`
}

func (IssueModel) TableName() string {
	return constants.TableIssues
}
