package gateway

import (
	"context"

	"gorm.io/gorm"
)

type TableHealth struct {
	Exists   bool   `json:"exists"`
	CanRead  bool   `json:"canRead"`
	CanWrite bool   `json:"canWrite"`
	Error    string `json:"error,omitempty"`
}

type HealthSummary struct {
	AllTablesExist bool `json:"allTablesExist"`
	AllCanRead     bool `json:"allCanRead"`
	AllCanWrite    bool `json:"allCanWrite"`
}

type HealthReport struct {
	Success bool                   `json:"success"`
	Tables  map[string]TableHealth `json:"tables"`
	Summary HealthSummary          `json:"summary"`
	Error   string                 `json:"error,omitempty"`
}

func summarize(tables map[string]TableHealth) HealthReport {
	summary := HealthSummary{AllTablesExist: true, AllCanRead: true, AllCanWrite: true}
	for _, t := range tables {
		summary.AllTablesExist = summary.AllTablesExist && t.Exists
		summary.AllCanRead = summary.AllCanRead && t.CanRead
		summary.AllCanWrite = summary.AllCanWrite && t.CanWrite
	}
	return HealthReport{
		Success: summary.AllTablesExist && summary.AllCanRead && summary.AllCanWrite,
		Tables:  tables,
		Summary: summary,
	}
}

// probeTable checks one table independently of the others. The write probe
// is an UPDATE that matches no rows, so it needs write permission but
// changes nothing.
func probeTable(ctx context.Context, db *gorm.DB, table string) TableHealth {
	var result TableHealth

	db = db.WithContext(ctx)
	result.Exists = db.Migrator().HasTable(table)
	if !result.Exists {
		return result
	}

	var count int64
	if err := db.Table(table).Limit(1).Count(&count).Error; err != nil {
		result.Error = err.Error()
		return result
	}
	result.CanRead = true

	if err := db.Table(table).Where("1 = 0").Update("id", gorm.Expr("id")).Error; err != nil {
		result.Error = err.Error()
		return result
	}
	result.CanWrite = true

	return result
}
