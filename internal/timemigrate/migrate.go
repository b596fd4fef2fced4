package timemigrate

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNonexistentTimes aborts a run in which at least one row holds a wall
// clock with no equivalent in the target zone. Nothing is written; the
// report lists every offending row so they can all be fixed in one pass.
var ErrNonexistentTimes = errors.New("nonexistent_times")

var errDryRun = errors.New("dry_run")

// Failure is one unconvertible row.
type Failure struct {
	Table  string    `json:"table"`
	Column string    `json:"column"`
	RowID  string    `json:"row_id"`
	Value  time.Time `json:"value"`
}

type Report struct {
	Scanned   int       `json:"scanned"`
	Converted int       `json:"converted"`
	Failures  []Failure `json:"failures,omitempty"`
}

// target is one table whose timestamp columns get rewritten.
type target struct {
	table   string
	columns []string
}

var targets = []target{
	{"drinks", []string{"time"}},
	{"kegs", []string{"start_time", "end_time"}},
	{"sessions", []string{"start_time", "end_time"}},
	{"session_chunks", []string{"start_time", "end_time"}},
	{"session_user_chunks", []string{"start_time", "end_time"}},
	{"session_keg_chunks", []string{"start_time", "end_time"}},
	{"system_events", []string{"time"}},
	{"thermo_logs", []string{"time"}},
}

// timedRow is the superset of timestamp columns across all targets;
// columns absent from a table's select stay nil.
type timedRow struct {
	ID        int64      `gorm:"column:id"`
	Time      *time.Time `gorm:"column:time"`
	StartTime *time.Time `gorm:"column:start_time"`
	EndTime   *time.Time `gorm:"column:end_time"`
}

type Migrator struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewMigrator(db *gorm.DB, log *zap.Logger) *Migrator {
	return &Migrator{db: db, log: log.Named("timemigrate")}
}

// Run converts every timestamp column in every target table. The whole
// run is one transaction: it commits only when apply is set and every row
// converted cleanly. With apply unset the transaction always rolls back
// and the report describes what would change.
func (m *Migrator) Run(ctx context.Context, conv *Converter, apply bool) (*Report, error) {
	report := &Report{}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range targets {
			if err := m.migrateTable(ctx, tx, conv, t, report); err != nil {
				return err
			}
		}
		if len(report.Failures) > 0 {
			return ErrNonexistentTimes
		}
		if !apply {
			return errDryRun
		}
		return nil
	})
	if errors.Is(err, errDryRun) {
		return report, nil
	}
	if err != nil {
		return report, err
	}
	m.log.Info("timestamps migrated",
		zap.Int("scanned", report.Scanned),
		zap.Int("converted", report.Converted))
	return report, nil
}

func (m *Migrator) migrateTable(ctx context.Context, tx *gorm.DB, conv *Converter, t target, report *Report) error {
	cols := append([]string{"id"}, t.columns...)
	var rows []timedRow
	if err := tx.WithContext(ctx).Table(t.table).Select(cols).Find(&rows).Error; err != nil {
		return err
	}

	for _, row := range rows {
		report.Scanned++
		updates := map[string]interface{}{}
		for _, col := range t.columns {
			val := row.column(col)
			if val == nil || val.IsZero() {
				continue
			}
			converted, err := conv.Convert(*val)
			if err != nil {
				report.Failures = append(report.Failures, Failure{
					Table:  t.table,
					Column: col,
					RowID:  row.rowID(),
					Value:  *val,
				})
				continue
			}
			if !converted.Equal(*val) {
				updates[col] = converted
			}
		}
		if len(updates) == 0 {
			continue
		}
		if err := tx.WithContext(ctx).Table(t.table).
			Where("id = ?", row.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		report.Converted++
	}
	return nil
}

func (r timedRow) column(name string) *time.Time {
	switch name {
	case "time":
		return r.Time
	case "start_time":
		return r.StartTime
	case "end_time":
		return r.EndTime
	default:
		return nil
	}
}

func (r timedRow) rowID() string {
	return strconv.FormatInt(r.ID, 10)
}
