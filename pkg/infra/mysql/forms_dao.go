package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"mbu/esqsync/internal/esq"
	"mbu/esqsync/pkg/logger"
)

// Form is one row of the journalizing forms table. The payload JSON is
// stored as-is; parsing happens on fetch.
type Form struct {
	FormID            string         `gorm:"column:form_id;primaryKey;type:varchar(64)"`
	FormType          string         `gorm:"column:form_type;type:varchar(64);not null;index:idx_type_submitted"`
	FormData          datatypes.JSON `gorm:"column:form_data;type:json"`
	FormSubmittedDate *time.Time     `gorm:"column:form_submitted_date;index:idx_type_submitted"`
}

// TableName names the table.
func (Form) TableName() string {
	return "forms"
}

// FormsDAO reads survey submissions. The table is never written.
type FormsDAO struct {
	db  *gorm.DB
	log logger.Logger
}

// NewFormsDAO connects to the forms database.
func NewFormsDAO(dsn string, log logger.Logger) (*FormsDAO, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &FormsDAO{db: db, log: log}, nil
}

// FetchByDate returns submissions of one form type submitted on an exact
// date, newest first.
func (dao *FormsDAO) FetchByDate(ctx context.Context, formType string, date time.Time) ([]*esq.Submission, error) {
	return dao.fetch(ctx, formType, "DATE(form_submitted_date) = ?", date.Format("2006-01-02"))
}

// FetchRange returns submissions of one form type within [start, end]
// (dates inclusive), newest first.
func (dao *FormsDAO) FetchRange(ctx context.Context, formType string, start, end time.Time) ([]*esq.Submission, error) {
	return dao.fetch(ctx, formType, "DATE(form_submitted_date) BETWEEN ? AND ?",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// FetchAll returns the full submission history for one form type,
// newest first.
func (dao *FormsDAO) FetchAll(ctx context.Context, formType string) ([]*esq.Submission, error) {
	return dao.fetch(ctx, formType, "")
}

// fetch runs the filtered query and parses the payloads. Rows with
// invalid JSON or a missing serial are logged and skipped; purged
// submissions are excluded silently. A query failure is fatal and
// propagates to the caller.
func (dao *FormsDAO) fetch(ctx context.Context, formType string, dateCond string, dateArgs ...interface{}) ([]*esq.Submission, error) {
	q := dao.db.WithContext(ctx).
		Where("form_type = ? AND form_data IS NOT NULL AND form_submitted_date IS NOT NULL", formType)
	if dateCond != "" {
		q = q.Where(dateCond, dateArgs...)
	}

	var rows []Form
	if err := q.Order("form_submitted_date DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query forms: %w", err)
	}

	subs := make([]*esq.Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := esq.ParsePayload(row.FormData)
		if err != nil {
			if errors.Is(err, esq.ErrPurged) {
				dao.log.Debugf(ctx, "[FormsDAO] Excluding purged submission, form_id=%s", row.FormID)
				continue
			}
			dao.log.Warnf(ctx, "[FormsDAO] Skipping form_id=%s: %v", row.FormID, err)
			continue
		}

		sub.SubmittedAt = *row.FormSubmittedDate
		subs = append(subs, sub)
	}

	if len(subs) == 0 {
		dao.log.Infof(ctx, "[FormsDAO] No submissions found for form_type=%s", formType)
	}

	return subs, nil
}

// Close closes the underlying connection pool.
func (dao *FormsDAO) Close() error {
	sqlDB, err := dao.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
