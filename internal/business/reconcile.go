package business

import (
	"context"
	"fmt"
	"time"

	"mbu/esqsync/internal/esq"
	"mbu/esqsync/pkg/config"
	"mbu/esqsync/pkg/infra/sharepoint"
	"mbu/esqsync/pkg/logger"
)

// exportFormat is the fixed formatting pass re-applied after every
// create or append: newest submissions on top, bold frozen header,
// left/top aligned cells of fixed width.
var exportFormat = sharepoint.FormatSpec{
	SortKeys:        []sharepoint.SortKey{{Column: "A", Ascending: false}},
	BoldRows:        []int{1},
	AlignHorizontal: "left",
	AlignVertical:   "top",
	ColumnWidth:     100,
	FreezePanes:     "A2",
}

// ReconcileService maintains the two persistent export spreadsheets, one
// per respondent role. It always performs its work when invoked; the
// first-of-month trigger gating belongs to the caller.
type ReconcileService struct {
	source SubmissionSource
	store  DocumentStore
	cfg    *config.Config
	log    logger.Logger
}

// NewReconcileService creates the reconciler.
func NewReconcileService(source SubmissionSource, store DocumentStore, cfg *config.Config, log logger.Logger) *ReconcileService {
	return &ReconcileService{
		source: source,
		store:  store,
		cfg:    cfg,
		log:    log,
	}
}

// ShouldRun reports whether now is the monthly trigger date.
func ShouldRun(now time.Time) bool {
	return now.Day() == 1
}

// PreviousMonth computes the prior calendar period: first through last
// day of the month before now.
func PreviousMonth(now time.Time) (start, end time.Time) {
	firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end = firstOfThis.AddDate(0, 0, -1)
	start = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
	return start, end
}

// Run reconciles both role exports against the submission history. An
// absent file is rebuilt from the full history; a present file gets the
// prior month's new records appended. Both paths end with the formatting
// pass.
func (s *ReconcileService) Run(ctx context.Context, now time.Time) error {
	start, end := PreviousMonth(now)
	folder := s.cfg.SharePoint.Folder
	sheet := s.cfg.SharePoint.Sheet

	files, err := s.store.ListFiles(ctx, folder)
	if err != nil {
		return fmt.Errorf("list export folder failed: %w", err)
	}
	existing := make(map[string]bool, len(files))
	for _, f := range files {
		existing[f.Name] = true
	}

	targets := []struct {
		role esq.Role
		file string
	}{
		{esq.RoleSelf, s.cfg.SharePoint.SelfReportFile},
		{esq.RoleParent, s.cfg.SharePoint.ParentReportFile},
	}

	for _, target := range targets {
		if target.file == "" {
			return fmt.Errorf("export file name for role %q is not configured", target.role)
		}

		if !existing[target.file] {
			if err := s.rebuild(ctx, target.role, target.file); err != nil {
				return err
			}
		} else {
			if err := s.appendNew(ctx, target.role, target.file, start, end); err != nil {
				return err
			}
		}

		if err := s.store.FormatAndSort(ctx, folder, target.file, sheet, exportFormat); err != nil {
			return fmt.Errorf("format %s failed: %w", target.file, err)
		}

		s.log.Infof(ctx, "[Reconcile] %s reconciled", target.file)
	}

	return nil
}

// rebuild creates a missing export file from the full submission
// history.
func (s *ReconcileService) rebuild(ctx context.Context, role esq.Role, file string) error {
	s.log.Infof(ctx, "[Reconcile] Export file %s not found, rebuilding from full history", file)

	subs, err := s.source.FetchAll(ctx, s.cfg.Survey.FormType)
	if err != nil {
		return fmt.Errorf("fetch history failed: %w", err)
	}

	records := esq.TransformRole(ctx, subs, role, s.log)

	header := esq.MappingFor(role).Labels()
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(header))
		for i, label := range header {
			row[i] = rec.Get(label)
		}
		rows = append(rows, row)
	}

	data, err := sharepoint.BuildWorkbook(s.cfg.SharePoint.Sheet, header, rows)
	if err != nil {
		return fmt.Errorf("build workbook for %s failed: %w", file, err)
	}

	if err := s.store.UploadBytes(ctx, s.cfg.SharePoint.Folder, file, data); err != nil {
		return fmt.Errorf("upload %s failed: %w", file, err)
	}

	s.log.Infof(ctx, "[Reconcile] Created %s with %d rows", file, len(rows))
	return nil
}

// appendNew appends the prior period's records to an existing export,
// skipping serials the sheet already holds so a mid-month re-run appends
// nothing twice.
func (s *ReconcileService) appendNew(ctx context.Context, role esq.Role, file string, start, end time.Time) error {
	s.log.Infof(ctx, "[Reconcile] Fetching submissions from %s to %s for %s",
		start.Format("2006-01-02"), end.Format("2006-01-02"), file)

	subs, err := s.source.FetchRange(ctx, s.cfg.Survey.FormType, start, end)
	if err != nil {
		return fmt.Errorf("fetch period failed: %w", err)
	}

	records := esq.TransformRole(ctx, subs, role, s.log)
	if len(records) == 0 {
		s.log.Infof(ctx, "[Reconcile] No new records for %s", file)
		return nil
	}

	seen, err := s.existingSerials(ctx, file)
	if err != nil {
		return err
	}

	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		if seen[rec.Serial] {
			s.log.Debugf(ctx, "[Reconcile] Serial %s already exported, skipping", rec.Serial)
			continue
		}
		rows = append(rows, rec.Values)
	}

	if len(rows) == 0 {
		s.log.Infof(ctx, "[Reconcile] All %d period records already present in %s", len(records), file)
		return nil
	}

	if err := s.store.AppendRows(ctx, s.cfg.SharePoint.Folder, file, s.cfg.SharePoint.Sheet, rows); err != nil {
		return fmt.Errorf("append to %s failed: %w", file, err)
	}

	s.log.Infof(ctx, "[Reconcile] Appended %d rows to %s", len(rows), file)
	return nil
}

// existingSerials reads the serial column (first column) of an export
// file.
func (s *ReconcileService) existingSerials(ctx context.Context, file string) (map[string]bool, error) {
	data, err := s.store.FetchFileBytes(ctx, s.cfg.SharePoint.Folder, file)
	if err != nil {
		return nil, fmt.Errorf("fetch %s failed: %w", file, err)
	}

	rows, err := sharepoint.SheetRows(data, s.cfg.SharePoint.Sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s failed: %w", file, err)
	}

	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		seen[row[0]] = true
	}
	return seen, nil
}
