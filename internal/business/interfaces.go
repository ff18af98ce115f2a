package business

import (
	"context"
	"time"

	"mbu/esqsync/internal/esq"
	"mbu/esqsync/pkg/infra/sharepoint"
)

// SubmissionSource queries the read-only forms database.
type SubmissionSource interface {
	FetchByDate(ctx context.Context, formType string, date time.Time) ([]*esq.Submission, error)
	FetchRange(ctx context.Context, formType string, start, end time.Time) ([]*esq.Submission, error)
	FetchAll(ctx context.Context, formType string) ([]*esq.Submission, error)
}

// Publisher enqueues work items.
type Publisher interface {
	Publish(queue string, data []byte, ttl, delay uint32) error
}

// DedupRegistry claims enqueue dedup keys.
type DedupRegistry interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// DocumentStore is the file store holding the export spreadsheets.
type DocumentStore interface {
	ListFiles(ctx context.Context, folder string) ([]sharepoint.FileInfo, error)
	FetchFileBytes(ctx context.Context, folder, name string) ([]byte, error)
	UploadBytes(ctx context.Context, folder, name string, data []byte) error
	AppendRows(ctx context.Context, folder, name, sheet string, rows []map[string]string) error
	FormatAndSort(ctx context.Context, folder, name, sheet string, spec sharepoint.FormatSpec) error
}
