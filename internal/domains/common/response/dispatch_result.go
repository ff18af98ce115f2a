package response

import "mbu/esqsync/internal/domains/common/job"

// Dispatch statuses.
const (
	DispatchStatusSent   = "SENT"
	DispatchStatusFailed = "FAILED"
)

// DispatchResult is the outcome of one digest email dispatch.
type DispatchResult struct {
	Status      string `json:"status"`
	SubjectID   string `json:"subject_id"`
	Recipient   string `json:"recipient"`
	RecordCount int    `json:"record_count"`
	Error       string `json:"error,omitempty"`
}

// NewDispatchResult creates an empty dispatch result.
func NewDispatchResult() *DispatchResult {
	return &DispatchResult{}
}

// Set implements ResultI.
func (r *DispatchResult) Set(meta *job.Meta, err error) {
	if meta != nil {
		r.SubjectID = meta.ID
	}
	if err != nil {
		r.Status = DispatchStatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = DispatchStatusSent
}

// GetStatus implements ResultI.
func (r *DispatchResult) GetStatus() string {
	return r.Status
}
