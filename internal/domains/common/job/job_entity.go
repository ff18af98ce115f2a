package job

// ActionTypeDigest routes a work item to the digest dispatch handler.
const ActionTypeDigest = "esq_digest"

// Job is the standard work-item envelope.
type Job struct {
	Payload *JobPayload `json:"payload"`
}

// JobPayload is the envelope payload.
type JobPayload struct {
	Data *JobPayloadData `json:"data"`
}

// JobPayloadData carries the item's meta fields and business data.
type JobPayloadData struct {
	RequestID  string `json:"request_id"`  // trace id
	ActionType string `json:"action_type"` // routing key
	ID         string `json:"id"`          // business reference (subject id)

	Data interface{} `json:"data"` // business data

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Meta is the extracted item metadata.
type Meta struct {
	RequestID  string
	ActionType string
	ID         string
}

// DigestData is the business data of one digest work item: everything
// the dispatch phase needs to send the email without touching the
// database again.
type DigestData struct {
	SubjectID   string `json:"subject_id"`
	Recipient   string `json:"recipient"`
	Subject     string `json:"subject"`
	HTMLBody    string `json:"html_body"`
	RecordCount int    `json:"record_count"`
}

// NewDigestJob wraps digest data in the standard envelope. The subject
// identifier doubles as the work-item reference.
func NewDigestJob(requestID string, data *DigestData) *Job {
	return &Job{
		Payload: &JobPayload{
			Data: &JobPayloadData{
				RequestID:  requestID,
				ActionType: ActionTypeDigest,
				ID:         data.SubjectID,
				Data:       data,
			},
		},
	}
}
