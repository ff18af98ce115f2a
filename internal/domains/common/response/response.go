package response

import (
	"mbu/esqsync/internal/domains/common/job"
	"mbu/esqsync/pkg/errorutil"
)

// ResultI is the business result of one work item.
type ResultI interface {
	// Set attaches metadata and the processing error.
	Set(meta *job.Meta, err error)

	// GetStatus returns the result status.
	GetStatus() string
}

// Response is the uniform processing outcome.
type Response struct {
	Error     *errorutil.Error `json:"error"`
	Result    ResultI          `json:"result"`
	Processed bool             `json:"processed"`
	Meta      interface{}      `json:"meta"`
}

// WrapResponse fills the response from a result and error.
func (r *Response) WrapResponse(result ResultI, meta *job.Meta, err error) {
	result.Set(meta, err)

	if err == nil {
		r.Processed = true
	}
	r.Meta = meta
	r.Error = errorutil.Wrap(err)
	r.Result = result
}
