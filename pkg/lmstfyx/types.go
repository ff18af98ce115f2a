package lmstfyx

import (
	"context"

	"github.com/bitleak/lmstfy/client"
)

// Proc is the job-processing function injected into the Processor.
type Proc func(ctx context.Context, job *client.Job) *JobResp

// JobRespStatus tells the worker loop what to do with the item.
type JobRespStatus int

const (
	// JobRespStatusSuccess acks the item.
	JobRespStatusSuccess JobRespStatus = iota
	// JobRespStatusRelease leaves the item for redelivery after TTR.
	JobRespStatusRelease
	// JobRespStatusBury routes the item to the fail queue for manual
	// handling, then acks the original.
	JobRespStatusBury
)

// JobResp is the processing outcome of one work item.
type JobResp struct {
	Action JobRespStatus // what the worker loop should do
	Data   []byte        // response payload (fail-queue record or log data)
}
