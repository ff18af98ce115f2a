package domains

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/google/uuid"

	"mbu/esqsync/internal/domains/common"
	"mbu/esqsync/internal/domains/common/job"
	"mbu/esqsync/pkg/errorutil"
	"mbu/esqsync/pkg/lmstfyx"
	"mbu/esqsync/pkg/logger"
)

// failRecord is what a soft-failed item looks like on the fail queue:
// enough context for manual follow-up.
type failRecord struct {
	Reference string          `json:"reference"`
	Reason    string          `json:"reason"`
	Payload   json.RawMessage `json:"payload"`
}

// GetProcess returns the work-item processing function injected into the
// Processor. One item's failure never aborts the batch: every outcome
// maps to an ack, a fail-queue routing or a TTR release.
func GetProcess(log logger.Logger, deps *common.Deps) lmstfyx.Proc {
	return func(ctx context.Context, lmstfyJob *client.Job) *lmstfyx.JobResp {
		startTime := time.Now()

		standardJob, meta, bizPayload, err := parseJob(ctx, lmstfyJob, log)
		if err != nil {
			log.Errorf(ctx, "[GetProcess] parseJob failed: %v", err)
			return buryResp(lmstfyJob, "", fmt.Sprintf("unparseable work item: %v", err))
		}

		ctx = context.WithValue(ctx, "trace_id", meta.RequestID)
		ctx = context.WithValue(ctx, "action_type", meta.ActionType)

		log.Infof(ctx, "[GetProcess] Processing job: action_type=%s, request_id=%s, id=%s",
			meta.ActionType, meta.RequestID, meta.ID)

		handlerFunc, ok := HandlerMap[standardJob.Payload.Data.ActionType]
		if !ok {
			log.Errorf(ctx, "[GetProcess] handler not found for action_type: %s", meta.ActionType)
			return buryResp(lmstfyJob, meta.ID, "no handler for action_type "+meta.ActionType)
		}

		var resp *lmstfyx.JobResp
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf(ctx, "[GetProcess] handler panic: %v", r)
					resp = buryResp(lmstfyJob, meta.ID, fmt.Sprintf("handler panic: %v", r))
				}
			}()

			handler, err := handlerFunc(ctx, meta, bizPayload, deps)
			if err != nil {
				log.Errorf(ctx, "[GetProcess] handler creation failed: %v", err)
				resp = buryResp(lmstfyJob, meta.ID, err.Error())
				return
			}

			handlerResp := handler.GetProcess()
			resp = doJobReport(ctx, handlerResp.Error, meta, lmstfyJob, log)
		}()

		duration := time.Since(startTime)
		log.Infof(ctx, "[GetProcess] Processing complete: action=%d, duration=%v", resp.Action, duration)

		return resp
	}
}

// parseJob decodes the standard envelope.
func parseJob(ctx context.Context, lmstfyJob *client.Job, log logger.Logger) (*job.Job, *job.Meta, interface{}, error) {
	var standardJob job.Job
	if err := json.Unmarshal(lmstfyJob.Data, &standardJob); err != nil {
		return nil, nil, nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if standardJob.Payload == nil || standardJob.Payload.Data == nil {
		return nil, nil, nil, fmt.Errorf("invalid job structure: payload.data is nil")
	}

	data := standardJob.Payload.Data

	meta := &job.Meta{
		RequestID:  data.RequestID,
		ActionType: data.ActionType,
		ID:         data.ID,
	}

	if meta.RequestID == "" {
		meta.RequestID = uuid.New().String()
	}

	log.Debugf(ctx, "[parseJob] Parsed: action_type=%s, request_id=%s, id=%s",
		meta.ActionType, meta.RequestID, meta.ID)

	return &standardJob, meta, data.Data, nil
}

// doJobReport turns the handler outcome into a queue action. Soft
// (non-retryable) failures are buried to the fail queue; retryable ones
// are released for redelivery.
func doJobReport(
	ctx context.Context,
	procErr *errorutil.Error,
	meta *job.Meta,
	lmstfyJob *client.Job,
	log logger.Logger,
) *lmstfyx.JobResp {
	if procErr == nil {
		return &lmstfyx.JobResp{Action: lmstfyx.JobRespStatusSuccess}
	}
	if procErr.Retryable {
		log.Warnf(ctx, "[doJobReport] Retryable failure for %s: %s", meta.ID, procErr.Message)
		return &lmstfyx.JobResp{Action: lmstfyx.JobRespStatusRelease}
	}
	return buryResp(lmstfyJob, meta.ID, procErr.Message)
}

// buryResp builds a bury action carrying the fail record. A payload that
// is not valid JSON is embedded as a JSON string, so the record survives
// for manual follow-up even when the work item itself was garbage.
func buryResp(lmstfyJob *client.Job, reference, reason string) *lmstfyx.JobResp {
	payload := lmstfyJob.Data
	if !json.Valid(payload) {
		quoted, err := json.Marshal(string(payload))
		if err != nil {
			quoted = []byte(`""`)
		}
		payload = quoted
	}

	record := failRecord{
		Reference: reference,
		Reason:    reason,
		Payload:   json.RawMessage(payload),
	}

	data, err := json.Marshal(record)
	if err != nil {
		data = nil
	}

	return &lmstfyx.JobResp{
		Action: lmstfyx.JobRespStatusBury,
		Data:   data,
	}
}
