// Package digest dispatches one grouped ESQ email per work item.
package digest

import (
	"context"
	"encoding/json"
	"fmt"

	"mbu/esqsync/internal/domains/common"
	"mbu/esqsync/internal/domains/common/job"
	"mbu/esqsync/internal/domains/common/response"
	"mbu/esqsync/pkg/errorutil"
)

// Handler sends one digest email.
type Handler struct {
	ctx  context.Context
	meta *job.Meta
	data *job.DigestData
	deps *common.Deps
}

// NewHandler parses and validates the work item's digest data.
func NewHandler(ctx context.Context, meta *job.Meta, payload interface{}, deps *common.Deps) (common.HandlerServ, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload failed: %w", err)
	}

	var data job.DigestData
	if err := json.Unmarshal(payloadBytes, &data); err != nil {
		return nil, fmt.Errorf("unmarshal digest data failed: %w", err)
	}

	if data.Recipient == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	if data.HTMLBody == "" {
		return nil, fmt.Errorf("html_body is required")
	}

	return &Handler{
		ctx:  ctx,
		meta: meta,
		data: &data,
		deps: deps,
	}, nil
}

// GetProcess dispatches the email and wraps the outcome.
func (h *Handler) GetProcess() *response.Response {
	result := response.NewDispatchResult()
	result.Recipient = h.data.Recipient
	result.RecordCount = h.data.RecordCount

	err := h.process()

	resp := &response.Response{}
	resp.WrapResponse(result, h.meta, err)
	return resp
}

// process sends the email. A transport fault is a soft failure: the item
// goes to the fail queue for manual follow-up, never back into automatic
// retry.
func (h *Handler) process() error {
	subject := h.data.Subject
	if subject == "" {
		subject = h.deps.Subject
	}

	textBody := fmt.Sprintf("Der er %d nye ESQ besvarelser. Åbn HTML-visningen for detaljer.",
		h.data.RecordCount)

	if err := h.deps.Mailer.Send(h.data.Recipient, h.deps.Sender, subject, textBody, h.data.HTMLBody); err != nil {
		return errorutil.NonRetriableWithDetails("email dispatch failed", err.Error())
	}

	return nil
}
