package common

import (
	"context"

	"mbu/esqsync/internal/domains/common/job"
	"mbu/esqsync/internal/domains/common/response"
	"mbu/esqsync/pkg/mailer"
)

// Deps are the external collaborators injected into handlers.
type Deps struct {
	Mailer  mailer.Sender
	Sender  string // from address
	Subject string // default subject line
}

// HandlerServProc constructs a handler for one work item.
type HandlerServProc func(ctx context.Context, meta *job.Meta, payload interface{}, deps *Deps) (HandlerServ, error)

// HandlerServ processes one work item.
type HandlerServ interface {
	GetProcess() *response.Response
}
