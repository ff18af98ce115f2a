package domains

import (
	"mbu/esqsync/internal/domains/common"
	"mbu/esqsync/internal/domains/common/job"
	"mbu/esqsync/internal/domains/handlers/digest"
)

// HandlerMap routes work items by action type.
var HandlerMap = map[string]common.HandlerServProc{
	job.ActionTypeDigest: digest.NewHandler,
}
