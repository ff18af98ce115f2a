package domains

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bitleak/lmstfy/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbu/esqsync/internal/domains/common"
	"mbu/esqsync/internal/domains/common/job"
	"mbu/esqsync/pkg/logger"
	"mbu/esqsync/pkg/lmstfyx"
)

type fakeMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to, from, subject, textBody, htmlBody string
}

func (f *fakeMailer) Send(to, from, subject, textBody, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, from, subject, textBody, htmlBody})
	return nil
}

func digestJobBytes(t *testing.T) []byte {
	t.Helper()
	envelope := job.NewDigestJob("req-1", &job.DigestData{
		SubjectID:   "1111111111",
		Recipient:   "trivsel@example.dk",
		Subject:     "Nye ESQ besvarelser",
		HTMLBody:    "<h2>ESQ besvarelser for 1111111111</h2>",
		RecordCount: 2,
	})
	data, err := json.Marshal(envelope)
	require.NoError(t, err)
	return data
}

func testDeps(m *fakeMailer) *common.Deps {
	return &common.Deps{
		Mailer:  m,
		Sender:  "noreply@example.dk",
		Subject: "Nye ESQ besvarelser",
	}
}

func TestProcessSuccess(t *testing.T) {
	mail := &fakeMailer{}
	proc := GetProcess(logger.Nop(), testDeps(mail))

	resp := proc(context.Background(), &client.Job{ID: "j1", Data: digestJobBytes(t)})

	assert.Equal(t, lmstfyx.JobRespStatusSuccess, resp.Action)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "trivsel@example.dk", mail.sent[0].to)
	assert.Equal(t, "noreply@example.dk", mail.sent[0].from)
	assert.Equal(t, "Nye ESQ besvarelser", mail.sent[0].subject)
	assert.Contains(t, mail.sent[0].htmlBody, "1111111111")
}

func TestProcessDispatchFailureBuries(t *testing.T) {
	mail := &fakeMailer{err: errors.New("smtp connect refused")}
	proc := GetProcess(logger.Nop(), testDeps(mail))

	payload := digestJobBytes(t)
	resp := proc(context.Background(), &client.Job{ID: "j1", Data: payload})

	require.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)

	// The fail record carries the reference, a reason and the original
	// payload for manual follow-up.
	var record failRecord
	require.NoError(t, json.Unmarshal(resp.Data, &record))
	assert.Equal(t, "1111111111", record.Reference)
	assert.Contains(t, record.Reason, "email dispatch failed")
	assert.JSONEq(t, string(payload), string(record.Payload))
}

func TestProcessUnknownActionType(t *testing.T) {
	envelope := job.NewDigestJob("req-1", &job.DigestData{
		SubjectID: "1111111111",
		Recipient: "trivsel@example.dk",
		HTMLBody:  "<p>x</p>",
	})
	envelope.Payload.Data.ActionType = "unknown_action"
	data, err := json.Marshal(envelope)
	require.NoError(t, err)

	mail := &fakeMailer{}
	proc := GetProcess(logger.Nop(), testDeps(mail))

	resp := proc(context.Background(), &client.Job{ID: "j1", Data: data})

	assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
	assert.Empty(t, mail.sent)
}

func TestProcessUnparseableItem(t *testing.T) {
	mail := &fakeMailer{}
	proc := GetProcess(logger.Nop(), testDeps(mail))

	for _, data := range [][]byte{
		[]byte(`not json`),
		[]byte(`{"payload": null}`),
		[]byte(`{"payload": {"data": null}}`),
	} {
		resp := proc(context.Background(), &client.Job{ID: "j1", Data: data})
		assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)

		// Even garbage payloads must reach manual follow-up: the fail
		// record carries them as a JSON string if need be.
		require.NotEmpty(t, resp.Data)
		var record failRecord
		require.NoError(t, json.Unmarshal(resp.Data, &record))
		assert.NotEmpty(t, record.Reason)
		assert.NotEmpty(t, record.Payload)
	}
	assert.Empty(t, mail.sent)
}

func TestProcessInvalidDigestData(t *testing.T) {
	// Missing recipient fails handler construction, not dispatch.
	envelope := job.NewDigestJob("req-1", &job.DigestData{
		SubjectID: "1111111111",
		HTMLBody:  "<p>x</p>",
	})
	data, err := json.Marshal(envelope)
	require.NoError(t, err)

	mail := &fakeMailer{}
	proc := GetProcess(logger.Nop(), testDeps(mail))

	resp := proc(context.Background(), &client.Job{ID: "j1", Data: data})

	assert.Equal(t, lmstfyx.JobRespStatusBury, resp.Action)
	assert.Empty(t, mail.sent)
}
