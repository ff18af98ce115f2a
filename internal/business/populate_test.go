package business

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbu/esqsync/internal/domains/common/job"
	"mbu/esqsync/internal/esq"
	"mbu/esqsync/pkg/config"
	"mbu/esqsync/pkg/logger"
)

type fakeSource struct {
	subs []*esq.Submission
}

func (f *fakeSource) FetchByDate(ctx context.Context, formType string, date time.Time) ([]*esq.Submission, error) {
	return f.subs, nil
}

func (f *fakeSource) FetchRange(ctx context.Context, formType string, start, end time.Time) ([]*esq.Submission, error) {
	return f.subs, nil
}

func (f *fakeSource) FetchAll(ctx context.Context, formType string) ([]*esq.Submission, error) {
	return f.subs, nil
}

type fakePublisher struct {
	published [][]byte
}

func (f *fakePublisher) Publish(queue string, data []byte, ttl, delay uint32) error {
	f.published = append(f.published, data)
	return nil
}

type fakeDedup struct {
	claimed map[string]bool
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{claimed: make(map[string]bool)}
}

func (f *fakeDedup) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.claimed[key] {
		return false, nil
	}
	f.claimed[key] = true
	return true, nil
}

func populateConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Survey.FormType = "esq"
	cfg.Lmstfy.Queue = "esq_digest_queue"
	cfg.Digest.DefaultMailbox = "fallback@example.dk"
	cfg.Digest.Subject = "Nye ESQ besvarelser"
	cfg.Digest.DedupTTL = 48 * time.Hour
	return cfg
}

func submission(serial, role, cpr string) *esq.Submission {
	return &esq.Submission{
		Serial: serial,
		Answers: esq.AnswerSet{
			esq.QuestionRole:  role,
			esq.KeySubjectCPR: cpr,
			"esq_01":          4.0,
		},
	}
}

func TestPopulateRun(t *testing.T) {
	source := &fakeSource{subs: []*esq.Submission{
		submission("1", string(esq.RoleSelf), "1111111111"),
		submission("2", string(esq.RoleParent), "1111111111"),
		submission("3", string(esq.RoleSelf), "2222222222"),
	}}
	pub := &fakePublisher{}
	dedup := newFakeDedup()

	svc := NewPopulateService(source, pub, dedup, populateConfig(), logger.Nop())

	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Run(context.Background(), date))

	// Two subjects, one work item each.
	require.Len(t, pub.published, 2)

	var envelope job.Job
	require.NoError(t, json.Unmarshal(pub.published[0], &envelope))
	require.NotNil(t, envelope.Payload)
	require.NotNil(t, envelope.Payload.Data)

	assert.Equal(t, job.ActionTypeDigest, envelope.Payload.Data.ActionType)
	assert.NotEmpty(t, envelope.Payload.Data.RequestID)

	raw, err := json.Marshal(envelope.Payload.Data.Data)
	require.NoError(t, err)
	var digest job.DigestData
	require.NoError(t, json.Unmarshal(raw, &digest))

	assert.Equal(t, "1111111111", digest.SubjectID)
	assert.Equal(t, "fallback@example.dk", digest.Recipient)
	assert.Equal(t, "Nye ESQ besvarelser", digest.Subject)
	assert.Equal(t, 2, digest.RecordCount)
	assert.Contains(t, digest.HTMLBody, "1111111111")
}

func TestPopulateRunDedup(t *testing.T) {
	source := &fakeSource{subs: []*esq.Submission{
		submission("1", string(esq.RoleSelf), "1111111111"),
	}}
	pub := &fakePublisher{}
	dedup := newFakeDedup()

	svc := NewPopulateService(source, pub, dedup, populateConfig(), logger.Nop())

	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Run(context.Background(), date))
	require.Len(t, pub.published, 1)

	// Re-running the same window enqueues nothing new.
	require.NoError(t, svc.Run(context.Background(), date))
	assert.Len(t, pub.published, 1)

	// A different window is a fresh claim.
	require.NoError(t, svc.Run(context.Background(), date.AddDate(0, 0, 1)))
	assert.Len(t, pub.published, 2)
}

func TestDedupKey(t *testing.T) {
	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "esq:digest:2026-03-05:1111111111", dedupKey(date, " 1111111111 "))
	assert.Equal(t, dedupKey(date, "AB12"), dedupKey(date, "ab12"))
}
