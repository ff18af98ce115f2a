package business

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mbu/esqsync/internal/domains/common/job"
	"mbu/esqsync/internal/esq"
	"mbu/esqsync/pkg/config"
	"mbu/esqsync/pkg/logger"
)

// PopulateService runs the population phase: fetch one day's
// submissions, map them, group them into per-subject digests and enqueue
// one work item per digest.
type PopulateService struct {
	source   SubmissionSource
	pub      Publisher
	dedup    DedupRegistry
	resolver *esq.RecipientResolver
	cfg      *config.Config
	log      logger.Logger
}

// NewPopulateService creates the population service.
func NewPopulateService(
	source SubmissionSource,
	pub Publisher,
	dedup DedupRegistry,
	cfg *config.Config,
	log logger.Logger,
) *PopulateService {
	return &PopulateService{
		source:   source,
		pub:      pub,
		dedup:    dedup,
		resolver: esq.NewRecipientResolver(cfg.Digest.Recipients, cfg.Digest.DefaultMailbox),
		cfg:      cfg,
		log:      log,
	}
}

// Run populates the queue for one fetch window (a single submission
// date). A fetch failure is fatal; per-submission faults are skipped
// inside the transform step. Re-running the same window is safe: the
// dedup registry rejects subjects that were already enqueued.
func (s *PopulateService) Run(ctx context.Context, date time.Time) error {
	s.log.Infof(ctx, "[Populate] Fetching submissions for %s", date.Format("2006-01-02"))

	subs, err := s.source.FetchByDate(ctx, s.cfg.Survey.FormType, date)
	if err != nil {
		return fmt.Errorf("fetch submissions failed: %w", err)
	}

	records := esq.TransformAll(ctx, subs, s.log)
	digests := esq.BuildDigests(records, s.resolver)

	s.log.Infof(ctx, "[Populate] %d submissions -> %d records -> %d digests",
		len(subs), len(records), len(digests))

	enqueued := 0
	for _, digest := range digests {
		claimed, err := s.dedup.Claim(ctx, dedupKey(date, digest.SubjectID), s.cfg.Digest.DedupTTL)
		if err != nil {
			return fmt.Errorf("dedup claim failed: %w", err)
		}
		if !claimed {
			s.log.Infof(ctx, "[Populate] Digest for %s already enqueued for this window, skipping",
				digest.SubjectID)
			continue
		}

		envelope := job.NewDigestJob(uuid.New().String(), &job.DigestData{
			SubjectID:   digest.SubjectID,
			Recipient:   digest.Recipient,
			Subject:     s.cfg.Digest.Subject,
			HTMLBody:    digest.HTMLBody,
			RecordCount: digest.SourceRecordCount,
		})

		data, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("marshal work item failed: %w", err)
		}

		if err := s.pub.Publish(s.cfg.Lmstfy.Queue, data, 0, 0); err != nil {
			return fmt.Errorf("enqueue digest for %s failed: %w", digest.SubjectID, err)
		}

		s.log.Infof(ctx, "[Populate] Enqueued digest: subject=%s, records=%d, recipient=%s",
			digest.SubjectID, digest.SourceRecordCount, digest.Recipient)
		enqueued++
	}

	s.log.Infof(ctx, "[Populate] Done, %d work items enqueued", enqueued)
	return nil
}

// dedupKey scopes a digest claim to its fetch window and subject.
func dedupKey(date time.Time, subjectID string) string {
	return fmt.Sprintf("esq:digest:%s:%s", date.Format("2006-01-02"),
		strings.ToLower(strings.TrimSpace(subjectID)))
}
