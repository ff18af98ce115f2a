package esq

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mbu/esqsync/pkg/logger"
)

// Record is the flat, ordered representation of one submission under one
// mapping. Columns preserves the mapping's output order; the first column
// is always the submission serial, which the exports use as their dedup
// key.
type Record struct {
	Serial    string
	SubjectID string
	Role      Role
	Columns   []string
	Values    map[string]string
}

// Get returns the value of an output column, "" when absent.
func (r *Record) Get(label string) string {
	return r.Values[label]
}

// Average computes the arithmetic mean over the numeric answers among
// keys. Missing and non-numeric answers are excluded from both the sum
// and the count; ok is false when no eligible answer exists.
func Average(answers AnswerSet, keys []string) (float64, bool) {
	var sum float64
	var n int
	for _, key := range keys {
		v, numeric := answers.Number(key)
		if !numeric {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// FormatScore renders a derived average for display and export.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Transform applies one mapping to one submission and produces the flat
// record. Pure function: no side effects, missing answers become empty
// values. A submission without a subject identifier is malformed.
func Transform(serial string, sub *Submission, m *Mapping) (*Record, error) {
	if serial == "" {
		return nil, errors.New("missing serial")
	}

	rec := &Record{
		Serial:  serial,
		Role:    m.Role,
		Columns: m.Labels(),
		Values:  make(map[string]string, len(m.Entries)+8),
	}

	for _, e := range m.Entries {
		switch e.Kind {
		case KindCopy:
			if e.Label == ColSerial {
				rec.Values[ColSerial] = serial
				continue
			}
			rec.Values[e.Label] = sub.Answers.Text(e.Key)
		case KindAverage:
			if avg, ok := Average(sub.Answers, e.Keys); ok {
				rec.Values[e.Label] = FormatScore(avg)
			} else {
				rec.Values[e.Label] = ""
			}
		case KindTable:
			for _, f := range e.Fields {
				rec.Values[f.Label] = sub.Answers.Text(f.Key)
			}
		}
	}

	rec.SubjectID = strings.TrimSpace(rec.Values[ColSubjectCPR])
	if rec.SubjectID == "" {
		return nil, fmt.Errorf("submission %s missing subject identifier", serial)
	}

	return rec, nil
}

// TransformAll maps a fetched batch in arrival order. Submissions with an
// unrecognized role are filtered; malformed ones are logged with their
// serial and skipped. Neither aborts the batch.
func TransformAll(ctx context.Context, subs []*Submission, log logger.Logger) []*Record {
	records := make([]*Record, 0, len(subs))
	for _, sub := range subs {
		role, ok := sub.Role()
		if !ok {
			log.Debugf(ctx, "[Transform] Skipping submission %s: unrecognized role %q",
				sub.Serial, sub.Answers.Text(QuestionRole))
			continue
		}

		rec, err := Transform(sub.Serial, sub, MappingFor(role))
		if err != nil {
			log.Warnf(ctx, "[Transform] Skipping submission %s: %v", sub.Serial, err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// TransformRole maps only the submissions matching one role variant,
// preserving arrival order. Used by the monthly export sync.
func TransformRole(ctx context.Context, subs []*Submission, role Role, log logger.Logger) []*Record {
	records := make([]*Record, 0, len(subs))
	for _, sub := range subs {
		r, ok := sub.Role()
		if !ok || r != role {
			continue
		}

		rec, err := Transform(sub.Serial, sub, MappingFor(role))
		if err != nil {
			log.Warnf(ctx, "[Transform] Skipping submission %s: %v", sub.Serial, err)
			continue
		}
		records = append(records, rec)
	}
	return records
}
