package esq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mbu/esqsync/pkg/logger"
)

func selfSubmission(serial, cpr string) *Submission {
	return &Submission{
		Serial: serial,
		Answers: AnswerSet{
			QuestionRole:  string(RoleSelf),
			KeySubjectCPR: cpr,
			KeySubjectNam: "Test Barn",
			"esq_01":      4.0,
			"esq_02":      2.0,
		},
	}
}

func TestAverage(t *testing.T) {
	keys := []string{"q1", "q2", "q3", "q4"}

	answers := AnswerSet{
		"q1": 4.0,
		"q2": nil,
		"q3": "n/a",
		"q4": 2.0,
	}

	avg, ok := Average(answers, keys)
	require.True(t, ok)
	assert.Equal(t, 3.0, avg)
}

func TestAverageAllMissing(t *testing.T) {
	keys := []string{"q1", "q2"}

	_, ok := Average(AnswerSet{"q1": "n/a"}, keys)
	assert.False(t, ok)

	_, ok = Average(AnswerSet{}, keys)
	assert.False(t, ok)
}

func TestTransformSelfReport(t *testing.T) {
	sub := selfSubmission("4711", "1111111111")

	rec, err := Transform(sub.Serial, sub, MappingFor(RoleSelf))
	require.NoError(t, err)

	assert.Equal(t, "4711", rec.Serial)
	assert.Equal(t, "1111111111", rec.SubjectID)
	assert.Equal(t, RoleSelf, rec.Role)

	// Column order follows the mapping: serial first, average last.
	require.NotEmpty(t, rec.Columns)
	assert.Equal(t, ColSerial, rec.Columns[0])
	assert.Equal(t, ColAverage, rec.Columns[len(rec.Columns)-1])

	assert.Equal(t, "4711", rec.Get(ColSerial))
	assert.Equal(t, "Test Barn", rec.Get("Barnets navn"))
	assert.Equal(t, "4", rec.Get("Spørgsmål 1"))
	assert.Equal(t, "3.0", rec.Get(ColAverage))

	// Missing answers yield empty values, never errors.
	assert.Equal(t, "", rec.Get("Spørgsmål 10"))

	// Self-report mapping carries no parent identity columns.
	assert.NotContains(t, rec.Columns, "Forælders navn")
}

func TestTransformParentReport(t *testing.T) {
	sub := &Submission{
		Serial: "4712",
		Answers: AnswerSet{
			QuestionRole:  string(RoleParent),
			KeySubjectCPR: "1111111111",
			KeySubjectNam: "Test Barn",
			KeyParentNam:  "Test Forælder",
			KeyParentCPR:  "2222222222",
			"esq_01":      5.0,
		},
	}

	rec, err := Transform(sub.Serial, sub, MappingFor(RoleParent))
	require.NoError(t, err)

	assert.Equal(t, RoleParent, rec.Role)
	assert.Contains(t, rec.Columns, "Forælders navn")
	assert.Equal(t, "Test Forælder", rec.Get("Forælders navn"))
	assert.Equal(t, "2222222222", rec.Get("Forælders CPR-nummer"))
	assert.Equal(t, "5.0", rec.Get(ColAverage))
}

func TestTransformMissingSubject(t *testing.T) {
	sub := &Submission{
		Serial: "4713",
		Answers: AnswerSet{
			QuestionRole: string(RoleSelf),
		},
	}

	_, err := Transform(sub.Serial, sub, MappingFor(RoleSelf))
	assert.ErrorContains(t, err, "subject identifier")
}

func TestTransformAllFiltersUnknownRoles(t *testing.T) {
	subs := []*Submission{
		selfSubmission("1", "1111111111"),
		{
			Serial: "2",
			Answers: AnswerSet{
				QuestionRole:  "Lærer",
				KeySubjectCPR: "1111111111",
			},
		},
		{
			// Malformed: no subject identifier. Skipped, not fatal.
			Serial:  "3",
			Answers: AnswerSet{QuestionRole: string(RoleSelf)},
		},
	}

	records := TransformAll(context.Background(), subs, logger.Nop())
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0].Serial)
}

func TestTransformRole(t *testing.T) {
	subs := []*Submission{
		selfSubmission("1", "1111111111"),
		{
			Serial: "2",
			Answers: AnswerSet{
				QuestionRole:  string(RoleParent),
				KeySubjectCPR: "1111111111",
			},
		},
	}

	records := TransformRole(context.Background(), subs, RoleParent, logger.Nop())
	require.Len(t, records, 1)
	assert.Equal(t, "2", records[0].Serial)
	assert.Equal(t, RoleParent, records[0].Role)
}
