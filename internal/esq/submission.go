// Package esq maps OS2Forms ESQ survey submissions into flat records,
// groups them into per-subject email digests and feeds the monthly
// spreadsheet exports.
package esq

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Role is the respondent category that selects the field mapping.
type Role string

const (
	// RoleSelf marks a submission filled in by the young person.
	RoleSelf Role = "Ung/selvbesvarelse"
	// RoleParent marks a submission filled in by a parent or foster parent.
	RoleParent Role = "Forælder (inklusiv plejeforældre)"
)

// QuestionRole is the answer key holding the self-declared respondent role.
const QuestionRole = "hvem_udfylder_spoergeskemaet"

// ParseRole recognizes the two role variants. Any other value means the
// submission is filtered out, not an error.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSelf:
		return RoleSelf, true
	case RoleParent:
		return RoleParent, true
	default:
		return "", false
	}
}

// ErrPurged marks a submission whose payload carries the purge marker.
var ErrPurged = errors.New("submission purged")

// AnswerSet is a schema-free lookup over one submission's answers.
// Missing keys yield zero values, never errors.
type AnswerSet map[string]interface{}

// Text returns the answer as a display string, "" when missing or null.
func (a AnswerSet) Text(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Number returns the numeric value of an answer. ok is false when the
// answer is missing, null or not numeric ("n/a", free text, empty).
func (a AnswerSet) Number(key string) (float64, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Submission is one fetched, parsed survey form instance.
type Submission struct {
	Serial      string
	SubmittedAt time.Time
	Answers     AnswerSet
}

// Role returns the self-declared respondent role answer.
func (s *Submission) Role() (Role, bool) {
	return ParseRole(s.Answers.Text(QuestionRole))
}

// payload mirrors the OS2Forms export structure: the entity block carries
// the serial, the data block the question-key -> answer map.
type payload struct {
	Entity struct {
		Serial []struct {
			Value string `json:"value"`
		} `json:"serial"`
	} `json:"entity"`
	Data map[string]interface{} `json:"data"`
}

// ParsePayload decodes one form_data JSON blob. A top-level "purged" key
// returns ErrPurged; a missing serial is a malformed submission.
func ParsePayload(raw []byte) (*Submission, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("invalid payload json: %w", err)
	}
	if _, purged := top["purged"]; purged {
		return nil, ErrPurged
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid payload structure: %w", err)
	}
	if len(p.Entity.Serial) == 0 || p.Entity.Serial[0].Value == "" {
		return nil, fmt.Errorf("payload missing serial")
	}
	if p.Data == nil {
		return nil, fmt.Errorf("payload missing data block")
	}

	return &Submission{
		Serial:  p.Entity.Serial[0].Value,
		Answers: AnswerSet(p.Data),
	}, nil
}
