package esq

import (
	"fmt"
	"html"
	"strings"
)

// Digest is one grouped email body covering all submissions for one
// subject within a fetch window.
type Digest struct {
	SubjectID         string
	Recipient         string
	HTMLBody          string
	SourceRecordCount int
}

// RecipientResolver maps subject identifiers to approved addresses,
// falling back to a default mailbox. Lookup is case-insensitive and
// whitespace-trimmed on both sides. An empty table bypasses the lookup
// entirely (degraded/test deployments).
type RecipientResolver struct {
	table    map[string]string
	fallback string
}

// NewRecipientResolver normalizes the approved-recipients table.
func NewRecipientResolver(approved map[string]string, fallback string) *RecipientResolver {
	table := make(map[string]string, len(approved))
	for id, addr := range approved {
		table[normalizeID(id)] = strings.TrimSpace(addr)
	}
	return &RecipientResolver{table: table, fallback: fallback}
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Resolve returns the approved address for a subject identifier, or the
// default mailbox when the identifier is not in the table.
func (r *RecipientResolver) Resolve(subjectID string) string {
	if addr, ok := r.table[normalizeID(subjectID)]; ok && addr != "" {
		return addr
	}
	return r.fallback
}

// BuildDigests groups flat records by subject identifier, in first-seen
// order, and renders one HTML body per subject. Section order within a
// digest follows record production order (submission time descending).
func BuildDigests(records []*Record, resolver *RecipientResolver) []*Digest {
	groups := make(map[string][]*Record)
	order := make([]string, 0)

	for _, rec := range records {
		if _, seen := groups[rec.SubjectID]; !seen {
			order = append(order, rec.SubjectID)
		}
		groups[rec.SubjectID] = append(groups[rec.SubjectID], rec)
	}

	digests := make([]*Digest, 0, len(order))
	for _, subjectID := range order {
		group := groups[subjectID]
		digests = append(digests, &Digest{
			SubjectID:         subjectID,
			Recipient:         resolver.Resolve(subjectID),
			HTMLBody:          renderBody(subjectID, group),
			SourceRecordCount: len(group),
		})
	}
	return digests
}

// renderBody concatenates one section per record, separated by a
// horizontal rule and prefixed by a header naming the subject.
func renderBody(subjectID string, group []*Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>ESQ besvarelser for %s</h2>\n", html.EscapeString(subjectID))

	for i, rec := range group {
		if i > 0 {
			b.WriteString("<hr>\n")
		}
		b.WriteString(renderSection(rec))
	}
	return b.String()
}

// renderSection renders one record as a key/value table. The row set
// follows the record's mapping columns, so the parent variant carries the
// parent's own identity rows and the average row is always last. The
// serial is an export concern and stays out of the email.
func renderSection(rec *Record) string {
	var b strings.Builder
	b.WriteString(`<table border="1" cellpadding="5" cellspacing="0" style="border-collapse: collapse;">` + "\n")
	for _, label := range rec.Columns {
		if label == ColSerial {
			continue
		}
		fmt.Fprintf(&b, "  <tr><td><strong>%s</strong></td><td>%s</td></tr>\n",
			html.EscapeString(label), html.EscapeString(rec.Get(label)))
	}
	b.WriteString("</table>\n")
	return b.String()
}
