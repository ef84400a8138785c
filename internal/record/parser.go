package record

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Labels recognized by the free-text parser. Matching is case-sensitive.
const (
	labelID        = "ID:"
	labelMessageID = "Message ID:"
	labelThreadID  = "Thread ID:"
	labelFrom      = "From:"
	labelSubject   = "Subject:"
	labelDate      = "Date:"
	labelBody      = "Body:"
)

var (
	reFenceOpen  = regexp.MustCompile("^```[a-zA-Z]*\n?")
	reFenceClose = regexp.MustCompile("```$")
	reBullet     = regexp.MustCompile(`^[-*\d.\s]*`)
	reBold       = regexp.MustCompile(`^\*\*|\*\*$`)
	reHexID      = regexp.MustCompile(`[a-fA-F0-9]{10,}`)
)

// Parse turns raw agent output into email records. The output shape is not
// under our control: a JSON array is tried first, then the labelled-text
// format. If neither yields records, the JSON error is returned so the
// caller can log the failure; it is never fatal.
func Parse(raw string) ([]Email, error) {
	text := StripFences(raw)

	records, jsonErr := ParseJSON(text)
	if jsonErr == nil {
		return records, nil
	}

	if records := ParseText(text); len(records) > 0 {
		return records, nil
	}
	return nil, fmt.Errorf("parse email records: %w", jsonErr)
}

// StripFences removes leading/trailing markdown code-block markers.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = reFenceOpen.ReplaceAllString(text, "")
		text = reFenceClose.ReplaceAllString(text, "")
	}
	return text
}

// jsonEmail accepts both "id" and "message_id" key spellings.
type jsonEmail struct {
	ID        string `json:"id"`
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Body      string `json:"body"`
}

// ParseJSON decodes a JSON array of email objects. Absent fields decode to
// empty strings; order is preserved.
func ParseJSON(text string) ([]Email, error) {
	var items []jsonEmail
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("decode email array: %w", err)
	}

	records := make([]Email, 0, len(items))
	for _, it := range items {
		id := it.MessageID
		if id == "" {
			id = it.ID
		}
		records = append(records, Email{
			MessageID: id,
			ThreadID:  it.ThreadID,
			From:      it.From,
			Subject:   it.Subject,
			Date:      it.Date,
			Body:      it.Body,
		})
	}
	return records, nil
}

// ParseText scans loosely formatted text for entry blocks separated by blank
// lines or separator rules. Within a block, recognized label prefixes fill
// the corresponding field and unlabeled lines accumulate into the body.
func ParseText(text string) []Email {
	var records []Email
	var current Email
	var bodyLines []string

	flush := func() {
		if current.MessageID == "" && current.Subject == "" && current.From == "" {
			current = Email{}
			bodyLines = nil
			return
		}
		current.Body = strings.TrimSpace(strings.Join(bodyLines, "\n"))
		records = append(records, current)
		current = Email{}
		bodyLines = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = reBullet.ReplaceAllString(line, "")
		line = reBold.ReplaceAllString(line, "")

		if line == "" || isSeparator(line) {
			flush()
			continue
		}

		switch {
		case strings.HasPrefix(line, labelID), strings.HasPrefix(line, labelMessageID):
			current.MessageID = extractMessageID(line)
		case strings.HasPrefix(line, labelThreadID):
			current.ThreadID = labelValue(line)
		case strings.HasPrefix(line, labelFrom):
			current.From = labelValue(line)
		case strings.HasPrefix(line, labelSubject):
			current.Subject = labelValue(line)
		case strings.HasPrefix(line, labelDate):
			current.Date = labelValue(line)
		case strings.HasPrefix(line, labelBody):
			bodyLines = append(bodyLines, labelValue(line))
		default:
			bodyLines = append(bodyLines, line)
		}
	}
	flush()

	return records
}

// extractMessageID prefers a bare hex token over the raw label value, which
// tolerates markdown bolding and extra prose around the ID.
func extractMessageID(line string) string {
	if m := reHexID.FindString(line); m != "" {
		return m
	}
	return labelValue(line)
}

func labelValue(line string) string {
	_, value, _ := strings.Cut(line, ":")
	value = strings.TrimSpace(value)
	// Bold labels like "**From:** x" leave stray asterisks after the colon.
	return strings.TrimSpace(strings.Trim(value, "*"))
}

// isSeparator matches horizontal-rule lines between entries ("---" and
// friends, after bullet stripping).
func isSeparator(line string) bool {
	for _, r := range line {
		if r != '-' && r != '—' {
			return false
		}
	}
	return line != ""
}
