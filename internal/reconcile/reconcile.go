package reconcile

import (
	"encoding/json"
	"strings"
)

// Actor is the acting user as attested by the authentication layer.
type Actor struct {
	ID    int64
	Admin bool
}

// Record is the last-known-good view of an article: the latest localized text
// plus the coerced value of every structured field in its rule table.
type Record struct {
	ID          int64
	Language    string
	Title       string
	Body        string
	Description string
	Fields      map[string]Value
}

// Submission is the client-submitted partial update. Absent keys mean
// "no change requested".
type Submission map[string]json.RawMessage

// TextRevision is a new localized_texts row. It always carries the full merged
// title/body/description, not just the changed member.
type TextRevision struct {
	ThingID     int64
	Language    string
	Title       string
	Body        string
	Description string
}

// FieldError is one aggregated validation rejection.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Assignment is the post-merge value for one rule-table field. The assignment
// list always covers the full table in table order, because the writer
// replaces the whole row rather than patching.
type Assignment struct {
	Field Field
	Value Value
}

// Result is the reconciler's verdict on one submitted edit.
type Result struct {
	Assignments []Assignment
	Text        *TextRevision
	Changed     bool
	Rejections  []FieldError
}

// Reconcile diffs a submitted partial update against the existing record.
// Per field: admin-only fields are silently skipped for non-admins, omitted
// fields re-emit the existing value, coercion failures are collected without
// aborting the rest, and a single reference equal to the item's own id is
// dropped as if unchanged. A text revision is produced only when the
// normalized title, body, or description actually differs.
func Reconcile(existing Record, submitted Submission, actor Actor, fields []Field) Result {
	var out Result
	out.Assignments = make([]Assignment, 0, len(fields))

	for _, field := range fields {
		current := existing.Fields[field.Name]
		if field.AdminOnly && !actor.Admin {
			out.Assignments = append(out.Assignments, Assignment{Field: field, Value: current})
			continue
		}
		raw, ok := submitted[field.Name]
		if !ok {
			out.Assignments = append(out.Assignments, Assignment{Field: field, Value: current})
			continue
		}
		value, err := Coerce(field, raw)
		if err != nil {
			out.Rejections = append(out.Rejections, FieldError{Field: field.Name, Message: err.Error()})
			out.Assignments = append(out.Assignments, Assignment{Field: field, Value: current})
			continue
		}
		if field.Category == CategoryID && !value.IsNull() && value.Int == existing.ID {
			// an article can never be a component or organizer of itself
			value = current
		}
		if !value.Equal(current) {
			out.Changed = true
		}
		out.Assignments = append(out.Assignments, Assignment{Field: field, Value: value})
	}

	out.Text = reconcileText(existing, submitted, &out)
	if out.Text != nil {
		out.Changed = true
	}
	return out
}

// reconcileText merges the title/body/description triple. Title and
// description are trimmed plain text; body is rich text and passes through
// unmodified.
func reconcileText(existing Record, submitted Submission, out *Result) *TextRevision {
	title := existing.Title
	body := existing.Body
	description := existing.Description
	modified := false

	if raw, ok := submitted["title"]; ok {
		value, err := coerceText(raw, true)
		if err != nil {
			out.Rejections = append(out.Rejections, FieldError{Field: "title", Message: err.Error()})
		} else if value != title {
			title = value
			modified = true
		}
	}
	if raw, ok := submitted["body"]; ok {
		value, err := coerceText(raw, false)
		if err != nil {
			out.Rejections = append(out.Rejections, FieldError{Field: "body", Message: err.Error()})
		} else if value != body {
			body = value
			modified = true
		}
	}
	if raw, ok := submitted["description"]; ok {
		value, err := coerceText(raw, true)
		if err != nil {
			out.Rejections = append(out.Rejections, FieldError{Field: "description", Message: err.Error()})
		} else if value != description {
			description = value
			modified = true
		}
	}

	if !modified {
		return nil
	}
	return &TextRevision{
		ThingID:     existing.ID,
		Language:    existing.Language,
		Title:       title,
		Body:        body,
		Description: description,
	}
}

func coerceText(raw json.RawMessage, trim bool) (string, error) {
	if isJSONNull(raw) {
		return "", nil
	}
	s, err := asString(raw)
	if err != nil {
		return "", err
	}
	if trim {
		return strings.TrimSpace(s), nil
	}
	return s, nil
}
