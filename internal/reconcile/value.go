// Package reconcile implements field-by-field reconciliation of client-submitted
// partial edits against the last-known-good article record. Every editable field
// belongs to a closed rule table (see fields.go); values are carried in a tagged
// variant so that coercion, equality, and storage all key off the same category.
package reconcile

import (
	"encoding/json"
	"time"
)

type Kind int

const (
	KindNull Kind = iota
	KindText
	KindInt
	KindFloat
	KindBool
	KindDate
	KindID
	KindIDList
	KindKey
	KindKeyList
	KindMediaList
)

// Media is a single element of a media list. Plain media carry url and caption;
// sourced media (photos, files, evaluation reports) also carry the source url.
type Media struct {
	URL       string `json:"url"`
	SourceURL string `json:"source_url,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

// Value holds one coerced field value. Exactly one of the payload members is
// meaningful, selected by Kind; KindNull means the column is NULL.
type Value struct {
	Kind  Kind
	Text  string
	Int   int64
	Float float64
	Bool  bool
	Date  time.Time
	IDs   []int64
	Keys  []string
	Media []Media
}

func Null() Value               { return Value{Kind: KindNull} }
func TextValue(s string) Value  { return Value{Kind: KindText, Text: s} }
func IntValue(n int64) Value    { return Value{Kind: KindInt, Int: n} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func BoolValue(b bool) Value    { return Value{Kind: KindBool, Bool: b} }
func IDValue(id int64) Value    { return Value{Kind: KindID, Int: id} }
func KeyValue(k string) Value   { return Value{Kind: KindKey, Text: k} }

func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Date: calendarDay(t)}
}

func IDListValue(ids []int64) Value   { return Value{Kind: KindIDList, IDs: ids} }
func KeyListValue(ks []string) Value  { return Value{Kind: KindKeyList, Keys: ks} }
func MediaListValue(m []Media) Value  { return Value{Kind: KindMediaList, Media: m} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// calendarDay strips time-of-day and offset, keeping the calendar date the
// caller wrote. Two representations of the same date in different timezone
// offsets therefore normalize to the same value.
func calendarDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Equal reports whether two values are the same after normalization. Lists and
// media compare structurally, dates compare by calendar day, scalars exactly.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindText, KindKey:
		return v.Text == other.Text
	case KindInt, KindID:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindBool:
		return v.Bool == other.Bool
	case KindDate:
		return v.Date.Equal(other.Date)
	case KindIDList:
		if len(v.IDs) != len(other.IDs) {
			return false
		}
		for i := range v.IDs {
			if v.IDs[i] != other.IDs[i] {
				return false
			}
		}
		return true
	case KindKeyList:
		if len(v.Keys) != len(other.Keys) {
			return false
		}
		for i := range v.Keys {
			if v.Keys[i] != other.Keys[i] {
				return false
			}
		}
		return true
	case KindMediaList:
		if len(v.Media) != len(other.Media) {
			return false
		}
		for i := range v.Media {
			if v.Media[i] != other.Media[i] {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON renders the value in the client-facing shape: scalars as JSON
// scalars, dates as RFC 3339, lists as arrays, NULL as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindText, KindKey:
		return json.Marshal(v.Text)
	case KindInt, KindID:
		return json.Marshal(v.Int)
	case KindFloat:
		return json.Marshal(v.Float)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindDate:
		return json.Marshal(v.Date.Format(time.RFC3339))
	case KindIDList:
		if v.IDs == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.IDs)
	case KindKeyList:
		if v.Keys == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Keys)
	case KindMediaList:
		if v.Media == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Media)
	}
	return []byte("null"), nil
}
