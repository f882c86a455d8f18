package reconcile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Coerce converts one raw submitted JSON value according to the field's rule.
// JSON null always coerces to NULL; everything else is category-specific.
// Errors are per-field validation rejections, never fatal to the whole edit.
func Coerce(field Field, raw json.RawMessage) (Value, error) {
	if isJSONNull(raw) {
		return Null(), nil
	}
	switch field.Category {
	case CategoryText:
		s, err := asString(raw)
		if err != nil {
			return Null(), err
		}
		return TextValue(strings.TrimSpace(s)), nil
	case CategoryInteger:
		n, err := asInt(raw)
		if err != nil {
			return Null(), err
		}
		return IntValue(n), nil
	case CategoryFloat:
		f, err := asFloat(raw)
		if err != nil {
			return Null(), err
		}
		return FloatValue(f), nil
	case CategoryBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Null(), fmt.Errorf("not a boolean")
		}
		return BoolValue(b), nil
	case CategoryYesNo:
		s, err := asString(raw)
		if err != nil {
			return Null(), fmt.Errorf("not a yes/no value")
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes":
			return BoolValue(true), nil
		case "no":
			return BoolValue(false), nil
		case "":
			return Null(), nil
		}
		return Null(), fmt.Errorf("not a yes/no value")
	case CategoryDate:
		if string(raw) == `""` {
			return Null(), nil
		}
		t, err := asDate(raw)
		if err != nil {
			return Null(), err
		}
		return DateValue(t), nil
	case CategoryID:
		n, err := asInt(raw)
		if err != nil {
			return Null(), fmt.Errorf("not a number")
		}
		return IDValue(n), nil
	case CategoryIDList:
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return Null(), fmt.Errorf("not a list of ids")
		}
		ids := make([]int64, 0, len(elems))
		for _, elem := range elems {
			n, err := asInt(elem)
			if err != nil {
				return Null(), fmt.Errorf("not a number: %s", elem)
			}
			ids = append(ids, n)
		}
		return IDListValue(ids), nil
	case CategoryKey:
		s, err := asString(raw)
		if err != nil {
			return Null(), err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return Null(), nil
		}
		if !ValidKey(field.Vocab, s) {
			return Null(), fmt.Errorf("unknown %s key: %s", field.Name, s)
		}
		return KeyValue(s), nil
	case CategoryKeyList:
		var keys []string
		if err := json.Unmarshal(raw, &keys); err != nil {
			return Null(), fmt.Errorf("not a list of keys")
		}
		for _, k := range keys {
			if !ValidKey(field.Vocab, k) {
				return Null(), fmt.Errorf("unknown %s key: %s", field.Name, k)
			}
		}
		return KeyListValue(keys), nil
	case CategoryMediaList, CategorySourcedMediaList:
		media, err := asMediaList(raw, field.Category == CategorySourcedMediaList)
		if err != nil {
			return Null(), err
		}
		return MediaListValue(media), nil
	}
	return Null(), fmt.Errorf("unhandled category for %s", field.Name)
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func asString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("not a string")
	}
	return s, nil
}

func asInt(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	// numeric strings are accepted, anything else is a rejection
	s, err := asString(raw)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	n, err = strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	return n, nil
}

func asFloat(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	s, err := asString(raw)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	return f, nil
}

// asDate accepts RFC 3339 and date-only strings, plus Unix epoch milliseconds
// as a bare number (the client posts Date.now() for post dates).
func asDate(raw json.RawMessage) (time.Time, error) {
	var millis int64
	if err := json.Unmarshal(raw, &millis); err == nil {
		return time.UnixMilli(millis).UTC(), nil
	}
	s, err := asString(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a date")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("not a date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date: %s", s)
}

// asMediaList accepts either bare URL strings or {url, caption} objects
// ({url, source_url, caption} for sourced media). Every element needs a url.
func asMediaList(raw json.RawMessage, sourced bool) ([]Media, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("not a media list")
	}
	media := make([]Media, 0, len(elems))
	for _, elem := range elems {
		var url string
		if err := json.Unmarshal(elem, &url); err == nil {
			media = append(media, Media{URL: url})
			continue
		}
		var m Media
		if err := json.Unmarshal(elem, &m); err != nil {
			return nil, fmt.Errorf("malformed media element: %s", elem)
		}
		if strings.TrimSpace(m.URL) == "" {
			return nil, fmt.Errorf("media element missing url")
		}
		if !sourced {
			m.SourceURL = ""
		}
		media = append(media, m)
	}
	return media, nil
}
