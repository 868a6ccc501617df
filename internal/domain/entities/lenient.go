package entities

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// Payload fields are informational, so a sender putting the wrong JSON type in one of them
// must not fail the delivery. The types below decode any JSON value and never return an error.

var jsonNull = []byte("null")

// scalarText returns the string form of a JSON value: the unquoted text for strings,
// the literal JSON text for everything else, and "" for null.
func scalarText(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, jsonNull) {
		return ""
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return s
		}
	}
	return string(b)
}

// looseString accepts strings, numbers and booleans
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	*s = looseString(scalarText(b))
	return nil
}

// looseStrings accepts an array of scalars or a single scalar
type looseStrings []string

func (s *looseStrings) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, jsonNull) {
		*s = nil
		return nil
	}

	if b[0] != '[' {
		*s = looseStrings{scalarText(b)}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*s = nil
		return nil
	}
	out := make(looseStrings, 0, len(items))
	for _, item := range items {
		out = append(out, scalarText(item))
	}
	*s = out
	return nil
}

// looseNumber accepts numbers and numeric strings; anything else leaves it unset
type looseNumber struct {
	value *float64
}

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	n.value = nil
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.value = &f
		return nil
	}
	if f, err := strconv.ParseFloat(scalarText(b), 64); err == nil {
		n.value = &f
	}
	return nil
}

// looseDecimal accepts numbers and numeric strings; anything else decodes as zero
type looseDecimal struct {
	value decimal.Decimal
}

func (d *looseDecimal) UnmarshalJSON(b []byte) error {
	d.value = decimal.Zero

	var v decimal.Decimal
	if err := v.UnmarshalJSON(bytes.TrimSpace(b)); err == nil {
		d.value = v
	}
	return nil
}

// looseObject accepts a JSON object; anything else decodes as nil
type looseObject map[string]interface{}

func (o *looseObject) UnmarshalJSON(b []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		m = nil
	}
	*o = m
	return nil
}

// looseReplies accepts an array of reply objects, skipping elements that are not objects
type looseReplies []QuizReply

func (r *looseReplies) UnmarshalJSON(b []byte) error {
	*r = nil

	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil || items == nil {
		return nil
	}
	out := make(looseReplies, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var reply QuizReply
		if err := json.Unmarshal(item, &reply); err != nil {
			continue
		}
		out = append(out, reply)
	}
	*r = out
	return nil
}
