package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

var (
	// ErrMalformedRecord marks a record that failed the shape check.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnstorableID marks a shape-valid record whose id the hospitals
	// table cannot hold (anything but an integer that fits in int64).
	ErrUnstorableID = errors.New("unstorable hospital id")
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}

// ParseRecord runs the shape check on one raw batch element and, if it
// passes, converts it to a row.
//
// Only the key set is checked: exactly id, name, city, state and address,
// each once. The object is read token by token so that repeated keys are
// seen; a map-based decode would silently keep only the last one.
//
// Text fields keep whatever the caller sent: null becomes NULL, strings are
// stored as is and any other JSON value is stored as its JSON text. An id
// that is not an integer fitting int64 yields ErrUnstorableID, and only
// after the shape check has passed.
func ParseRecord(raw json.RawMessage) (Hospital, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return Hospital{}, malformed("invalid json: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Hospital{}, malformed("record is not an object")
	}

	var (
		h     Hospital
		keys  int
		seen  = make(map[string]bool, len(RequiredFields))
		extra []string
		idErr error
	)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Hospital{}, malformed("invalid json: %v", err)
		}
		key, _ := keyTok.(string)
		keys++

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return Hospital{}, malformed("invalid value for %q: %v", key, err)
		}

		if seen[key] {
			continue
		}
		seen[key] = true

		switch key {
		case FieldID:
			id, err := strconv.ParseInt(string(value), 10, 64)
			if err != nil {
				idErr = fmt.Errorf("%w: %s", ErrUnstorableID, value)
				continue
			}
			h.ID = id
		case FieldName, FieldCity, FieldState, FieldAddress:
			text, err := textValue(value)
			if err != nil {
				return Hospital{}, malformed("invalid value for %q: %v", key, err)
			}
			setTextField(&h, key, text)
		default:
			extra = append(extra, key)
		}
	}

	if _, err := dec.Token(); err != nil {
		return Hospital{}, malformed("invalid json: %v", err)
	}

	if keys != len(seen) {
		return Hospital{}, malformed("duplicate field names")
	}
	if len(extra) > 0 {
		return Hospital{}, malformed("unexpected fields: %s", strings.Join(extra, ", "))
	}
	var missing []string
	for _, f := range RequiredFields {
		if !seen[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return Hospital{}, malformed("missing fields: %s", strings.Join(missing, ", "))
	}

	if idErr != nil {
		return Hospital{}, idErr
	}
	return h, nil
}

// textValue maps one JSON value onto a nullable text column.
func textValue(value json.RawMessage) (pgtype.Text, error) {
	switch {
	case bytes.Equal(value, []byte("null")):
		return pgtype.Text{}, nil
	case len(value) > 0 && value[0] == '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return pgtype.Text{}, err
		}
		return pgtype.Text{String: s, Valid: true}, nil
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, value); err != nil {
			return pgtype.Text{}, err
		}
		return pgtype.Text{String: buf.String(), Valid: true}, nil
	}
}

func setTextField(h *Hospital, key string, value pgtype.Text) {
	switch key {
	case FieldName:
		h.Name = value
	case FieldCity:
		h.City = value
	case FieldState:
		h.State = value
	case FieldAddress:
		h.Address = value
	}
}
