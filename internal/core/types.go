package core

import (
	"encoding/json"

	"github.com/JonMunkholm/hospitals/internal/store"
)

// Hospital is a stored hospital record.
type Hospital = store.Hospital

// Field names every uploaded record must carry, exactly once each.
const (
	FieldID      = "id"
	FieldName    = "name"
	FieldCity    = "city"
	FieldState   = "state"
	FieldAddress = "address"
)

// RequiredFields lists the complete key set of a well-formed record.
var RequiredFields = []string{FieldID, FieldName, FieldCity, FieldState, FieldAddress}

// IngestionOutcome reports how a batch was partitioned.
// Records absent from both lists were accepted.
type IngestionOutcome struct {
	BatchID         string
	Accepted        int
	ConflictingKeys []int64
	IncorrectFormat []json.RawMessage
}

// Lookup is the result of a single-record query.
type Lookup struct {
	Hospital Hospital
	Found    bool
}
