package utils

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ExtractRKeyFromURI extracts the record key from an AT-URI
// Format: at://did/collection/rkey -> rkey
func ExtractRKeyFromURI(uri string) string {
	parts := strings.Split(uri, "/")
	if len(parts) >= 4 {
		return parts[len(parts)-1]
	}
	return ""
}

// ExtractCollectionFromURI extracts the collection from an AT-URI
// Format: at://did/collection/rkey -> collection
//
// Returns an empty string if the URI doesn't contain a collection segment.
// Callers should treat that as an unparseable URI.
func ExtractCollectionFromURI(uri string) string {
	withoutScheme := strings.TrimPrefix(uri, "at://")
	parts := strings.Split(withoutScheme, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}

// BuildRecordURI assembles an AT-URI from its parts
func BuildRecordURI(did, collection, rkey string) string {
	return fmt.Sprintf("at://%s/%s/%s", did, collection, rkey)
}

// StringFromNull converts sql.NullString to string
// Returns empty string if the NullString is not valid
func StringFromNull(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// TimeFromNull converts sql.NullTime to a *time.Time, nil when not valid
func TimeFromNull(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// ParseCreatedAt extracts and parses the createdAt timestamp from an atProto record
// Falls back to time.Now() if the field is missing or invalid
func ParseCreatedAt(record map[string]interface{}) time.Time {
	if record == nil {
		return time.Now()
	}

	createdAtStr, ok := record["createdAt"].(string)
	if !ok || createdAtStr == "" {
		return time.Now()
	}

	// atProto uses RFC3339 format for datetime fields
	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return time.Now()
	}

	return createdAt
}

// DecodeRecord converts a generic record value (as returned by getRecord or
// listRecords) into a typed struct by round-tripping through JSON.
func DecodeRecord(value map[string]interface{}, out interface{}) error {
	if value == nil {
		return fmt.Errorf("record value is empty")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
