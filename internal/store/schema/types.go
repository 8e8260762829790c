package schema

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// StringList is an ordered slice of strings stored as JSONB. Order is
// preserved exactly as appended; entries are never deduplicated.
type StringList []string

// Scan implements the sql.Scanner interface for reading from database
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Value implements the driver.Valuer interface for writing to database
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Contains reports whether the list holds the given entry (case-insensitive,
// entries are addresses or ids)
func (l StringList) Contains(entry string) bool {
	for _, e := range l {
		if strings.EqualFold(e, entry) {
			return true
		}
	}
	return false
}

// AddressSet is a collection of addresses with set membership semantics,
// stored as JSONB. Insertion order is retained for stable serialization.
type AddressSet []string

// Scan implements the sql.Scanner interface for reading from database
func (s *AddressSet) Scan(value interface{}) error {
	return (*StringList)(s).Scan(value)
}

// Value implements the driver.Valuer interface for writing to database
func (s AddressSet) Value() (driver.Value, error) {
	return StringList(s).Value()
}

// Contains reports set membership (case-insensitive)
func (s AddressSet) Contains(entry string) bool {
	return StringList(s).Contains(entry)
}

// Add inserts an entry if absent and reports whether the set changed
func (s *AddressSet) Add(entry string) bool {
	if s.Contains(entry) {
		return false
	}
	*s = append(*s, entry)
	return true
}

// Remove deletes an entry if present and reports whether the set changed
func (s *AddressSet) Remove(entry string) bool {
	for i, e := range *s {
		if strings.EqualFold(e, entry) {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

// Int64List is a slice of int64 stored as JSONB (royalty split shares)
type Int64List []int64

// Scan implements the sql.Scanner interface for reading from database
func (l *Int64List) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Value implements the driver.Valuer interface for writing to database
func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Sum returns the total of all entries
func (l Int64List) Sum() int64 {
	var total int64
	for _, v := range l {
		total += v
	}
	return total
}
