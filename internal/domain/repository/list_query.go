package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var (
	// ErrUnknownField is returned when a list query names a field that is not in the field map.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidFilterValue is returned when a filter value does not parse as the column's type.
	ErrInvalidFilterValue = errors.New("invalid filter value")
)

// FieldKind is the type a filter value is parsed as before it reaches the database.
type FieldKind int

const (
	KindString FieldKind = iota
	KindUUID
	KindBool
)

// Field describes a publicly addressable column of an entity.
type Field struct {
	Column     string
	Filterable bool
	Kind       FieldKind
}

// Parse converts a raw filter value to the column's type.
func (f Field) Parse(name, raw string) (interface{}, error) {
	switch f.Kind {
	case KindUUID:
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %q must be a UUID", ErrInvalidFilterValue, name)
		}
		return id, nil
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %q must be true or false", ErrInvalidFilterValue, name)
		}
		return b, nil
	}
	return raw, nil
}

// FieldMap maps public field names (matched case-insensitively) to columns.
// It is static: list endpoints can only sort and filter by what is registered here.
type FieldMap map[string]Field

// VerificationFields is the field map for verifications.
var VerificationFields = FieldMap{
	"id":                      {Column: "id", Filterable: true, Kind: KindUUID},
	"userid":                  {Column: "user_id", Filterable: true, Kind: KindUUID},
	"channel":                 {Column: "channel", Filterable: true},
	"destination":             {Column: "destination", Filterable: true},
	"verificationcode":        {Column: "verification_code", Filterable: true},
	"verificationpurposecode": {Column: "verification_purpose_code", Filterable: true},
	"status":                  {Column: "status", Filterable: true},
	"attemptcount":            {Column: "attempt_count"},
	"expiresat":               {Column: "expires_at"},
	"verifiedat":              {Column: "verified_at"},
	"createdat":               {Column: "created_at"},
	"updatedat":               {Column: "updated_at"},
}

// VerificationPurposeFields is the field map for verification purposes.
var VerificationPurposeFields = FieldMap{
	"id":          {Column: "id", Filterable: true, Kind: KindUUID},
	"code":        {Column: "code", Filterable: true},
	"name":        {Column: "name", Filterable: true},
	"description": {Column: "description"},
	"isactive":    {Column: "is_active", Filterable: true, Kind: KindBool},
	"createdat":   {Column: "created_at"},
	"updatedat":   {Column: "updated_at"},
}

// Lookup resolves a public field name.
func (m FieldMap) Lookup(name string) (Field, error) {
	f, ok := m[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// ListQuery is a list request expressed in public field names.
type ListQuery struct {
	Filters  map[string]string
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// ListOptions is a ListQuery resolved to columns, ready for a repository.
type ListOptions struct {
	Where   map[string]interface{}
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// Resolve checks every field of q against fields and clamps paging.
// Without SortBy, results are ordered by created_at descending.
func (q ListQuery) Resolve(fields FieldMap) (ListOptions, error) {
	opts := ListOptions{
		Where:   make(map[string]interface{}, len(q.Filters)),
		OrderBy: "created_at",
		Desc:    true,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}

	for name, value := range q.Filters {
		f, err := fields.Lookup(name)
		if err != nil {
			return ListOptions{}, err
		}
		if !f.Filterable {
			return ListOptions{}, fmt.Errorf("%w: %q is not filterable", ErrUnknownField, name)
		}
		parsed, err := f.Parse(name, value)
		if err != nil {
			return ListOptions{}, err
		}
		opts.Where[f.Column] = parsed
	}

	if q.SortBy != "" {
		f, err := fields.Lookup(q.SortBy)
		if err != nil {
			return ListOptions{}, err
		}
		opts.OrderBy = f.Column
		opts.Desc = q.SortDesc
	}

	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts, nil
}
