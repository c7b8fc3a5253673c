package repository

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListQuery_Resolve_Defaults(t *testing.T) {
	opts, err := ListQuery{}.Resolve(VerificationFields)
	require.NoError(t, err)

	assert.Equal(t, "created_at", opts.OrderBy)
	assert.True(t, opts.Desc)
	assert.Equal(t, DefaultListLimit, opts.Limit)
	assert.Equal(t, 0, opts.Offset)
	assert.Empty(t, opts.Where)
}

func TestListQuery_Resolve_MapsFieldsCaseInsensitively(t *testing.T) {
	q := ListQuery{
		Filters: map[string]string{"userId": "7f3c2a9e-5d1b-4c8e-9a6f-2b4d8e1c3a57", "STATUS": "PENDING"},
		SortBy:  "ExpiresAt",
		Limit:   500,
		Offset:  -3,
	}

	opts, err := q.Resolve(VerificationFields)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"user_id": uuid.MustParse("7f3c2a9e-5d1b-4c8e-9a6f-2b4d8e1c3a57"),
		"status":  "PENDING",
	}, opts.Where)
	assert.Equal(t, "expires_at", opts.OrderBy)
	assert.False(t, opts.Desc)
	assert.Equal(t, MaxListLimit, opts.Limit)
	assert.Equal(t, 0, opts.Offset)
}

func TestListQuery_Resolve_RejectsUnknownFields(t *testing.T) {
	tests := []struct {
		name  string
		query ListQuery
	}{
		{"unknown sort field", ListQuery{SortBy: "password"}},
		{"unknown filter field", ListQuery{Filters: map[string]string{"secret": "x"}}},
		{"non-filterable field", ListQuery{Filters: map[string]string{"expiresAt": "2025-01-01"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.query.Resolve(VerificationFields)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnknownField))
		})
	}
}

func TestVerificationPurposeFields_Lookup(t *testing.T) {
	f, err := VerificationPurposeFields.Lookup("isActive")
	require.NoError(t, err)
	assert.Equal(t, "is_active", f.Column)
	assert.True(t, f.Filterable)
}

func TestListQuery_Resolve_ParsesTypedFilters(t *testing.T) {
	id := uuid.New()
	opts, err := ListQuery{Filters: map[string]string{"id": id.String(), "isActive": "false"}}.Resolve(VerificationPurposeFields)
	require.NoError(t, err)

	assert.Equal(t, id, opts.Where["id"])
	assert.Equal(t, false, opts.Where["is_active"])
}

func TestListQuery_Resolve_RejectsMalformedFilterValues(t *testing.T) {
	tests := []struct {
		name   string
		fields FieldMap
		query  ListQuery
	}{
		{"user id not a uuid", VerificationFields, ListQuery{Filters: map[string]string{"userId": "u-1"}}},
		{"id not a uuid", VerificationFields, ListQuery{Filters: map[string]string{"id": "42"}}},
		{"is active not a bool", VerificationPurposeFields, ListQuery{Filters: map[string]string{"isActive": "yes"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.query.Resolve(tt.fields)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFilterValue))
			assert.False(t, errors.Is(err, ErrUnknownField))
		})
	}
}

func TestListQuery_Resolve_StringFiltersPassThrough(t *testing.T) {
	opts, err := ListQuery{Filters: map[string]string{"code": " REGISTRATION "}}.Resolve(VerificationPurposeFields)
	require.NoError(t, err)
	assert.Equal(t, " REGISTRATION ", opts.Where["code"])
}
