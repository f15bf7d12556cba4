package service

import (
	"context"
	"testing"

	"github.com/andreypavlenko/crmcore/internal/errkind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultMapping() map[string]string {
	return map[string]string{
		"first_name":   "First Name",
		"last_name":    "Last Name",
		"email":        "Email",
		"linkedin_url": "Profile URL",
		"job_title":    "Position",
		"company":      "Company",
		"connected_on": "Connected On",
	}
}

func TestRowPreparer_ValidRow(t *testing.T) {
	p := newRowPreparer(defaultMapping(), nil, "GB")
	row := CSVRow{Number: 1, Fields: map[string]string{
		"First Name": "Alice", "Last Name": "Smith", "Email": "alice@example.com",
		"Profile URL": "https://linkedin.com/in/alice/", "Position": "CFO", "Company": "Acme",
		"Connected On": "01 Jan 2024",
	}}

	result, err := p.prepare(context.Background(), row)
	require.NoError(t, err)
	assert.False(t, result.Invalid)
	require.NotNil(t, result.Row)
	assert.Equal(t, "alice@example.com", *result.Row.Email)
	assert.Equal(t, "https://linkedin.com/in/alice", *result.Row.LinkedInURLNorm)
	assert.Equal(t, "Acme", *result.Row.RawCompanyName)
	assert.NotNil(t, result.Row.ConnectedOn)
	assert.Empty(t, result.ParseFailures)
}

func TestRowPreparer_InvalidRow_MissingIdentifiers(t *testing.T) {
	p := newRowPreparer(defaultMapping(), nil, "GB")
	row := CSVRow{Number: 2, Fields: map[string]string{"Company": "Acme"}}

	result, err := p.prepare(context.Background(), row)
	require.NoError(t, err)
	assert.True(t, result.Invalid)
	assert.Equal(t, errkind.ReasonMissingIdentifiers, result.InvalidReason)
}

func TestRowPreparer_ParseFailures_DoNotInvalidate(t *testing.T) {
	p := newRowPreparer(defaultMapping(), nil, "GB")
	row := CSVRow{Number: 3, Fields: map[string]string{
		"First Name": "Bob", "Email": "not-an-email", "Connected On": "not a date",
	}}

	result, err := p.prepare(context.Background(), row)
	require.NoError(t, err)
	assert.False(t, result.Invalid)
	require.NotNil(t, result.Row)
	assert.Nil(t, result.Row.Email)
	assert.Nil(t, result.Row.ConnectedOn)
	require.Len(t, result.ParseFailures, 2)
}

func TestRowPreparer_ValidByLinkedInURLAlone(t *testing.T) {
	p := newRowPreparer(defaultMapping(), nil, "GB")
	row := CSVRow{Number: 4, Fields: map[string]string{"Profile URL": "https://linkedin.com/in/noname"}}

	result, err := p.prepare(context.Background(), row)
	require.NoError(t, err)
	assert.False(t, result.Invalid)
}
