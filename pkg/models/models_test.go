package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchOutcome_String(t *testing.T) {
	tests := []struct {
		outcome FetchOutcome
		want    string
	}{
		{OutcomeUnset, "unset"},
		{OutcomeSuccess, "success"},
		{OutcomeEmpty, "empty"},
		{OutcomeForbidden, "http_403"},
		{OutcomeNotFound, "http_404"},
		{OutcomeConnError, "conn_error"},
		{OutcomePDF, "pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.outcome.String())
	}
}

func TestFetchOutcome_Extracted(t *testing.T) {
	tests := []struct {
		outcome FetchOutcome
		want    bool
	}{
		{OutcomeSuccess, true},
		{OutcomePDF, true},
		{OutcomeEmpty, false},
		{OutcomeForbidden, false},
		{OutcomeNotFound, false},
		{OutcomeConnError, false},
		{OutcomeUnset, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.outcome.Extracted(), "FetchOutcome(%q).Extracted()", string(tt.outcome))
	}
}

func TestCandidateRecord_HasURL(t *testing.T) {
	r := CandidateRecord{Title: "Drug X"}
	assert.False(t, r.HasURL())

	r.DetailURL = "https://example.org/node/123"
	assert.True(t, r.HasURL())
}

func TestRunStats_SuccessRate(t *testing.T) {
	s := RunStats{}
	assert.Equal(t, 0.0, s.SuccessRate())

	s = RunStats{Attempted: 4, Succeeded: 3, Failed: 1}
	assert.InDelta(t, 75.0, s.SuccessRate(), 0.001)
}
