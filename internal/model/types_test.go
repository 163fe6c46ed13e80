package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	require.Equal(t, SeverityCritical, ParseSeverity("critical"))
	require.Equal(t, SeverityHigh, ParseSeverity("high"))
	require.Equal(t, SeverityMedium, ParseSeverity("medium"))
	require.Equal(t, SeverityLow, ParseSeverity("low"))
	require.Equal(t, SeverityLow, ParseSeverity("bogus"))
}

func TestSeverityGTE(t *testing.T) {
	require.True(t, SeverityGTE(SeverityCritical, SeverityHigh))
	require.True(t, SeverityGTE(SeverityHigh, SeverityHigh))
	require.False(t, SeverityGTE(SeverityMedium, SeverityHigh))
}

func TestParseOperationKind(t *testing.T) {
	require.Equal(t, OpGenerate, ParseOperationKind("generate"))
	require.Equal(t, OpScan, ParseOperationKind("scan"))
	require.Equal(t, OpScan, ParseOperationKind(""))
}
