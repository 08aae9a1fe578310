package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/civiclens/internal/shared/errors"
)

type sampleRequest struct {
	Title    string  `json:"title" validate:"required,max=10"`
	Lat      float64 `form:"lat" validate:"latitude"`
	Severity string  `json:"severity" validate:"omitempty,oneof=low medium high"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(sampleRequest{Title: "pothole", Lat: 28.6}))

	err := ValidateStruct(sampleRequest{Lat: 120, Severity: "extreme"})
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
	assert.Contains(t, appErr.Details, "title is required")
	assert.Contains(t, appErr.Details, "lat must be a valid latitude")
	assert.Contains(t, appErr.Details, "severity must be one of [low medium high]")
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tags stripped", "  <b>Broken</b> light<script>alert(1)</script> ", "Broken light"},
		{"ampersand kept", "Tom &amp; Jerry road", "Tom & Jerry road"},
		{"quotes kept", `Near "Main" gate, Ram's shop`, `Near "Main" gate, Ram's shop`},
		{"encoded script", "&lt;script&gt;alert(1)&lt;/script&gt; pothole", "pothole"},
		{"double encoded tag", "&amp;lt;b&amp;gt;Pothole&amp;lt;/b&amp;gt;", "Pothole"},
		{"numeric entities", "&#60;img src=x onerror=alert(1)&#62;Leak", "Leak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeText(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "<")
		})
	}
}
