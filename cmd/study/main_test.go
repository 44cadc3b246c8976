package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest("LEMD", "32L", "2023-01-01/2023-03-31", "200,200,250,250", "300, 300, 300, 300")
	require.NoError(t, err)

	assert.Equal(t, "LEMD", req.Airport)
	assert.Equal(t, "32L", req.Runway)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC), req.End)
	assert.Equal(t, [4]float64{200, 200, 250, 250}, req.Current)
	assert.Equal(t, [4]float64{300, 300, 300, 300}, req.Proposed)
}

func TestBuildRequest_Errors(t *testing.T) {
	tests := map[string][5]string{
		"missing flags": {"LEMD", "", "2023-01-01/2023-01-02", "200,200,200,200", "200,200,200,200"},
		"no separator":  {"LEMD", "32L", "2023-01-01", "200,200,200,200", "200,200,200,200"},
		"bad start":     {"LEMD", "32L", "01/01/2023/2023-01-02", "200,200,200,200", "200,200,200,200"},
		"three minima":  {"LEMD", "32L", "2023-01-01/2023-01-02", "200,200,200", "200,200,200,200"},
		"not a number":  {"LEMD", "32L", "2023-01-01/2023-01-02", "200,200,200,200", "200,x,200,200"},
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := buildRequest(in[0], in[1], in[2], in[3], in[4])
			assert.Error(t, err)
		})
	}
}
