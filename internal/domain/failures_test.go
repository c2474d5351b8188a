package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountFailures(t *testing.T) {
	failures := []FetchFailure{
		{App: AppSpotterNetworkLoader, IngestTS: 10},
		{App: AppNwsAPILoader, IngestTS: 11},
		{App: AppSpotterNetworkLoader, IngestTS: 10},
	}

	assert.Equal(t, map[WxApp]uint16{
		AppSpotterNetworkLoader: 2,
		AppNwsAPILoader:         1,
	}, CountFailures(failures))
}

func TestCountFailures_Empty(t *testing.T) {
	counts := CountFailures(nil)
	assert.NotNil(t, counts)
	assert.Empty(t, counts)
}

func TestCountFailures_Saturates(t *testing.T) {
	failures := make([]FetchFailure, math.MaxUint16+5)
	for i := range failures {
		failures[i] = FetchFailure{App: AppAdmin, IngestTS: uint64(i)}
	}

	assert.Equal(t, uint16(math.MaxUint16), CountFailures(failures)[AppAdmin])
}
