package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/respiration-monitor/internal/respiration"
)

const deviceExport = `device=RESP-01,firmware=2.4.1,exported=2023-07-13
dateTime,timeSeconds,signalFrequencyBpm,tempOral,tempNasal,signalPeriodSec
1689251400000,0.0,16.5,34.1,33.2,3.63
1689251400250,0.25,17.0,34.1,33.2,3.52
1689251400500,0.5,17.5,34.2,33.1,3.42
`

func TestReadSamples(t *testing.T) {
	samples, err := ReadSamples(strings.NewReader(deviceExport))
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, respiration.RawSample{EpochMillis: 1689251400000, ElapsedSeconds: 0, RateBpm: 16.5}, samples[0])
	assert.Equal(t, respiration.RawSample{EpochMillis: 1689251400500, ElapsedSeconds: 0.5, RateBpm: 17.5}, samples[2])
	assert.Equal(t, "2023-07-13 12:30:00", samples[0].Timestamp().Format("2006-01-02 15:04:05"))
}

func TestReadSamples_ColumnOrderAndExtras(t *testing.T) {
	input := "meta\r\n" +
		"\ufeffsignalPeriodSec, signalFrequencyBpm ,extra,timeSeconds,dateTime\r\n" +
		"3.1,19.25,x,12.5,1.689251400123e+12\r\n" +
		"\r\n" +
		"3.2,20,y,13,1689251401123\r\n"

	samples, err := ReadSamples(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, int64(1689251400123), samples[0].EpochMillis)
	assert.Equal(t, 12.5, samples[0].ElapsedSeconds)
	assert.Equal(t, 19.25, samples[0].RateBpm)
	assert.Equal(t, 20.0, samples[1].RateBpm)
}

func TestReadSamples_UnusedDeviceColumns(t *testing.T) {
	withExtras := "meta\ndateTime,timeSeconds,signalFrequencyBpm,tempOral,tempNasal,signalPeriodSec\n1000,0,20,34.1,33.2,3\n"
	without := "meta\ndateTime,timeSeconds,signalFrequencyBpm\n1000,0,20\n"

	a, err := ReadSamples(strings.NewReader(withExtras))
	require.NoError(t, err)
	b, err := ReadSamples(strings.NewReader(without))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, []respiration.RawSample{{EpochMillis: 1000, ElapsedSeconds: 0, RateBpm: 20}}, a)
}

func TestReadSamples_Empty(t *testing.T) {
	for _, input := range []string{
		"meta\ndateTime,timeSeconds,signalFrequencyBpm\n",
		"meta\ndateTime,timeSeconds,signalFrequencyBpm",
		"meta\ndateTime,timeSeconds,signalFrequencyBpm\n\n\n",
	} {
		samples, err := ReadSamples(strings.NewReader(input))

		var empty *respiration.EmptyRecordingError
		require.Truef(t, errors.As(err, &empty), "input %q: got %v", input, err)
		assert.Nil(t, samples)
	}
}

func TestReadSamples_MissingHeader(t *testing.T) {
	for _, input := range []string{"", "meta only", "meta\n", "meta\n\n"} {
		_, err := ReadSamples(strings.NewReader(input))

		var malformed *respiration.MalformedInputError
		require.Truef(t, errors.As(err, &malformed), "input %q: got %v", input, err)
		assert.Equal(t, 2, malformed.Line)
	}
}

func TestReadSamples_MissingRateColumn(t *testing.T) {
	input := "meta\ndateTime,timeSeconds,tempOral,tempNasal,signalPeriodSec\n1000,0,34,33,3\n"

	samples, err := ReadSamples(strings.NewReader(input))

	var malformed *respiration.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, ColumnRate, malformed.Column)
	assert.Nil(t, samples)
}

func TestReadSamples_HeaderIsSecondLine(t *testing.T) {
	// the metadata line looks like a header but must still be discarded
	input := "dateTime,timeSeconds,signalFrequencyBpm\nfoo,bar,baz\n1000,0,20\n"

	_, err := ReadSamples(strings.NewReader(input))

	var malformed *respiration.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, ColumnDateTime, malformed.Column)
}

func TestReadSamples_BadCells(t *testing.T) {
	header := "meta\ndateTime,timeSeconds,signalFrequencyBpm\n"
	tests := []struct {
		name   string
		row    string
		column string
	}{
		{"timestamp", "yesterday,0,20", ColumnDateTime},
		{"elapsed", "1000,abc,20", ColumnTimeSeconds},
		{"negative elapsed", "1000,-1,20", ColumnTimeSeconds},
		{"rate", "1000,0,", ColumnRate},
		{"nan rate", "1000,0,NaN", ColumnRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := header + "1000,0,20\n" + tt.row + "\n"
			_, err := ReadSamples(strings.NewReader(input))

			var malformed *respiration.MalformedInputError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, tt.column, malformed.Column)
			assert.Equal(t, 4, malformed.Line)
		})
	}
}

func TestReadSamples_WrongFieldCount(t *testing.T) {
	input := "meta\ndateTime,timeSeconds,signalFrequencyBpm\n1000,0,20\n2000,1\n"

	_, err := ReadSamples(strings.NewReader(input))

	var malformed *respiration.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 4, malformed.Line)
}
