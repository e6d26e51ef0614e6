package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/worddetect/pkg/timecode"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:02,500
this is a test

2
00:00:05,000 --> 00:00:07,250
second caption
with two lines

3
00:00:10,000 --> 00:00:11,000
`

func TestParse(t *testing.T) {
	captions, err := Parse(sampleSRT)
	require.NoError(t, err)
	require.Len(t, captions, 3)

	assert.Equal(t, 1, captions[0].Index)
	assert.Equal(t, "00:00:01.000", captions[0].Start.String())
	assert.Equal(t, "00:00:02.500", captions[0].Stop.String())
	assert.Equal(t, "this is a test", captions[0].Text)

	assert.Equal(t, 2, captions[1].Index)
	assert.Equal(t, "second caption\nwith two lines", captions[1].Text)

	// Empty caption text is allowed.
	assert.Equal(t, 3, captions[2].Index)
	assert.Equal(t, "", captions[2].Text)
}

func TestParse_CRLFAndBOM(t *testing.T) {
	doc := "\uFEFF1\r\n00:00:01,000 --> 00:00:02,000\r\nhello\r\n"
	captions, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, captions, 1)
	assert.Equal(t, "hello", captions[0].Text)
}

func TestParse_PreservesSourceOrder(t *testing.T) {
	// Out-of-order timestamps between blocks are not reordered.
	doc := `1
00:01:00,000 --> 00:01:02,000
later

2
00:00:10,000 --> 00:00:12,000
earlier
`
	captions, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, captions, 2)
	assert.True(t, captions[1].Start.Before(captions[0].Start))
}

func TestParse_InvalidBlockIndex(t *testing.T) {
	doc := `one
00:00:01,000 --> 00:00:02,000
text
`
	_, err := Parse(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBlockIndex)
}

func TestParse_InvalidTimeRange(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			"stop before start",
			"1\n00:00:05,000 --> 00:00:02,000\ntext\n",
		},
		{
			"stop equals start",
			"1\n00:00:05,000 --> 00:00:05,000\ntext\n",
		},
		{
			"unparseable start",
			"1\nnot-a-time --> 00:00:05,000\ntext\n",
		},
		{
			"missing separator",
			"1\n00:00:01,000 00:00:05,000\ntext\n",
		},
		{
			"missing range line",
			"1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTimeRange)
		})
	}
}

func TestParse_FailFastOnFirstMalformedBlock(t *testing.T) {
	doc := `1
00:00:01,000 --> 00:00:02,000
fine

2
00:00:05,000 --> 00:00:03,000
broken

3
00:00:10,000 --> 00:00:12,000
never reached
`
	captions, err := Parse(doc)
	require.Error(t, err)
	assert.Nil(t, captions)
	assert.Contains(t, err.Error(), "block 2")
}

func TestParse_EmptyDocument(t *testing.T) {
	captions, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, captions)
}

func TestParse_RoundTripTimestamps(t *testing.T) {
	captions, err := Parse(sampleSRT)
	require.NoError(t, err)

	for _, c := range captions {
		start, err := timecode.Parse(c.Start.String())
		require.NoError(t, err)
		assert.Equal(t, c.Start, start)

		stop, err := timecode.Parse(c.Stop.String())
		require.NoError(t, err)
		assert.Equal(t, c.Stop, stop)
	}
}
