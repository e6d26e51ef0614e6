package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
	"github.com/therealutkarshpriyadarshi/worddetect/pkg/timecode"
)

func caption(index int, startMs, stopMs int64, text string) models.Caption {
	return models.Caption{
		Index: index,
		Start: timecode.FromMillis(startMs),
		Stop:  timecode.FromMillis(stopMs),
		Text:  text,
	}
}

func TestMatch_Basic(t *testing.T) {
	captions := []models.Caption{
		caption(1, 1000, 2500, "this is a test"),
	}

	matches := Match("vid-1", captions, []string{"test"})
	require.Len(t, matches, 1)

	assert.Equal(t, "vid-1", matches[0].VideoID)
	assert.Equal(t, "test", matches[0].Word)
	assert.Equal(t, "00:00:01.000", matches[0].Start.String())
	assert.Equal(t, "00:00:02.500", matches[0].Stop.String())
	assert.Equal(t, 1, matches[0].CaptionIndex)
}

func TestMatch_CaseInsensitive(t *testing.T) {
	captions := []models.Caption{
		caption(1, 0, 1000, "DAMN that was Close"),
	}

	matches := Match("vid-1", captions, []string{"Damn", "CLOSE"})
	require.Len(t, matches, 2)
	assert.Equal(t, "damn", matches[0].Word)
	assert.Equal(t, "close", matches[1].Word)
}

func TestMatch_WholeWordBoundaries(t *testing.T) {
	captions := []models.Caption{
		caption(1, 0, 1000, "the damage was done by the dam"),
		caption(2, 2000, 3000, "a scout went to cut wood"),
	}

	matches := Match("vid-1", captions, []string{"dam", "cut"})
	require.Len(t, matches, 2)

	// "dam" must not match inside "damage", "cut" not inside "scout".
	assert.Equal(t, "dam", matches[0].Word)
	assert.Equal(t, 1, matches[0].CaptionIndex)
	assert.Equal(t, "cut", matches[1].Word)
	assert.Equal(t, 2, matches[1].CaptionIndex)
}

func TestMatch_PunctuationBoundaries(t *testing.T) {
	captions := []models.Caption{
		caption(1, 0, 1000, "Damn! Who said that?"),
	}

	matches := Match("vid-1", captions, []string{"damn"})
	require.Len(t, matches, 1)
}

func TestMatch_MultilineCaption(t *testing.T) {
	captions := []models.Caption{
		caption(1, 0, 1000, "first line\nsecond hell line"),
	}

	matches := Match("vid-1", captions, []string{"hell"})
	require.Len(t, matches, 1)
}

func TestMatch_EmptyWordSet(t *testing.T) {
	captions := []models.Caption{
		caption(1, 0, 1000, "anything at all"),
	}

	assert.Empty(t, Match("vid-1", captions, nil))
	assert.Empty(t, Match("vid-1", captions, []string{"", "  "}))
}

func TestMatch_OrderAndIdempotence(t *testing.T) {
	captions := []models.Caption{
		caption(1, 0, 1000, "hell and damn"),
		caption(2, 2000, 3000, "damn again"),
	}
	words := []string{"damn", "hell"}

	first := Match("vid-1", captions, words)
	second := Match("vid-1", captions, words)

	require.Len(t, first, 3)
	// Caption order, then token order within the caption.
	assert.Equal(t, "hell", first[0].Word)
	assert.Equal(t, "damn", first[1].Word)
	assert.Equal(t, 2, first[2].CaptionIndex)

	assert.Equal(t, first, second)
}
