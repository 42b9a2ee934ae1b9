package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAnswersSingleMap(t *testing.T) {
	answers, scores, err := extractAnswers(`{"A":0,"B":5,"C":91,"D":4}`, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, answers)
	assert.Equal(t, []int{91}, scores)
}

func TestExtractAnswersTieGoesToFirstLetter(t *testing.T) {
	answers, scores, err := extractAnswers(`{"A":0,"B":50,"C":50,"D":0}`, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, answers)
	assert.Equal(t, []int{50}, scores)
}

func TestExtractAnswersPart2UsesThreeLetters(t *testing.T) {
	answers, scores, err := extractAnswers(`{"A":20,"B":5,"C":75}`, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, answers)
	assert.Equal(t, []int{75}, scores)
}

func TestExtractAnswersArray(t *testing.T) {
	payload := `[{"A":10,"B":20,"C":60,"D":10},{"A":5,"B":15,"C":70,"D":10},{"A":25,"B":25,"C":25,"D":25}]`
	answers, scores, err := extractAnswers(payload, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "C", "A"}, answers)
	assert.Equal(t, []int{60, 70, 25}, scores)
}

func TestExtractAnswersMissingLetter(t *testing.T) {
	_, _, err := extractAnswers(`{"A":50,"B":50}`, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing C")
}

func TestExtractAnswersSumTooLarge(t *testing.T) {
	_, _, err := extractAnswers(`{"A":60,"B":60,"C":0,"D":0}`, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum")
}

func TestExtractAnswersIgnoresExtraKeys(t *testing.T) {
	answers, _, err := extractAnswers(`{"A":10,"B":80,"C":10,"reason":0}`, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, answers)
}

func TestExtractAnswersGarbage(t *testing.T) {
	_, _, err := extractAnswers(`sorry, no`, 1)
	require.Error(t, err)
}

func TestStoredAnswers(t *testing.T) {
	single, err := storedAnswers(" b ")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, single)

	set, err := storedAnswers(`["a","b","c"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, set)

	_, err = storedAnswers("")
	require.Error(t, err)
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", mimeTypeFor("scene.jpg"))
	assert.Equal(t, "image/jpeg", mimeTypeFor("scene.JPEG"))
	assert.Equal(t, "image/png", mimeTypeFor("scene.png"))
	assert.Equal(t, "image/gif", mimeTypeFor("scene.gif"))
	assert.Equal(t, "image/webp", mimeTypeFor("scene.webp"))
	assert.Equal(t, "image/jpeg", mimeTypeFor("scene"))
}
