package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestParseJSONPlain(t *testing.T) {
	got, err := ParseJSON[sample](`{"name": "a", "count": 3}`)
	require.NoError(t, err)
	assert.Equal(t, sample{Name: "a", Count: 3}, got)
}

func TestParseJSONMarkdownFences(t *testing.T) {
	response := "```json\n{\"name\": \"fenced\", \"count\": 1}\n```"
	got, err := ParseJSON[sample](response)
	require.NoError(t, err)
	assert.Equal(t, "fenced", got.Name)
}

func TestParseJSONSurroundingProse(t *testing.T) {
	response := `Here is the extracted data you asked for:
{"name": "prose", "count": 2}
Let me know if you need anything else.`
	got, err := ParseJSON[sample](response)
	require.NoError(t, err)
	assert.Equal(t, "prose", got.Name)
}

func TestParseJSONNoObject(t *testing.T) {
	_, err := ParseJSON[sample]("I could not find any claims in this document.")
	assert.Error(t, err)
}

func TestParseJSONMalformed(t *testing.T) {
	_, err := ParseJSON[sample](`{"name": "broken", "count": }`)
	assert.Error(t, err)
}
