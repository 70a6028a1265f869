package llmjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	var out struct {
		Room int `json:"room_number"`
	}

	raw := "Sure! Here is the order:\n```json\n{\"room_number\": 405}\n```"
	require.NoError(t, Decode(raw, &out))
	assert.Equal(t, 405, out.Room)
}

func TestDecodeErrors(t *testing.T) {
	var out map[string]any

	assert.Error(t, Decode("no braces here", &out))
	assert.Error(t, Decode("} backwards {", &out))
	assert.Error(t, Decode(`{"items": [}`, &out))
}
