package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageGone(t *testing.T) {
	gone := []string{
		"Bad Request: message to delete not found",
		"Bad Request: message to edit not found",
		"Bad Request: message can't be deleted",
		"Bad Request: message is not modified",
	}
	for _, text := range gone {
		assert.True(t, messageGone(errors.New(text)), text)
	}

	assert.False(t, messageGone(nil))
	assert.False(t, messageGone(errors.New("Too Many Requests: retry after 5")))
	assert.False(t, messageGone(errors.New("Forbidden: bot was blocked by the user")))
}
