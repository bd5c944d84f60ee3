package repository

import (
	"encoding/json"
	"testing"

	"kukkee/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePoll(t *testing.T) {
	poll := domain.Poll{
		ID:    "p1",
		Title: "Retro",
		Type:  domain.PollTypePublic,
		Owner: "owner",
		Times: []domain.TimeSlot{{Start: 1, End: 2}},
		Open:  true,
	}
	document, err := json.Marshal(poll)
	require.NoError(t, err)
	assert.NotContains(t, string(document), "Version", "version lives in its own column")

	decoded, err := decodePoll(document, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), decoded.Version)
	assert.Equal(t, "owner", decoded.Owner)
	assert.NotNil(t, decoded.Votes, "null votes decode to an empty list")

	_, err = decodePoll([]byte("{"), 1)
	assert.Error(t, err)
}
