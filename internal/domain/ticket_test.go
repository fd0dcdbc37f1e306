package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicketSystem(t *testing.T) {
	s, err := ParseTicketSystem(" snow ")
	require.NoError(t, err)
	assert.Equal(t, SystemSnow, s)

	s, err = ParseTicketSystem("JIRA")
	require.NoError(t, err)
	assert.Equal(t, SystemJira, s)

	_, err = ParseTicketSystem("")
	assert.Error(t, err)
}
