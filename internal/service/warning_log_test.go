package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

func TestWarningLog_NewestFirstAndBounded(t *testing.T) {
	log := NewWarningLog(3)
	assert.Empty(t, log.Recent())

	for i := 1; i <= 5; i++ {
		log.Add(domain.ConsistencyWarning{ID: fmt.Sprintf("w%d", i)})
	}

	recent := log.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"w5", "w4", "w3"}, []string{recent[0].ID, recent[1].ID, recent[2].ID})
}

func TestWarningLog_DefaultCapacity(t *testing.T) {
	log := NewWarningLog(0)
	for i := 0; i < DefaultWarningCapacity+10; i++ {
		log.Add(domain.ConsistencyWarning{ID: fmt.Sprint(i)})
	}
	assert.Len(t, log.Recent(), DefaultWarningCapacity)
}
