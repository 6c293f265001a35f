package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeterHardnessModel(t *testing.T) {
	assert.InDelta(t, 15.1, TeterHardness(100), 1e-9)
	assert.InDelta(t, 0, TeterHardness(0), 1e-9)
}
