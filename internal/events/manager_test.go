package events

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestManager_Emit(t *testing.T) {
	var buf bytes.Buffer
	manager := NewManager(zerolog.New(&buf))

	manager.Emit(RiskAlert, "risk_monitor", map[string]interface{}{
		"user_id":    "user-1",
		"risk_score": 8.2,
	})

	out := buf.String()
	assert.Contains(t, out, `"event_type":"RISK_ALERT"`)
	assert.Contains(t, out, `"module":"risk_monitor"`)
	assert.Contains(t, out, "user-1")
}

func TestManager_EmitError(t *testing.T) {
	var buf bytes.Buffer
	manager := NewManager(zerolog.New(&buf))

	manager.EmitError("optimizer", errors.New("solver blew up"), map[string]interface{}{
		"user_id": "user-1",
	})

	out := buf.String()
	assert.Contains(t, out, `"event_type":"ERROR_OCCURRED"`)
	assert.Contains(t, out, "solver blew up")
	assert.Contains(t, out, "user-1")
}
