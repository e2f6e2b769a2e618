package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTicketIDJira(t *testing.T) {
	body := map[string]any{"id": "10001", "key": "SUPP-42"}
	assert.Equal(t, "SUPP-42", extractTicketID(SystemJira, body))

	body = map[string]any{"id": "10001"}
	assert.Equal(t, "10001", extractTicketID(SystemJira, body))
}

func TestExtractTicketIDFreshservice(t *testing.T) {
	body := map[string]any{"ticket": map[string]any{"id": float64(9137)}}
	assert.Equal(t, "9137", extractTicketID(SystemFreshservice, body))

	// Top-level id is not where freshservice puts it.
	body = map[string]any{"id": float64(1)}
	assert.Equal(t, "", extractTicketID(SystemFreshservice, body))
}

func TestExtractTicketIDGeneric(t *testing.T) {
	assert.Equal(t, "abc", extractTicketID(SystemUnknown, map[string]any{"id": "abc"}))
	assert.Equal(t, "77", extractTicketID(SystemUnknown, map[string]any{"ticket_id": float64(77)}))
	assert.Equal(t, "55", extractTicketID(SystemUnknown, map[string]any{
		"data": map[string]any{"number": float64(55)},
	}))
}

func TestExtractTicketIDMisses(t *testing.T) {
	assert.Equal(t, "", extractTicketID(SystemUnknown, nil))
	assert.Equal(t, "", extractTicketID(SystemUnknown, map[string]any{}))
	assert.Equal(t, "", extractTicketID(SystemUnknown, map[string]any{"status": "ok"}))
	// Non-scalar values are not identifiers.
	assert.Equal(t, "", extractTicketID(SystemUnknown, map[string]any{"id": []any{"x"}}))
}

func TestStringifyID(t *testing.T) {
	assert.Equal(t, "abc", stringifyID("abc"))
	assert.Equal(t, "42", stringifyID(float64(42)))
	assert.Equal(t, "4.5", stringifyID(4.5))
	assert.Equal(t, "", stringifyID(true))
	assert.Equal(t, "", stringifyID(nil))
}
