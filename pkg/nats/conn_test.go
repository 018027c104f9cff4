package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectRoundTrip(t *testing.T) {
	assert.Equal(t, "citations.CITATION_CREATED", Subject("CITATION_CREATED"))
	assert.Equal(t, "CITATION_CREATED", EventType(Subject("CITATION_CREATED")))
	assert.Equal(t, "events.OTHER", EventType("events.OTHER"))
}
