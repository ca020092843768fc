package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSinkValidatesConfig(t *testing.T) {
	_, err := NewSink(nil, "audit")
	assert.Error(t, err)

	_, err = NewSink([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}
