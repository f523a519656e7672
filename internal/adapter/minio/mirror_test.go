package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "perf/abc123.zip", ObjectName("perf", "abc123"))
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(Options{Endpoint: "localhost:9000", AccessKey: "key", SecretKey: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", client.EndpointURL().Host)
}
