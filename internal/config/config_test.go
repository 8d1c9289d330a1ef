package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grpc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Setenv("GRPC_URL", "")
	t.Setenv("GRPC_AUTH_TOKEN", "")
	t.Setenv("GRPC_TIMEOUT", "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
grpc:
  endpoint: geyser.example.com:10000
  x_token: abc
kafka_producer:
  brokers: 127.0.0.1:9092
parser:
  programs: [RaydiumV4, Jupiter]
  workers: 4
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://geyser.example.com:10000", c.Grpc.Endpoint)
	assert.Equal(t, "abc", c.Grpc.XToken)
	assert.Equal(t, 30*time.Second, c.Timeout())
	assert.Equal(t, "confirmed", c.Grpc.Commitment)
	assert.Equal(t, defaultMaxDecodingSize, c.Grpc.MaxDecodingMessageSize)
	assert.Equal(t, defaultSwapTopic, c.KafkaProducerConf.Topic)
	assert.True(t, c.KafkaProducerConf.Enabled())
	assert.Equal(t, []string{"RaydiumV4", "Jupiter"}, c.ParserConf.Programs)
	assert.Equal(t, []string{"PancakeCLMM"}, c.ParserConf.FilterAggregatorCPI)
	assert.Equal(t, 60, c.ProgressConf.RecentThresholdSec)
}

func TestLoadExplicitEmptyFilter(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
grpc:
  endpoint: https://geyser.example.com
parser:
  filter_aggregator_cpi: []
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://geyser.example.com", c.Grpc.Endpoint)
	assert.Empty(t, c.ParserConf.FilterAggregatorCPI)
	assert.NotNil(t, c.ParserConf.FilterAggregatorCPI)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("GRPC_URL", "solana-yellowstone:443")
	t.Setenv("GRPC_AUTH_TOKEN", "token")
	t.Setenv("GRPC_TIMEOUT", "45")

	var c GrpcConfig
	c.Grpc.Endpoint = "http://ignored"
	require.NoError(t, ApplyEnv(&c))
	assert.Equal(t, "http://solana-yellowstone:443", c.Grpc.Endpoint)
	assert.Equal(t, "token", c.Grpc.XToken)
	assert.Equal(t, 45*time.Second, c.Timeout())

	t.Setenv("GRPC_TIMEOUT", "1m30s")
	require.NoError(t, ApplyEnv(&c))
	assert.Equal(t, 90*time.Second, c.Timeout())

	t.Setenv("GRPC_TIMEOUT", "soon")
	assert.Error(t, ApplyEnv(&c))
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "grpc:\n  x_token: abc\n"))
	assert.ErrorContains(t, err, "endpoint")

	_, err = Load(writeConfig(t, "grpc:\n  endpoint: a:1\n  max_decoding_message_size: -1\n"))
	assert.ErrorContains(t, err, "max_decoding_message_size")

	_, err = Load(writeConfig(t, "grpc:\n  endpoint: a:1\n  commitment: rooted\n"))
	assert.ErrorContains(t, err, "commitment")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
