package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"dex-cpi-indexer-sol/internal/logic/eventparser/eventtest"
)

func TestReportView(t *testing.T) {
	tx := eventtest.Tx(fake(0, 7, fake(3, 0)), fake(1, 0))
	report := New(fakeRegistry(t)).Decode(context.Background(), tx)

	v := report.View()
	assert.Equal(t, "success", v.Outcome)
	assert.Equal(t, CountsView{Success: 1, NotMine: 1, Errors: 1}, v.Counts)
	require.Len(t, v.Results, 1)
	assert.Equal(t, []int{0}, v.Results[0].Path)
	assert.Equal(t, "Fake", v.Results[0].Variant)
	assert.Equal(t, []SwapView{{Source: 7, Destination: 1}}, v.Results[0].Swaps)
	require.Len(t, v.Errors, 1)

	out, err := report.YAML()
	require.NoError(t, err)
	var back ReportView
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, v, back)
	assert.Contains(t, string(out), "path: [0]")
}
