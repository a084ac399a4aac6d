package nodes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/twitter/nodes"
)

func TestSubgraphValidateFailsWithoutExposedNodes(t *testing.T) {
	sg := nodes.NewSubgraph("pipeline")
	err := sg.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, nodes.ErrNoExposedNodes)
}

func TestSubgraphExposeTracksEnclosingSubgraph(t *testing.T) {
	sg := nodes.NewSubgraph("pipeline")
	n := nodes.Value(1, "result")
	sg.Expose(n)

	require.NoError(t, sg.Validate())
	require.Len(t, sg.Exposed(), 1)

	enclosing, ok := nodes.EnclosingSubgraph(n)
	require.True(t, ok)
	require.Equal(t, "pipeline", enclosing.Name())
}

func TestSubgraphExposeIsIdempotent(t *testing.T) {
	sg := nodes.NewSubgraph("pipeline")
	n := nodes.Value(1, "result")
	sg.Expose(n)
	sg.Expose(n)
	require.Len(t, sg.Exposed(), 1)
}
