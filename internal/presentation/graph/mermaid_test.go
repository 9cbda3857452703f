package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/deploykit/internal/presentation/graph"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/state"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(state.Edges(), nil)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	for _, want := range []string{
		`ready(("ready"))`,
		`paused{{"paused"}}`,
		`loading["loading"]`,
		`ready -- "deploy" --> loading`,
		`paused -- "decline" --> cancelled`,
		`cancelled -- "settled" --> ready`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
	assert.Equal(t, 1, strings.Count(out, `ready(("ready"))`))
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	out := graph.GenerateMermaid(state.Edges(), &graph.Overlay{Current: domain.StatePaused, Progress: 0.45})

	assert.Contains(t, out, `paused{{"paused <br/> 45%"}}`)
	assert.Contains(t, out, "class paused current;")
}

func TestGenerateMermaid_UnlabelledEdge(t *testing.T) {
	out := graph.GenerateMermaid([]state.Edge{{From: "a", To: "b"}}, nil)
	assert.Contains(t, out, "a --> b")
}
