package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/state"
)

// Overlay marks the live state on the diagram.
type Overlay struct {
	Current  domain.DeployState
	Progress float64
}

// edgeLabels names what drives each transition.
var edgeLabels = map[state.Edge]string{
	{From: domain.StateReady, To: domain.StateLoading}:     "deploy",
	{From: domain.StateLoading, To: domain.StatePaused}:    "pause / cancel",
	{From: domain.StateLoading, To: domain.StateReady}:     "settled",
	{From: domain.StatePaused, To: domain.StateLoading}:    "resume",
	{From: domain.StatePaused, To: domain.StateCancelled}:  "decline",
	{From: domain.StatePaused, To: domain.StateReady}:      "failed",
	{From: domain.StateCancelled, To: domain.StateReady}:   "settled",
}

// GenerateMermaid produces a Mermaid flowchart of the deployment lifecycle.
// Ready is drawn as a circle, paused as a hexagon. The overlay, when given,
// highlights the current state.
func GenerateMermaid(edges []state.Edge, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	seen := make(map[domain.DeployState]bool)
	node := func(s domain.DeployState) {
		if seen[s] {
			return
		}
		seen[s] = true
		opener, closer := "[", "]"
		switch s {
		case domain.StateReady:
			opener, closer = "((", "))"
		case domain.StatePaused:
			opener, closer = "{{", "}}"
		}
		label := string(s)
		if overlay != nil && overlay.Current == s && s != domain.StateReady {
			label = fmt.Sprintf("%s <br/> %d%%", s, int(overlay.Progress*100))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", s, opener, label, closer)
	}

	for _, e := range edges {
		node(e.From)
		node(e.To)
		arrow := "-->"
		if l, ok := edgeLabels[e]; ok {
			arrow = fmt.Sprintf("-- \"%s\" -->", l)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", e.From, arrow, e.To)
	}

	if overlay != nil && overlay.Current != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// black text stays readable on both light and dark themes
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", overlay.Current)
	}
	return sb.String()
}
