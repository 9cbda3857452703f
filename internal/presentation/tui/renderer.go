package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/deploykit/internal/runtime"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown for the terminal.
// The style follows the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return func(md string) (string, error) { return md, nil }
	}
	return r.Render
}

// Summary describes a settled deployment as a markdown document.
func Summary(o domain.Outcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Deployment %s\n\n", o.Status)

	rows := [][2]string{
		{"Session", o.SessionID},
		{"Transaction", o.TransactionID},
		{"Proposal", o.ProposalID},
		{"Contract", o.ContractAddress},
	}
	if o.Elapsed > 0 {
		rows = append(rows, [2]string{"Elapsed", runtime.FormatElapsed(o.Elapsed)})
	}
	if o.Failure != nil {
		rows = append(rows, [2]string{"Failure", string(o.Failure.Kind)})
	}

	sb.WriteString("| Field | Value |\n|---|---|\n")
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(&sb, "| %s | `%s` |\n", r[0], r[1])
	}

	if o.ExplorerURL != "" {
		fmt.Fprintf(&sb, "\n[View on explorer](%s)\n", o.ExplorerURL)
	}
	if o.Failure != nil {
		fmt.Fprintf(&sb, "\n> %s\n", o.Failure.Display)
	}
	return sb.String()
}
