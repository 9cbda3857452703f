package tui_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/deploykit/internal/presentation/tui"
	"github.com/aretw0/deploykit/internal/runtime"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Greater(t, strings.Count(buf.String(), "\n"), 6)
}

func TestPrinter_Report(t *testing.T) {
	var buf bytes.Buffer
	p := tui.NewPlainPrinter(&buf)

	p.Report(runtime.Message{Level: runtime.LevelInfo, Title: "Deploying...", Text: "12 bytes"})
	p.Report(runtime.Message{Level: runtime.LevelError, Title: "Deployment error:", Text: "boom."})

	assert.Equal(t, "• Deploying... 12 bytes\n✘ Deployment error: boom.\n", buf.String())
}

func TestPrinter_ProgressBreaksBeforeMessage(t *testing.T) {
	var buf bytes.Buffer
	p := tui.NewPlainPrinter(&buf)

	p.Progress(0.5)
	p.Progress(1.5)
	p.Report(runtime.Message{Level: runtime.LevelSuccess, Text: "done"})
	p.Done()

	out := buf.String()
	assert.Contains(t, out, " 50%")
	assert.Contains(t, out, "100%")
	assert.True(t, strings.HasSuffix(out, "\n✔ done\n"))
}

func TestSummary(t *testing.T) {
	md := tui.Summary(domain.Outcome{
		Status:          domain.OutcomeSucceeded,
		TransactionID:   "tx-1",
		ContractAddress: "addr",
		ExplorerURL:     "https://explorer.test/tx/tx-1",
		Elapsed:         4200 * time.Millisecond,
	})

	assert.Contains(t, md, "## Deployment succeeded")
	assert.Contains(t, md, "| Transaction | `tx-1` |")
	assert.Contains(t, md, "| Elapsed | `4.2s` |")
	assert.NotContains(t, md, "Proposal")
	assert.Contains(t, md, "(https://explorer.test/tx/tx-1)")
}

func TestSummary_Failure(t *testing.T) {
	md := tui.Summary(domain.Outcome{
		Status:  domain.OutcomeFailed,
		Failure: &domain.Failure{Kind: domain.KindNotBuilt, Display: "Contract not built."},
	})
	assert.Contains(t, md, "| Failure | `NotBuilt` |")
	assert.Contains(t, md, "> Contract not built.")
}

func TestRenderer(t *testing.T) {
	out, err := tui.NewRenderer()("# Title")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}
