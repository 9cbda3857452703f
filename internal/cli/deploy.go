package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/deploykit"
	"github.com/aretw0/deploykit/internal/config"
	"github.com/aretw0/deploykit/internal/presentation/tui"
	"github.com/aretw0/deploykit/internal/runtime"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/runner"
	"github.com/aretw0/deploykit/pkg/state"
)

// ErrDeploymentFailed is returned when a run settles without a contract.
// The operator has already seen the reason.
var ErrDeploymentFailed = errors.New("deployment failed")

// Terminal is where an interactive command reads answers and writes output.
type Terminal struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// RunDeploy performs one deployment in the foreground. Interrupts pause the
// deployment and ask whether to continue; a second interrupt cancels it.
func RunDeploy(ctx context.Context, cfg config.Config, opts RunOptions, term Terminal) (domain.Outcome, error) {
	printer := tui.NewPrinter(term.Out)
	if !opts.Quiet {
		tui.PrintBanner(term.Out)
	}

	var copts []runner.ConfirmerOption
	if opts.AssumeYes {
		copts = append(copts, runner.WithInteractive(false))
	}
	confirmer := runner.NewTerminalConfirmer(term.In, term.Err, copts...)

	stack, err := NewStack(ctx, cfg, opts,
		deploykit.WithReporter(printer),
		deploykit.WithConfirmer(confirmer),
	)
	if err != nil {
		return domain.Outcome{}, err
	}
	defer stack.Close()

	stop := stack.Deployer.Observe(func(c state.Change) {
		if c.To == domain.StateLoading && !opts.Quiet {
			printer.Progress(c.Progress)
		}
	})
	defer stop()

	sm := runner.NewSignalManager(ctx, stack.Deployer,
		runner.WithSignalLogger(stack.Logger),
		runner.OnSignal(func(a runner.Action) {
			if a == runner.ActionCancel {
				printer.Report(runtime.Message{Level: runtime.LevelWarning, Title: "Cancelling deployment..."})
			}
		}),
	)
	defer sm.Stop()

	out, err := stack.Deployer.Deploy(sm.Context())
	printer.Done()
	if err != nil && out.Status == "" {
		return out, err
	}

	if !opts.Quiet && out.Status != domain.OutcomeIgnored {
		if md, rerr := tui.NewRenderer()(tui.Summary(out)); rerr == nil {
			fmt.Fprint(term.Out, md)
		}
	}
	switch out.Status {
	case domain.OutcomeSucceeded, domain.OutcomeCancelled:
		return out, nil
	case domain.OutcomeIgnored:
		return out, errors.New("a deployment is already in progress")
	}
	return out, ErrDeploymentFailed
}
