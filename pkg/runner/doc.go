/*
Package runner connects a deployment to the terminal it runs in.

TerminalConfirmer asks the operator whether a paused deployment should continue.
SignalManager turns OS signals into deployment requests: the first interrupt pauses
the running deployment, a second one while paused cancels it, and an interrupt with
nothing in flight ends the process context.

# Usage

	d, _ := deploykit.New(chain, artifact,
		deploykit.WithConfirmer(runner.NewTerminalConfirmer(os.Stdin, os.Stderr)),
	)

	sm := runner.NewSignalManager(context.Background(), d)
	defer sm.Stop()

	out, err := d.Deploy(sm.Context())
*/
package runner
