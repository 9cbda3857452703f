/*
Package deploykit drives the deployment of a compiled smart contract to an aelf chain.

A deployment submits the program, waits for the transaction to be mined and, when the
chain requires governance approval, waits for the deployment proposal to release the
contract or expire. The operator can pause, resume or cancel the run at any time; a
paused transfer continues from the last acknowledged offset.

# Concept

The Deployer owns a single observable state machine:

	ready -> loading -> (paused -> loading)* -> ready
	                    paused -> cancelled -> ready

Exactly one run may be in flight. Progress only grows while a run is loading or paused
and is reset to 0 when it settles. Every failure leaves Deploy as a *domain.Failure
carrying a stable kind and an operator-facing message; a cancelled run is not a failure.

Adapters plug the Deployer into the outside world: pkg/adapters/aelf talks to a node,
explorer and faucet; pkg/adapters/memory scripts a chain for tests and dry runs;
pkg/adapters/http and pkg/adapters/mcp expose the controls to remote operators.

# Usage

	chain := aelf.New(aelf.WithSigner(signer))
	d, err := deploykit.New(chain, file.NewArtifact("build/contract.dll"),
		deploykit.WithLinker(aelf.NewExplorer(aelf.DefaultExplorerURL, aelf.DefaultCluster)),
	)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		<-interrupt
		_ = d.Pause()
	}()

	out, err := d.Deploy(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Message)
*/
package deploykit
