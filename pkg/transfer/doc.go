/*
Package transfer moves the compiled program to the chain and coordinates
pause, resume and cancel requests for every suspension step of a deployment.

Control wraps a unit of work (the transfer, or a polling loop) in an attempt
context. A pause request cancels the attempt, moves the holder from loading to
paused and asks the operator whether to continue. Continuing restarts the work
in a fresh attempt; declining moves the holder to cancelled and Do returns
domain.ErrCancelled.

Transfer writes the payload to a Sink in chunks and remembers the last
acknowledged offset, so an attempt restarted after a pause continues where the
previous one stopped.
*/
package transfer
