// Package handles keeps the containers of an iteration-indexed run open.
//
// A Cache maps iteration ids to containers named "<base>_<id>.<ext>" on a
// blob store. It opens each container on first use, runs the registered
// create and open callbacks, and keeps at most MaxHandles containers open,
// closing the least recently used one when the bound is reached.
//
// In ModeCreate the first Get of an id is collective: rank 0 of the
// communicator truncates the container, every rank waits at a barrier, and
// then every rank opens it and runs the create callback.
package handles
