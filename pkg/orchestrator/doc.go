// Package orchestrator composes the agent registry, selection policy,
// compliance guard and guarded executor into the task processing core.
//
// ProcessTask routes one request: it selects an agent, validates and masks
// the request, invokes the agent under a timeout with retries, filters the
// response and assembles a TaskResponse.
// ProcessBatch fans out independent ProcessTask calls concurrently and
// always returns one response per request in input order; a failing or
// timed-out task becomes a failed/timeout response in place, never an error
// that cancels its siblings.
package orchestrator
