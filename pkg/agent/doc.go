// Package agent defines the external invocation collaborator consumed by
// the orchestrator: the Invoker capability interface, failure
// classification for retry decisions, and the built-in HTTP and local
// implementations.
package agent
