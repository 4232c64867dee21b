// Package domain defines the core business types for the taskmesh
// orchestration layer.
//
// This package contains pure domain logic with no infrastructure coupling:
// agent descriptors, task requests and responses, guardrail configuration
// and the shared error vocabulary. Constructors validate their inputs and
// never return partially-built values; a descriptor or request that exists
// is a descriptor or request that passed validation.
//
// Other packages (registry, compliance, orchestrator, agent) depend on these
// types. The dependency direction is always Infrastructure → Domain.
package domain
