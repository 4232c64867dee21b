package orchestrator

import "github.com/taskmesh/taskmesh/pkg/domain"

// SelectionPolicy picks an agent for a request from a registry snapshot.
// Policies must be pure: same request and snapshot, same answer.
type SelectionPolicy func(req domain.TaskRequest, agents []domain.AgentDescriptor) (domain.AgentDescriptor, bool)

// PreferenceFirst is the default selection policy: a satisfiable type
// preference on the request always wins; otherwise the first enabled agent
// in registration order is chosen. Deliberately simple: no load or cost
// awareness.
func PreferenceFirst(req domain.TaskRequest, agents []domain.AgentDescriptor) (domain.AgentDescriptor, bool) {
	if req.PreferredAgent != "" {
		for _, desc := range agents {
			if desc.Type == req.PreferredAgent && desc.Enabled {
				return desc, true
			}
		}
	}

	for _, desc := range agents {
		if desc.Enabled {
			return desc, true
		}
	}
	return domain.AgentDescriptor{}, false
}
