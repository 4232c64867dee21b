package compliance

import (
	"context"
	"fmt"
	"strings"

	//nolint:staticcheck // OPA v1 migration pending
	"github.com/open-policy-agent/opa/ast"
	//nolint:staticcheck // OPA v1 migration pending
	"github.com/open-policy-agent/opa/rego"
)

// AccessPolicy decides whether a user may act on a resource. Implementations
// are collaborators injected into the Guard; the core ships a Rego-backed
// one but any decision source fits.
type AccessPolicy interface {
	Allow(ctx context.Context, userID, resource string) (bool, error)
}

// AccessPolicyFunc adapts a plain function into an AccessPolicy.
type AccessPolicyFunc func(ctx context.Context, userID, resource string) (bool, error)

// Allow implements AccessPolicy.
func (f AccessPolicyFunc) Allow(ctx context.Context, userID, resource string) (bool, error) {
	return f(ctx, userID, resource)
}

const defaultAccessQuery = "data.taskmesh.authz.allow"

// RegoAccessPolicy evaluates access decisions with an embedded OPA instance.
// The policy module is compiled once at construction; evaluation input is
// {"user_id": ..., "resource": ...}.
type RegoAccessPolicy struct {
	query rego.PreparedEvalQuery
}

// NewRegoAccessPolicy compiles the given Rego module and prepares the
// decision query (default data.taskmesh.authz.allow).
func NewRegoAccessPolicy(ctx context.Context, module string, query string) (*RegoAccessPolicy, error) {
	if strings.TrimSpace(module) == "" {
		return nil, fmt.Errorf("compliance: access policy requires a rego module")
	}
	if strings.TrimSpace(query) == "" {
		query = defaultAccessQuery
	}

	parsed, err := ast.ParseModuleWithOpts("authz.rego", module, ast.ParserOptions{RegoVersion: ast.RegoV1})
	if err != nil {
		return nil, fmt.Errorf("compliance: parse rego module: %w", err)
	}

	prepared, err := rego.New(
		rego.Query(query),
		rego.ParsedModule(parsed),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compliance: compile rego module: %w", err)
	}

	return &RegoAccessPolicy{query: prepared}, nil
}

// Allow implements AccessPolicy.
func (p *RegoAccessPolicy) Allow(ctx context.Context, userID, resource string) (bool, error) {
	results, err := p.query.Eval(ctx, rego.EvalInput(map[string]any{
		"user_id":  userID,
		"resource": resource,
	}))
	if err != nil {
		return false, fmt.Errorf("compliance: evaluate access policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("compliance: access policy returned non-boolean decision %T", results[0].Expressions[0].Value)
	}
	return allowed, nil
}
