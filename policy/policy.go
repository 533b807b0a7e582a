// Package policy decides whether an admin request may control the
// wall, evaluated as a Rego policy.
package policy

import (
	"context"
	_ "embed"
	"os"

	"github.com/open-policy-agent/opa/rego"
	"go.uber.org/zap"
)

//go:embed admin.rego
var defaultModule string

// Input describes a control request being authorized.
type Input struct {
	Subject   string   `json:"subject"`
	Audiences []string `json:"audiences"`
	Action    string   `json:"action"`
	ScreenID  int      `json:"screen_id"`
}

type Policy struct {
	query rego.PreparedEvalQuery
	log   *zap.Logger
}

// New compiles the admin policy. A non-empty path overrides the
// built-in module with a site-specific one.
func New(ctx context.Context, path string) (*Policy, error) {
	module := defaultModule
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		module = string(data)
	}

	query, err := rego.New(
		rego.Query("data.posterwall.admin.allow"),
		rego.Module("admin.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("package", "policy"),
	)

	return &Policy{
		query: query,
		log:   log,
	}, nil
}

// Allow evaluates the policy for one request.
func (p *Policy) Allow(ctx context.Context, input Input) bool {
	results, err := p.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		p.log.Error("policy evaluation failed", zap.Error(err))
		return false
	}

	allowed := results.Allowed()
	if !allowed {
		p.log.Warn("control request denied",
			zap.String("subject", input.Subject),
			zap.String("action", input.Action),
		)
	}

	return allowed
}
