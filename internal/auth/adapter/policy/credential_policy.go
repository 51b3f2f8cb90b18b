package policy

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
)

var (
	ErrPolicyRejected = errors.New("credentials do not satisfy the configured policy")
)

// CredentialPolicy evaluates the configurable signup validation rules as a
// compiled CEL expression. The expression sees `name`, `email` and `password`
// as strings and must evaluate to a boolean.
type CredentialPolicy struct {
	program cel.Program
	source  string
}

// NewCredentialPolicy compiles the policy expression once; evaluation is then
// cheap enough to run on every signup.
func NewCredentialPolicy(expression string) (*CredentialPolicy, error) {
	if expression == "" {
		return nil, errors.New("credential policy expression cannot be empty")
	}

	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("name", decls.String),
			decls.NewVar("email", decls.String),
			decls.NewVar("password", decls.String),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid credential policy %q: %w", expression, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build policy program: %w", err)
	}

	return &CredentialPolicy{program: program, source: expression}, nil
}

// Evaluate runs the policy against a signup request. A non-boolean result is
// treated as a rejection.
func (p *CredentialPolicy) Evaluate(name, email, password string) error {
	out, _, err := p.program.Eval(map[string]interface{}{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("credential policy evaluation failed: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok || !allowed {
		return ErrPolicyRejected
	}
	return nil
}

// Source returns the configured expression, for diagnostics.
func (p *CredentialPolicy) Source() string {
	return p.source
}
