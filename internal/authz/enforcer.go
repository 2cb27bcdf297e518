// Package authz decides which role may reach which route, using a casbin
// RBAC model with the rules embedded in the binary.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"motoclub/internal/logging"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Anonymous is the subject used for requests without a session.
const Anonymous = "anonymous"

// RoleSuperset is the role granted every permission through inheritance.
const RoleSuperset = "admin"

// Enforcer wraps a casbin synced enforcer.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an enforcer from the embedded model and policy.
// POST: returns a ready enforcer or the load error
func NewEnforcer() (*Enforcer, error) {
	return NewEnforcerFromStrings(embeddedModel, embeddedPolicy)
}

// NewEnforcerFromStrings builds an enforcer from an explicit model and policy.
func NewEnforcerFromStrings(modelText, policy string) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, policy); err != nil {
		return nil, err
	}
	return &Enforcer{enforcer: enforcer}, nil
}

// loadPolicy parses the CSV policy, skipping comments and blank lines.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch parts[0] {
		case "p":
			if len(parts) != 4 {
				return fmt.Errorf("malformed policy line %q", line)
			}
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case "g":
			if len(parts) != 3 {
				return fmt.Errorf("malformed grouping line %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("unknown policy type %q", parts[0])
		}
	}
	return nil
}

// Allowed reports whether role may perform method on path.
// An empty role is treated as Anonymous. Enforcement errors deny.
func (e *Enforcer) Allowed(role, path, method string) bool {
	if role == "" {
		role = Anonymous
	}
	ok, err := e.enforcer.Enforce(role, path, method)
	if err != nil {
		logging.Error().Err(err).Str("role", role).Str("path", path).Msg("authz_error")
		return false
	}
	return ok
}

// Protected reports whether any rule names path, i.e. whether an anonymous
// request must be turned away.
func (e *Enforcer) Protected(path, method string) bool {
	return !e.Allowed(Anonymous, path, method) && e.Allowed(RoleSuperset, path, method)
}
