// Package authz answers "may this role do that" from a role -> capability
// policy. Roles inherit capabilities from the roles listed in "inherits".
package authz

import (
	_ "embed"
	"fmt"

	"ecshop/internal/domain/model"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

type policyFile struct {
	Roles map[string]rolePolicy `yaml:"roles"`
}

type rolePolicy struct {
	Inherits     []string `yaml:"inherits"`
	Capabilities []string `yaml:"capabilities"`
}

type Authorizer struct {
	enforcer *casbin.Enforcer
}

// 組み込みのポリシーで作る
func NewDefault() (*Authorizer, error) {
	return New(defaultPolicy)
}

func New(policyYAML []byte) (*Authorizer, error) {
	var pf policyFile
	if err := yaml.Unmarshal(policyYAML, &pf); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}

	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}

	for role, rp := range pf.Roles {
		if !model.Role(role).Valid() {
			return nil, fmt.Errorf("unknown role %q in policy", role)
		}
		for _, parent := range rp.Inherits {
			if _, ok := pf.Roles[parent]; !ok {
				return nil, fmt.Errorf("role %q inherits unknown role %q", role, parent)
			}
			if _, err := e.AddGroupingPolicy(role, parent); err != nil {
				return nil, err
			}
		}
		for _, raw := range rp.Capabilities {
			c, err := ParseCapability(raw)
			if err != nil {
				return nil, fmt.Errorf("role %q: %w", role, err)
			}
			if _, err := e.AddPolicy(role, c.Resource, c.Action); err != nil {
				return nil, err
			}
		}
	}

	return &Authorizer{enforcer: e}, nil
}

// 権限が無い・判定できないときはfalse
func (a *Authorizer) Can(role model.Role, c Capability) bool {
	if !role.Valid() {
		return false
	}
	ok, err := a.enforcer.Enforce(string(role), c.Resource, c.Action)
	return err == nil && ok
}
