package application

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Policy carries accounting settings injected into the posting core and its
// callers. Values the core itself does not use (VAT rate, approval threshold)
// are passed through to calling modules rather than read from global state.
type Policy struct {
	DefaultPrefix                  string  `yaml:"default_prefix"`
	ReversalPrefix                 string  `yaml:"reversal_prefix"`
	PreventPostingToParentAccounts bool    `yaml:"prevent_posting_to_parent_accounts"`
	VATRate                        float64 `yaml:"vat_rate"`
	ApprovalThreshold              float64 `yaml:"approval_threshold"`
}

// DefaultPolicy returns the built-in settings.
func DefaultPolicy() Policy {
	return Policy{
		DefaultPrefix:                  "JV",
		PreventPostingToParentAccounts: true,
		VATRate:                        0.15,
	}
}

// LoadPolicy reads settings from a yaml file over the defaults. An empty path
// returns the defaults unchanged.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return policy, err
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, err
	}
	return policy.withDefaults(), nil
}

func (p Policy) withDefaults() Policy {
	if p.DefaultPrefix == "" {
		p.DefaultPrefix = "JV"
	}
	if p.ReversalPrefix == "" {
		p.ReversalPrefix = p.DefaultPrefix
	}
	return p
}
