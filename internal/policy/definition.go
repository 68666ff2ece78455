package policy

import (
	"errors"
	"fmt"
)

// RequirementKind определяет вид требования в конфигурации
type RequirementKind string

const (
	KindClaimEquals   RequirementKind = "claim_equals"
	KindClaimExists   RequirementKind = "claim_exists"
	KindClaimOneOf    RequirementKind = "claim_one_of"
	KindAuthenticated RequirementKind = "authenticated"
)

// RequirementDefinition — сериализуемая форма требования (config.yaml или JSONB в Postgres).
type RequirementDefinition struct {
	Kind   RequirementKind `mapstructure:"kind" json:"kind"`
	Type   string          `mapstructure:"type" json:"type,omitempty"`
	Value  string          `mapstructure:"value" json:"value,omitempty"`
	Values []string        `mapstructure:"values" json:"values,omitempty"`
}

// Definition — описание политики до компиляции в Requirement.
type Definition struct {
	Name         string                  `mapstructure:"name" json:"name"`
	Requirements []RequirementDefinition `mapstructure:"requirements" json:"requirements"`
}

// Compile превращает описание в типизированный Requirement.
func (d RequirementDefinition) Compile() (Requirement, error) {
	switch d.Kind {
	case KindClaimEquals:
		if d.Type == "" {
			return nil, fmt.Errorf("%w: %s requires type", ErrInvalidPolicy, d.Kind)
		}
		return ClaimEquals{Type: d.Type, Value: d.Value}, nil
	case KindClaimExists:
		if d.Type == "" {
			return nil, fmt.Errorf("%w: %s requires type", ErrInvalidPolicy, d.Kind)
		}
		return ClaimExists{Type: d.Type}, nil
	case KindClaimOneOf:
		if d.Type == "" || len(d.Values) == 0 {
			return nil, fmt.Errorf("%w: %s requires type and values", ErrInvalidPolicy, d.Kind)
		}
		values := make([]string, len(d.Values))
		copy(values, d.Values)
		return ClaimOneOf{Type: d.Type, Values: values}, nil
	case KindAuthenticated:
		return Authenticated{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown requirement kind %q", ErrInvalidPolicy, d.Kind)
	}
}

// Compile собирает все требования политики по порядку.
func (d Definition) Compile() ([]Requirement, error) {
	reqs := make([]Requirement, 0, len(d.Requirements))
	for i, rd := range d.Requirements {
		req, err := rd.Compile()
		if err != nil {
			return nil, fmt.Errorf("policy %q requirement #%d: %w", d.Name, i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// BuildRegistry регистрирует все описания и запечатывает реестр.
// Ошибки не прерывают обход: возвращаются все сразу, чтобы старт падал с полным списком проблем.
func BuildRegistry(defs []Definition) (*Registry, error) {
	reg := NewRegistry()

	var errs []error
	for _, d := range defs {
		reqs, err := d.Compile()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := reg.Register(d.Name, reqs...); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	reg.Seal()
	return reg, nil
}
