package policy

import (
	"fmt"
	"sort"
)

// Policy — именованный упорядоченный набор требований. После регистрации не меняется.
type Policy struct {
	Name         string
	Requirements []Requirement
}

// Registry хранит политики по имени.
// Наполняется один раз при старте, затем запечатывается через Seal() и дальше
// используется только на чтение, поэтому блокировки в горячем пути не нужны.
type Registry struct {
	policies map[string]Policy
	sealed   bool
}

func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]Policy)}
}

// Register добавляет политику. Повторная регистрация имени — ошибка (fail-fast),
// тихого "первый победил" нет.
func (r *Registry) Register(name string, reqs ...Requirement) error {
	if r.sealed {
		return fmt.Errorf("register %q: %w", name, ErrRegistrySealed)
	}
	if name == "" {
		return fmt.Errorf("%w: empty policy name", ErrInvalidPolicy)
	}
	if _, ok := r.policies[name]; ok {
		return &DuplicatePolicyError{Name: name}
	}
	for i, req := range reqs {
		if req == nil {
			return fmt.Errorf("%w: policy %q requirement #%d is nil", ErrInvalidPolicy, name, i)
		}
	}

	r.policies[name] = Policy{Name: name, Requirements: cloneRequirements(reqs)}
	return nil
}

// Lookup возвращает копию политики по имени или *UnknownPolicyError.
// Изменение результата не затрагивает зарегистрированную политику.
func (r *Registry) Lookup(name string) (Policy, error) {
	p, ok := r.policies[name]
	if !ok {
		return Policy{}, &UnknownPolicyError{Name: name}
	}
	return Policy{Name: p.Name, Requirements: cloneRequirements(p.Requirements)}, nil
}

// get отдает внутреннее значение без копирования. Только для чтения внутри пакета (Gate).
func (r *Registry) get(name string) (Policy, error) {
	p, ok := r.policies[name]
	if !ok {
		return Policy{}, &UnknownPolicyError{Name: name}
	}
	return p, nil
}

// cloneRequirements делает глубокую копию: слайсы внутри требований не разделяются с вызывающим.
func cloneRequirements(reqs []Requirement) []Requirement {
	cp := make([]Requirement, len(reqs))
	for i, req := range reqs {
		cp[i] = req.clone()
	}
	return cp
}

// Seal переводит реестр в режим только для чтения. Вызывается до приема трафика.
func (r *Registry) Seal() {
	r.sealed = true
}

func (r *Registry) Sealed() bool {
	return r.sealed
}

// Names возвращает отсортированный список имен (для логов при старте).
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	return len(r.policies)
}
