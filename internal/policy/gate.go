package policy

import (
	"strings"

	"github.com/xela07ax/claims-authz-harness/internal/domain"
)

// Decision — результат проверки политики. Отказ — это нормальный исход, а не ошибка.
type Decision struct {
	Policy             string
	Allowed            bool
	FailedRequirements []Requirement
}

// Reason возвращает невыполненные требования одной строкой (для логов и ответа клиенту).
func (d Decision) Reason() string {
	if d.Allowed {
		return ""
	}
	parts := make([]string, len(d.FailedRequirements))
	for i, req := range d.FailedRequirements {
		parts[i] = req.String()
	}
	return strings.Join(parts, "; ")
}

// Gate принимает решение allow/deny по имени политики и контексту пользователя.
// Не имеет изменяемого состояния: безопасен для конкурентных вызовов.
type Gate struct {
	registry *Registry
}

func NewGate(registry *Registry) *Gate {
	return &Gate{registry: registry}
}

// Evaluate — чистая функция от (политика, контекст).
// Все требования проверяются без short-circuit, чтобы собрать полный список невыполненных.
// Неизвестная политика возвращается как *UnknownPolicyError, а не как отказ.
func (g *Gate) Evaluate(policyName string, u *domain.UserContext) (Decision, error) {
	p, err := g.registry.get(policyName)
	if err != nil {
		return Decision{}, err
	}
	if u == nil {
		u = domain.Anonymous()
	}

	d := Decision{Policy: p.Name, Allowed: true}
	for _, req := range p.Requirements {
		if !req.IsSatisfiedBy(u) {
			d.Allowed = false
			d.FailedRequirements = append(d.FailedRequirements, req.clone())
		}
	}
	return d, nil
}
