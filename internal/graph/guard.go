package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/claims-authz-harness/internal/domain"
	"github.com/xela07ax/claims-authz-harness/internal/infra"
	"github.com/xela07ax/claims-authz-harness/internal/policy"
)

// ErrInvalidProtection — привязка с пустым типом или пустым именем политики.
var ErrInvalidProtection = errors.New("invalid type protection")

// DuplicateProtectionError — тип привязан к политике больше одного раза.
type DuplicateProtectionError struct {
	TypeName string
}

func (e *DuplicateProtectionError) Error() string {
	return fmt.Sprintf("type %s is protected more than once", e.TypeName)
}

// Protections — статическая привязка GraphQL типа к имени политики.
//
// Привязка действует на тип, а не на поле: каждый резолвер, который отдает
// защищенный тип (в том числе вложенный), обязан вызвать Guard.Check до того,
// как построить его резолвер. Схема сама этого не проверяет.
type Protections map[string]string

// NewProtections строит привязки из конфига. Повтор типа — ошибка, а не
// "последний победил"; пустые type/policy тоже отклоняются. Все ошибки собираются.
func NewProtections(cfgs []infra.ProtectionConfig) (Protections, error) {
	p := make(Protections, len(cfgs))
	var errs []error
	for i, c := range cfgs {
		switch {
		case c.Type == "":
			errs = append(errs, fmt.Errorf("%w: entry #%d has empty type", ErrInvalidProtection, i))
			continue
		case c.Policy == "":
			errs = append(errs, fmt.Errorf("%w: type %s has empty policy", ErrInvalidProtection, c.Type))
			continue
		}
		if _, ok := p[c.Type]; ok {
			errs = append(errs, &DuplicateProtectionError{TypeName: c.Type})
			continue
		}
		p[c.Type] = c.Policy
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate проверяет, что каждая упомянутая политика зарегистрирована.
// Вызывается при старте: неизвестная политика — ошибка конфигурации, а не отказ на запросе.
func (p Protections) Validate(reg *policy.Registry) error {
	types := make([]string, 0, len(p))
	for t := range p {
		types = append(types, t)
	}
	sort.Strings(types)

	var errs []error
	for _, t := range types {
		if _, err := reg.Lookup(p[t]); err != nil {
			errs = append(errs, fmt.Errorf("type %s: %w", t, err))
		}
	}
	return errors.Join(errs...)
}

// AccessDeniedError — отказ в доступе к конкретному полю. Остальной ответ не прерывается.
type AccessDeniedError struct {
	TypeName string
	Decision policy.Decision
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: type %s requires policy %q", e.TypeName, e.Decision.Policy)
}

// Extensions попадает в errors[].extensions ответа GraphQL.
func (e *AccessDeniedError) Extensions() map[string]interface{} {
	failed := make([]string, len(e.Decision.FailedRequirements))
	for i, req := range e.Decision.FailedRequirements {
		failed[i] = req.String()
	}
	return map[string]interface{}{
		"code":                "ACCESS_DENIED",
		"type":                e.TypeName,
		"policy":              e.Decision.Policy,
		"failed_requirements": failed,
	}
}

// Guard — слой доступа к типам схемы. Резолверы вызывают Check перед выдачей защищенного типа.
type Guard struct {
	gate        *policy.Gate
	protections Protections
	metrics     *Metrics
	logger      *zap.Logger
}

func NewGuard(gate *policy.Gate, protections Protections, metrics *Metrics, logger *zap.Logger) *Guard {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Guard{
		gate:        gate,
		protections: protections,
		metrics:     metrics,
		logger:      logger.Named("guard"),
	}
}

// Check возвращает nil для незащищенного типа и для разрешенного доступа,
// *AccessDeniedError при отказе.
func (g *Guard) Check(ctx context.Context, typeName string) error {
	policyName, ok := g.protections[typeName]
	if !ok {
		return nil
	}

	uc, _ := domain.UserContextFrom(ctx)

	start := time.Now()
	d, err := g.gate.Evaluate(policyName, uc)
	g.metrics.EvaluationDuration.WithLabelValues(policyName).Observe(time.Since(start).Seconds())

	if err != nil {
		// Сюда не должны попадать после Validate при старте
		g.metrics.ErrorTotal.WithLabelValues("unknown_policy").Inc()
		g.logger.Error("policy evaluation failed",
			zap.String("type", typeName), zap.String("policy", policyName), zap.Error(err))
		return fmt.Errorf("authorization misconfigured for type %s: %w", typeName, err)
	}

	if !d.Allowed {
		g.metrics.Decisions.WithLabelValues(typeName, policyName, "deny").Inc()
		g.logger.Debug("access denied",
			zap.String("type", typeName),
			zap.String("policy", policyName),
			zap.String("identity", uc.Identity()),
			zap.String("failed", d.Reason()))
		return &AccessDeniedError{TypeName: typeName, Decision: d}
	}

	g.metrics.Decisions.WithLabelValues(typeName, policyName, "allow").Inc()
	return nil
}
