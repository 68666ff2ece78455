package domain

import (
	"context"
	"strings"
)

// Claim — типизированное утверждение о субъекте (например, role=Admin).
type Claim struct {
	Type  string `json:"type" mapstructure:"type"`
	Value string `json:"value" mapstructure:"value"`
}

func (c Claim) String() string {
	return c.Type + "=" + c.Value
}

// UserContext — снимок клеймов аутентифицированного субъекта на время одного запроса.
// Создается один раз на входе запроса и больше не меняется: конструктор — единственная точка записи.
type UserContext struct {
	identity string
	claims   []Claim
}

// NewUserContext копирует переданные клеймы, чтобы вызывающий не мог изменить их после построения.
func NewUserContext(identity string, claims []Claim) *UserContext {
	cp := make([]Claim, len(claims))
	copy(cp, claims)
	return &UserContext{identity: identity, claims: cp}
}

// Anonymous возвращает контекст без клеймов и без идентичности.
func Anonymous() *UserContext {
	return &UserContext{}
}

// Identity — необязательная метка идентичности (sub из токена).
func (u *UserContext) Identity() string {
	if u == nil {
		return ""
	}
	return u.identity
}

// Claims возвращает копию набора клеймов.
func (u *UserContext) Claims() []Claim {
	if u == nil {
		return nil
	}
	cp := make([]Claim, len(u.claims))
	copy(cp, u.claims)
	return cp
}

// HasClaim — точное (регистрозависимое) совпадение и типа, и значения.
func (u *UserContext) HasClaim(claimType, value string) bool {
	if u == nil {
		return false
	}
	for _, c := range u.claims {
		if c.Type == claimType && c.Value == value {
			return true
		}
	}
	return false
}

// FindAll возвращает значения всех клеймов указанного типа в исходном порядке.
func (u *UserContext) FindAll(claimType string) []string {
	if u == nil {
		return nil
	}
	var values []string
	for _, c := range u.claims {
		if c.Type == claimType {
			values = append(values, c.Value)
		}
	}
	return values
}

// FindFirst возвращает значение первого клейма указанного типа.
func (u *UserContext) FindFirst(claimType string) (string, bool) {
	if u == nil {
		return "", false
	}
	for _, c := range u.claims {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

// IsAuthenticated: субъект считается аутентифицированным, если есть идентичность или хотя бы один клейм.
func (u *UserContext) IsAuthenticated() bool {
	if u == nil {
		return false
	}
	return u.identity != "" || len(u.claims) > 0
}

// String сериализует клеймы в виде "type=value, type=value".
func (u *UserContext) String() string {
	if u == nil {
		return ""
	}
	parts := make([]string, 0, len(u.claims))
	for _, c := range u.claims {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ", ")
}

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey struct{}

// WithUserContext кладет UserContext в context.Context запроса.
func WithUserContext(ctx context.Context, u *UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserContextFrom достает UserContext. Если его нет — возвращает анонимный контекст и false.
func UserContextFrom(ctx context.Context) (*UserContext, bool) {
	if u, ok := ctx.Value(ctxKey{}).(*UserContext); ok && u != nil {
		return u, true
	}
	return Anonymous(), false
}
