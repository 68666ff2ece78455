package auth

import (
	"errors"
	"net/http"

	"github.com/xela07ax/claims-authz-harness/internal/domain"
)

// ErrNoToken — запрос пришел без Authorization. Не ошибка: такой запрос обслуживается анонимно.
var ErrNoToken = errors.New("no access token")

// ContextBuilder строит UserContext один раз на входящий запрос.
// Это точка расширения: харнесс и тесты могут подменить реализацию целиком.
type ContextBuilder interface {
	Build(r *http.Request) (*domain.UserContext, error)
}

// ContextBuilderFunc позволяет использовать функцию как ContextBuilder.
type ContextBuilderFunc func(r *http.Request) (*domain.UserContext, error)

func (f ContextBuilderFunc) Build(r *http.Request) (*domain.UserContext, error) {
	return f(r)
}

// TokenContextBuilder берет клеймы из Bearer-токена.
type TokenContextBuilder struct {
	validator TokenValidator
}

func NewTokenContextBuilder(v TokenValidator) *TokenContextBuilder {
	return &TokenContextBuilder{validator: v}
}

func (b *TokenContextBuilder) Build(r *http.Request) (*domain.UserContext, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return domain.Anonymous(), ErrNoToken
	}

	claims, err := b.validator.VerifyToken(authHeader)
	if err != nil {
		return nil, err
	}

	sub, _ := claims.GetSubject()
	return domain.NewUserContext(sub, FlattenClaims(claims)), nil
}

// StaticContextBuilder выдает каждому запросу один и тот же набор клеймов.
// Используется харнессом для подмены пользователя тестовыми значениями.
type StaticContextBuilder struct {
	identity string
	claims   []domain.Claim
}

func NewStaticContextBuilder(identity string, claims []domain.Claim) *StaticContextBuilder {
	cp := make([]domain.Claim, len(claims))
	copy(cp, claims)
	return &StaticContextBuilder{identity: identity, claims: cp}
}

// Build создает новый UserContext на каждый запрос: контексты разных запросов не разделяются.
func (b *StaticContextBuilder) Build(_ *http.Request) (*domain.UserContext, error) {
	return domain.NewUserContext(b.identity, b.claims), nil
}

// AnonymousContextBuilder используется, когда аутентификация не настроена.
var AnonymousContextBuilder = ContextBuilderFunc(func(*http.Request) (*domain.UserContext, error) {
	return domain.Anonymous(), nil
})
