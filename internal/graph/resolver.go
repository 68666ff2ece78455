package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/xela07ax/claims-authz-harness/internal/domain"
)

// User — запись справочника пользователей.
type User struct {
	ID   string
	Name string
}

// Resolver — корневой резолвер Query.
type Resolver struct {
	guard *Guard
	users []User
}

func NewResolver(guard *Guard, users []User) *Resolver {
	cp := make([]User, len(users))
	copy(cp, users)
	return &Resolver{guard: guard, users: cp}
}

// Test возвращает клеймы текущего пользователя.
func (r *Resolver) Test(ctx context.Context) *string {
	uc, _ := domain.UserContextFrom(ctx)
	s := uc.String()
	return &s
}

// Viewer — текущий пользователь как объект User (защищен политикой типа User).
func (r *Resolver) Viewer(ctx context.Context) (*userResolver, error) {
	uc, _ := domain.UserContextFrom(ctx)
	var users []User
	if uc.IsAuthenticated() {
		name, _ := uc.FindFirst("name")
		users = append(users, User{ID: uc.Identity(), Name: name})
	}

	out, err := r.userResolvers(ctx, users)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return out[0], nil
}

func (r *Resolver) Users(ctx context.Context) (*[]*userResolver, error) {
	out, err := r.userResolvers(ctx, r.users)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// userResolvers — единственное место, где создается userResolver.
// Проверка типа User выполняется здесь один раз на поле, даже для пустого результата.
func (r *Resolver) userResolvers(ctx context.Context, users []User) ([]*userResolver, error) {
	if err := r.guard.Check(ctx, TypeUser); err != nil {
		return nil, err
	}

	out := make([]*userResolver, len(users))
	for i := range users {
		out[i] = &userResolver{u: users[i]}
	}
	return out, nil
}

// userResolver строится только через Resolver.userResolvers.
// Новое поле, возвращающее User (в том числе вложенное), должно идти через него же.
type userResolver struct {
	u User
}

func (r *userResolver) ID() *graphql.ID {
	if r.u.ID == "" {
		return nil
	}
	id := graphql.ID(r.u.ID)
	return &id
}

func (r *userResolver) Name() *string {
	if r.u.Name == "" {
		return nil
	}
	return &r.u.Name
}
