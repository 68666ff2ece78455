package policy

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistrySealed — попытка регистрации после старта (реестр только для чтения).
	ErrRegistrySealed = errors.New("policy registry is sealed")
	// ErrInvalidPolicy — некорректное описание политики (пустое имя, неизвестный вид требования и т.п.).
	ErrInvalidPolicy = errors.New("invalid policy")
)

// UnknownPolicyError — на политику ссылаются, но она не зарегистрирована.
// Это ошибка конфигурации, а не отказ в доступе.
type UnknownPolicyError struct {
	Name string
}

func (e *UnknownPolicyError) Error() string {
	return fmt.Sprintf("unknown authorization policy %q", e.Name)
}

// DuplicatePolicyError — политика с таким именем уже зарегистрирована.
type DuplicatePolicyError struct {
	Name string
}

func (e *DuplicatePolicyError) Error() string {
	return fmt.Sprintf("authorization policy %q is already registered", e.Name)
}
