package policy

import (
	"fmt"
	"strings"

	"github.com/xela07ax/claims-authz-harness/internal/domain"
)

// Requirement — предикат над UserContext. Набор вариантов закрыт (tagged union):
// ClaimEquals, ClaimExists, ClaimOneOf, Authenticated.
type Requirement interface {
	IsSatisfiedBy(u *domain.UserContext) bool
	String() string

	// clone возвращает копию, не разделяющую память с исходным значением.
	clone() Requirement
}

// ClaimEquals выполняется, если есть хотя бы один клейм с точно таким типом и значением.
type ClaimEquals struct {
	Type  string
	Value string
}

func (r ClaimEquals) IsSatisfiedBy(u *domain.UserContext) bool {
	return u.HasClaim(r.Type, r.Value)
}

func (r ClaimEquals) String() string {
	return fmt.Sprintf("claim(type=%q, value=%q)", r.Type, r.Value)
}

func (r ClaimEquals) clone() Requirement { return r }

// ClaimExists выполняется, если есть клейм данного типа с любым значением.
type ClaimExists struct {
	Type string
}

func (r ClaimExists) IsSatisfiedBy(u *domain.UserContext) bool {
	_, ok := u.FindFirst(r.Type)
	return ok
}

func (r ClaimExists) String() string {
	return fmt.Sprintf("claim(type=%q)", r.Type)
}

func (r ClaimExists) clone() Requirement { return r }

// ClaimOneOf выполняется, если хотя бы один клейм типа Type имеет одно из разрешенных значений.
type ClaimOneOf struct {
	Type   string
	Values []string
}

func (r ClaimOneOf) IsSatisfiedBy(u *domain.UserContext) bool {
	for _, v := range r.Values {
		if u.HasClaim(r.Type, v) {
			return true
		}
	}
	return false
}

func (r ClaimOneOf) String() string {
	quoted := make([]string, len(r.Values))
	for i, v := range r.Values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return fmt.Sprintf("claim(type=%q, value in [%s])", r.Type, strings.Join(quoted, ", "))
}

func (r ClaimOneOf) clone() Requirement {
	values := make([]string, len(r.Values))
	copy(values, r.Values)
	return ClaimOneOf{Type: r.Type, Values: values}
}

// Authenticated требует неанонимного субъекта.
type Authenticated struct{}

func (Authenticated) IsSatisfiedBy(u *domain.UserContext) bool {
	return u.IsAuthenticated()
}

func (Authenticated) String() string {
	return "authenticated()"
}

func (Authenticated) clone() Requirement { return Authenticated{} }
