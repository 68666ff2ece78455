package auth

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xela07ax/claims-authz-harness/internal/domain"
)

// TokenValidator проверяет токен и возвращает его клеймы
type TokenValidator interface {
	VerifyToken(tokenStr string) (jwt.MapClaims, error)
}

// BaseValidator содержит общую логику проверки RS256
type BaseValidator struct {
	publicKey *rsa.PublicKey
	parser    *jwt.Parser
}

// NewBaseValidator — issuer необязателен, пустая строка отключает проверку iss.
func NewBaseValidator(pubKey *rsa.PublicKey, issuer string) *BaseValidator {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &BaseValidator{publicKey: pubKey, parser: jwt.NewParser(opts...)}
}

// VerifyToken проверяет JWT токен, подписанный асимметричным ключом RS256.
func (v *BaseValidator) VerifyToken(tokenStr string) (jwt.MapClaims, error) {
	tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")
	tokenStr = strings.TrimSpace(tokenStr)

	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ParseRSAPublicKey превращает []byte в объект для проверки подписи
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("public key data is empty")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// FlattenClaims раскладывает клеймы токена в плоский список (type, value).
// Массивы дают по клейму на элемент: {"role": ["Admin","User"]} -> role=Admin, role=User.
// Ключи сортируются, чтобы порядок был стабильным между запросами.
func FlattenClaims(mc jwt.MapClaims) []domain.Claim {
	keys := make([]string, 0, len(mc))
	for k := range mc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []domain.Claim
	for _, k := range keys {
		switch v := mc[k].(type) {
		case []interface{}:
			for _, item := range v {
				out = append(out, domain.Claim{Type: k, Value: claimValue(item)})
			}
		case []string:
			for _, item := range v {
				out = append(out, domain.Claim{Type: k, Value: item})
			}
		case nil:
			continue
		default:
			out = append(out, domain.Claim{Type: k, Value: claimValue(v)})
		}
	}
	return out
}

func claimValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
