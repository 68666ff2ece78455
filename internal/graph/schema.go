// Package graph содержит GraphQL схему харнесса, резолверы и слой доступа к защищенным типам.
package graph

import (
	"context"
	"fmt"
	"runtime"

	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

// TypeUser — тип, на который по умолчанию навешивается AdminPolicy.
const TypeUser = "User"

const Schema = `
	schema {
		query: Query
	}

	type Query {
		# Клеймы текущего пользователя в виде "type=value, type=value"
		test: String
		viewer: User
		users: [User]
	}

	type User {
		id: ID
		name: String
	}
`

// NewSchema парсит схему и проверяет, что все защищенные типы в ней объявлены.
func NewSchema(resolver *Resolver, protections Protections, logger *zap.Logger) (*graphql.Schema, error) {
	schema, err := graphql.ParseSchema(Schema, resolver,
		graphql.Logger(&panicLogger{logger: logger.Named("graphql")}),
		graphql.MaxDepth(10),
	)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	ast := schema.ASTSchema()
	for typeName := range protections {
		if _, ok := ast.Types[typeName]; !ok {
			return nil, fmt.Errorf("protected type %q is not defined in schema", typeName)
		}
	}
	return schema, nil
}

// panicLogger отправляет паники резолверов в zap вместо стандартного log.
type panicLogger struct {
	logger *zap.Logger
}

func (l *panicLogger) LogPanic(_ context.Context, value interface{}) {
	const size = 64 << 10
	buf := make([]byte, size)
	buf = buf[:runtime.Stack(buf, false)]
	l.logger.Error("panic occurred", zap.Any("value", value), zap.ByteString("stack", buf))
}
