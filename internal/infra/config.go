package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xela07ax/claims-authz-harness/internal/domain"
	"github.com/xela07ax/claims-authz-harness/internal/policy"
)

// Config — корневая структура конфигурации харнесса.
type Config struct {
	Server      ServerConfig        `mapstructure:"server"`
	Database    DatabaseConfig      `mapstructure:"database"`
	Auth        AuthConfig          `mapstructure:"auth"`
	Logger      LoggerConfig        `mapstructure:"logger"`
	Policies    []policy.Definition `mapstructure:"policies"`
	Protections []ProtectionConfig  `mapstructure:"protections"`
	Directory   DirectoryConfig     `mapstructure:"directory"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	GraphiQL        bool          `mapstructure:"graphiql"`

	// Лимит запросов к /graphql (0 — без ограничения)
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// Addr возвращает адрес для net/http.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig описывает необязательный источник политик в PostgreSQL.
// Пустой URL — политики берутся только из конфига.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	MinConns       int32         `mapstructure:"min_conns"`
	ConnectRetries uint          `mapstructure:"connect_retries"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// AuthConfig содержит путь к публичному RSA ключу и точку переопределения пользователя.
type AuthConfig struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
	Issuer        string `mapstructure:"issuer"`
	PublicKey     []byte

	// Если задано — вместо токена каждому запросу выдается этот набор клеймов (тестовый харнесс).
	OverrideIdentity string         `mapstructure:"override_identity"`
	OverrideClaims   []domain.Claim `mapstructure:"override_claims"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// ProtectionConfig привязывает GraphQL тип к политике. Список, а не map:
// viper приводит ключи map к нижнему регистру, а имена типов регистрозависимы.
type ProtectionConfig struct {
	Type   string `mapstructure:"type"`
	Policy string `mapstructure:"policy"`
}

// DirectoryConfig — статический справочник пользователей для поля users.
type DirectoryConfig struct {
	Users []DirectoryUser `mapstructure:"users"`
}

type DirectoryUser struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
// Пути поиска можно передать явно (тесты), по умолчанию — "." и "./configs".
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 2. Переменные окружения: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Ключ из ENV или из файла
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.graphiql", true)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("database.max_conns", 5)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.connect_retries", 5)
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	// Базовая политика харнесса: тип User доступен только с role=Admin
	v.SetDefault("policies", []map[string]any{
		{
			"name": "AdminPolicy",
			"requirements": []map[string]any{
				{"kind": string(policy.KindClaimEquals), "type": "role", "value": "Admin"},
			},
		},
	})
	v.SetDefault("protections", []map[string]any{
		{"type": "User", "policy": "AdminPolicy"},
	})
}

// loadKeyResource — ключ прилетел напрямую в ENV (PEM) или лежит файлом по пути из конфига
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
