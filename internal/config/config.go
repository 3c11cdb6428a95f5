package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/supreme-chatbot/internal/service/backend"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Widget    WidgetConfig
	AI        AIConfig
	Companion CompanionConfig
	LogLevel  string
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	widget, err := loadWidgetConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	companion, err := loadCompanionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Widget:    widget,
		AI:        ai,
		Companion: companion,
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
	}, nil
}

// ServerConfig 描述伴聊后端的 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	addr, err := parseAddr("PORT", "5000")
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{Addr: addr}, nil
}

// WidgetConfig 描述聊天组件服务的配置。
type WidgetConfig struct {
	Addr           string
	BackendURL     string
	UserID         string
	BackendTimeout time.Duration
	SessionTTL     time.Duration
	TUILogFile     string
}

const defaultSessionTTL = 30 * time.Minute

func loadWidgetConfig() (WidgetConfig, error) {
	addr, err := parseAddr("WIDGET_ADDR", "3000")
	if err != nil {
		return WidgetConfig{}, err
	}

	timeout, err := parseOptionalIntEnv("CHAT_BACKEND_TIMEOUT")
	if err != nil {
		return WidgetConfig{}, err
	}
	var backendTimeout time.Duration
	if timeout != nil {
		if *timeout < 0 {
			return WidgetConfig{}, fmt.Errorf("invalid CHAT_BACKEND_TIMEOUT value %d: must not be negative", *timeout)
		}
		backendTimeout = time.Duration(*timeout) * time.Second
	}

	sessionTTL := defaultSessionTTL
	if ttl, err := parseOptionalIntEnv("WIDGET_SESSION_TTL"); err != nil {
		return WidgetConfig{}, err
	} else if ttl != nil {
		if *ttl < 0 {
			return WidgetConfig{}, fmt.Errorf("invalid WIDGET_SESSION_TTL value %d: must not be negative", *ttl)
		}
		sessionTTL = time.Duration(*ttl) * time.Second
	}

	return WidgetConfig{
		Addr:           addr,
		BackendURL:     getEnvOrDefault("CHAT_BACKEND_URL", backend.DefaultEndpoint),
		UserID:         getEnvOrDefault("CHAT_USER_ID", "user123"),
		BackendTimeout: backendTimeout,
		SessionTTL:     sessionTTL,
		TUILogFile:     strings.TrimSpace(os.Getenv("TUI_LOG_FILE")),
	}, nil
}

// CompanionConfig 控制参考后端的回复策略。
type CompanionConfig struct {
	HistoryLimit    int
	FallbackEnabled bool
}

func loadCompanionConfig() (CompanionConfig, error) {
	fallback, err := parseBoolEnv("COMPANION_FALLBACK_ENABLED", true)
	if err != nil {
		return CompanionConfig{}, err
	}

	historyLimit := 10
	if override, err := parseOptionalIntEnv("COMPANION_HISTORY_LIMIT"); err != nil {
		return CompanionConfig{}, err
	} else if override != nil {
		if *override < 0 {
			historyLimit = 0
		} else {
			historyLimit = *override
		}
	}

	return CompanionConfig{HistoryLimit: historyLimit, FallbackEnabled: fallback}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + Model or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// parseAddr 允许传入 "8080"、":8080" 或 "127.0.0.1:8080"。
func parseAddr(key, defaultPort string) (string, error) {
	port := strings.TrimSpace(os.Getenv(key))
	if port == "" {
		port = defaultPort
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid %s value: %q", key, port)
	}

	if strings.Contains(port, ":") {
		return port, nil
	}

	return ":" + port, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
