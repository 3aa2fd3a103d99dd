package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// Embedding設定
	Embedding EmbeddingConfig

	// 類似度分類設定
	Classify ClassifyConfig

	// ログレベル ("debug", "info", "warn", "error")
	LogLevel string
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN は pgx 用の接続文字列を組み立てます
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// EmbeddingConfig は埋め込みバックエンド設定。
// BaseURL と Model が両方設定されている場合はリモートの
// OpenAI互換エンドポイントを使用し、未設定の場合は TF-IDF
// フォールバックに切り替わる
type EmbeddingConfig struct {
	BaseURL         string // OpenAI互換エンドポイント（例: ローカルTEIサーバ）
	APIKey          string
	Model           string
	TargetDimension int  // 保存ベクトルの固定次元
	Normalize       bool // L2正規化（コサイン類似度の前提）
	BatchSize       int
}

// ClassifyConfig は類似度分類の重み設定
type ClassifyConfig struct {
	DocumentWeight float64
	TitleWeight    float64
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "docclassify"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "documents_cem"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Embedding: EmbeddingConfig{
			BaseURL:         getEnv("EMBEDDING_BASE_URL", ""),
			APIKey:          getEnv("EMBEDDING_API_KEY", ""),
			Model:           getEnv("EMBEDDING_MODEL", ""),
			TargetDimension: getEnvAsInt("EMBEDDING_DIMENSION", 1024),
			Normalize:       getEnvAsBool("EMBEDDING_NORMALIZE", true),
			BatchSize:       getEnvAsInt("EMBEDDING_BATCH_SIZE", 32),
		},
		Classify: ClassifyConfig{
			DocumentWeight: getEnvAsFloat("CLASSIFY_DOCUMENT_WEIGHT", 0.7),
			TitleWeight:    getEnvAsFloat("CLASSIFY_TITLE_WEIGHT", 0.3),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
