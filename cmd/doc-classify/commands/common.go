package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cemdocs/doc-classify/internal/platform/container"
	"github.com/cemdocs/doc-classify/internal/platform/logger"
	"github.com/cemdocs/doc-classify/pkg/config"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持します
type AppContext struct {
	Config    *config.Config
	Container *container.ServiceContainer
}

// NewAppContext は設定を読み込み、DBに接続して AppContext を作成します。
// overrides は設定読み込み後・コンテナ生成前に適用されます
func NewAppContext(ctx context.Context, envFile string, overrides ...func(*config.Config)) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, override := range overrides {
		override(cfg)
	}

	appLogger := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: "text",
	})

	cont, err := container.NewContainer(ctx, cfg, container.WithContainerLogger(appLogger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}

	return &AppContext{
		Config:    cfg,
		Container: cont,
	}, nil
}

// Close はAppContextが保持するリソースを解放します
func (ac *AppContext) Close() {
	if ac.Container != nil {
		ac.Container.Close()
	}
}

// collectFiles はパス（ファイルまたはディレクトリ）から処理対象の
// .txt ファイル一覧を名前順で返します
func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no .txt files found in %s", path)
	}
	return files, nil
}
