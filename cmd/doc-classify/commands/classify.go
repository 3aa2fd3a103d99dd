package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/cemdocs/doc-classify/internal/core/indexing"
	"github.com/cemdocs/doc-classify/internal/infra/parser"
	"github.com/cemdocs/doc-classify/pkg/config"
)

// ClassifyAction は入力文書を分類して保存するコマンドのアクション
func ClassifyAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	sessionID := cmd.String("session-id")
	envFile := cmd.String("env")

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var overrides []func(*config.Config)
	if cmd.IsSet("document-weight") {
		w := cmd.Float("document-weight")
		overrides = append(overrides, func(cfg *config.Config) {
			cfg.Classify.DocumentWeight = w
		})
	}
	if cmd.IsSet("title-weight") {
		w := cmd.Float("title-weight")
		overrides = append(overrides, func(cfg *config.Config) {
			cfg.Classify.TitleWeight = w
		})
	}
	if cmd.IsSet("embedding-dim") {
		dim := cmd.Int("embedding-dim")
		overrides = append(overrides, func(cfg *config.Config) {
			cfg.Embedding.TargetDimension = dim
		})
	}

	appCtx, err := NewAppContext(ctx, envFile, overrides...)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	files, err := collectFiles(path)
	if err != nil {
		return err
	}

	slog.Info("classification started",
		"path", path,
		"files", len(files),
		"session_id", sessionID,
	)

	processed, failed := 0, 0
	for _, file := range files {
		text, err := parser.ReadFile(file)
		if err != nil {
			slog.Error("failed to read document", "file", file, "error", err)
			failed++
			continue
		}

		result, err := appCtx.Container.IndexingService.ProcessIncoming(ctx, indexing.IncomingInput{
			Name:      filepath.Base(file),
			Title:     parser.ExtractTitle(text),
			SessionID: sessionID,
			Elements:  parser.ParseText(text),
		})
		if err != nil {
			slog.Error("failed to classify document", "file", file, "error", err)
			failed++
			continue
		}
		processed++

		if m, ok := result.Classification.Match.Get(); ok {
			fmt.Printf("%s\t%.4f\t%s\t%s\n",
				filepath.Base(file), m.Combined, m.TemplateName, result.Classification.Label)
		} else {
			fmt.Printf("%s\t-\t-\t%s\n", filepath.Base(file), result.Classification.Label)
		}
	}

	slog.Info("classification finished",
		"processed", processed,
		"failed", failed,
		"session_id", sessionID,
	)
	fmt.Printf("\nsession: %s\n", sessionID)
	if failed > 0 && processed == 0 {
		return fmt.Errorf("all %d files failed to classify", failed)
	}
	return nil
}

// ChooseAction は文書に対するユーザーのテンプレート選択を記録するコマンドのアクション
func ChooseAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	docID, err := uuid.Parse(cmd.String("doc-id"))
	if err != nil {
		return fmt.Errorf("invalid doc-id: %w", err)
	}
	templateID, err := uuid.Parse(cmd.String("template-id"))
	if err != nil {
		return fmt.Errorf("invalid template-id: %w", err)
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Container.IndexingService.ConfirmTemplate(ctx, docID, templateID); err != nil {
		return err
	}
	fmt.Printf("user choice recorded: %s -> %s\n", docID, templateID)
	return nil
}
