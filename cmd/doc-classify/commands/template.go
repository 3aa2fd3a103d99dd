package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/cemdocs/doc-classify/internal/core/indexing"
	"github.com/cemdocs/doc-classify/internal/infra/parser"
)

// TemplateIndexAction はテンプレート文書を索引へ登録するコマンドのアクション
func TemplateIndexAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	version := cmd.String("version")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	files, err := collectFiles(path)
	if err != nil {
		return err
	}

	slog.Info("template indexing started", "path", path, "files", len(files))

	indexed, failed := 0, 0
	for _, file := range files {
		text, err := parser.ReadFile(file)
		if err != nil {
			slog.Error("failed to read template file", "file", file, "error", err)
			failed++
			continue
		}

		id, stats, err := appCtx.Container.IndexingService.IndexTemplate(ctx, indexing.TemplateInput{
			Name:     filepath.Base(file),
			Version:  version,
			Title:    parser.ExtractTitle(text),
			Elements: parser.ParseText(text),
		})
		if err != nil {
			slog.Error("failed to index template", "file", file, "error", err)
			failed++
			continue
		}
		indexed++

		fmt.Printf("%s\t%s\t(chunks: %d, pages: %d)\n",
			id, filepath.Base(file), stats.TotalChunks, stats.EstimatedPages)
	}

	slog.Info("template indexing finished", "indexed", indexed, "failed", failed)
	if failed > 0 && indexed == 0 {
		return fmt.Errorf("all %d files failed to index", failed)
	}
	return nil
}

// TemplateListAction は登録済みテンプレートの一覧を表示するコマンドのアクション
func TemplateListAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	templates, err := appCtx.Container.IndexingService.Templates(ctx)
	if err != nil {
		return err
	}

	if len(templates) == 0 {
		fmt.Println("no templates registered")
		return nil
	}
	for _, t := range templates {
		if t.Version != "" {
			fmt.Printf("%s\t%s\t%s\n", t.ID, t.Name, t.Version)
		} else {
			fmt.Printf("%s\t%s\n", t.ID, t.Name)
		}
	}
	return nil
}
