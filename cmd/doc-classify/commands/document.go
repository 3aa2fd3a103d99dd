package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/cemdocs/doc-classify/internal/core/indexing"
	"github.com/cemdocs/doc-classify/internal/infra/parser"
)

// DocShowAction は保存済み文書の詳細と本文を表示するコマンドのアクション
func DocShowAction(ctx context.Context, cmd *cli.Command) error {
	docID, err := uuid.Parse(cmd.String("doc-id"))
	if err != nil {
		return fmt.Errorf("invalid doc-id: %w", err)
	}
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	svc := appCtx.Container.IndexingService
	detail, err := svc.Document(ctx, docID)
	if err != nil {
		return err
	}

	fmt.Printf("id:\t%s\n", detail.DocID)
	fmt.Printf("name:\t%s\n", detail.Name)
	if detail.Version != "" {
		fmt.Printf("version:\t%s\n", detail.Version)
	}
	fmt.Printf("session:\t%s\n", detail.SessionID)
	fmt.Printf("created:\t%s\n", detail.CreatedAt.Format("2006-01-02 15:04:05"))
	if score, ok := detail.SimilarityScore.Get(); ok {
		fmt.Printf("similarity:\t%.4f\n", score)
	}
	if name, ok := detail.TemplateName.Get(); ok {
		template := name
		if v, ok := detail.TemplateVersion.Get(); ok && v != "" {
			template += " (" + v + ")"
		}
		fmt.Printf("template:\t%s\n", template)
	}

	chunks, err := svc.DocumentChunks(ctx, docID)
	if err != nil {
		return err
	}
	if len(chunks) > 0 {
		fmt.Println("---")
		fmt.Println(indexing.ReconstructText(chunks))
	}
	return nil
}

// DocRebuildAction は文書のユーザー確定済みテンプレートのチャンクから
// 編集用テキストを書き出すコマンドのアクション
func DocRebuildAction(ctx context.Context, cmd *cli.Command) error {
	docID, err := uuid.Parse(cmd.String("doc-id"))
	if err != nil {
		return fmt.Errorf("invalid doc-id: %w", err)
	}
	out := cmd.String("out")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	chunks, err := appCtx.Container.IndexingService.TemplateChunksForEdit(ctx, docID)
	if err != nil {
		return err
	}

	text := indexing.FormatChunksForEdit(chunks)
	if out == "" {
		fmt.Println(text)
		return nil
	}
	if err := os.WriteFile(out, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Printf("written %d chunks to %s\n", len(chunks), out)
	return nil
}

// DocSaveAction は編集後のテキストで文書のチャンクを全置換する
// コマンドのアクション。編集後テキストは再ベクトル化して保存します
func DocSaveAction(ctx context.Context, cmd *cli.Command) error {
	docID, err := uuid.Parse(cmd.String("doc-id"))
	if err != nil {
		return fmt.Errorf("invalid doc-id: %w", err)
	}
	path := cmd.String("path")
	envFile := cmd.String("env")

	text, err := parser.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	edited := indexing.ParseEditedDocument(text)
	if len(edited) == 0 {
		return fmt.Errorf("%s: %w", path, indexing.ErrEmptyDocument)
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Container.IndexingService.SaveEditedDocument(ctx, docID, edited); err != nil {
		return err
	}
	fmt.Printf("document %s saved with %d chunks\n", docID, len(edited))
	return nil
}

// DocAuditAction は保存済み文書の本文を再構成して標準性を監査する
// コマンドのアクション
func DocAuditAction(ctx context.Context, cmd *cli.Command) error {
	docID, err := uuid.Parse(cmd.String("doc-id"))
	if err != nil {
		return fmt.Errorf("invalid doc-id: %w", err)
	}
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	chunks, err := appCtx.Container.IndexingService.DocumentChunks(ctx, docID)
	if err != nil {
		return err
	}
	text := indexing.ReconstructText(chunks)

	report := appCtx.Container.AuditEngine.Audit(text)
	fmt.Printf("%s\t%s\n", docID, report.Status)
	for _, finding := range report.Findings {
		fmt.Printf("  - %s\n", finding.Description)
		if finding.Evidence != "" {
			fmt.Printf("    «%s»\n", finding.Evidence)
		}
	}
	return nil
}
