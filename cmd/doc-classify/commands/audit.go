package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/cemdocs/doc-classify/internal/core/audit"
	"github.com/cemdocs/doc-classify/internal/infra/parser"
)

// AuditAction は契約書テキストを監査するコマンドのアクション。
// データベースを使わないため接続設定は不要です
func AuditAction(_ context.Context, cmd *cli.Command) error {
	path := cmd.String("path")

	files, err := collectFiles(path)
	if err != nil {
		return err
	}

	engine := audit.NewEngine()
	for _, file := range files {
		text, err := parser.ReadFile(file)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		report := engine.Audit(text)
		fmt.Printf("%s\t%s\n", filepath.Base(file), report.Status)
		for _, finding := range report.Findings {
			fmt.Printf("  - %s\n", finding.Description)
			if finding.Evidence != "" {
				fmt.Printf("    «%s»\n", finding.Evidence)
			}
		}
	}
	return nil
}
