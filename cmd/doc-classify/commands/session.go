package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// ResultsAction はセッションの分類結果一覧を表示するコマンドのアクション
func ResultsAction(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.String("session-id")
	limit := cmd.Int("limit")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	records, err := appCtx.Container.IndexingService.Results(ctx, sessionID, limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("no results for session")
		return nil
	}
	for _, rec := range records {
		score := "-"
		if s, ok := rec.SimilarityScore.Get(); ok {
			score = fmt.Sprintf("%.4f", s)
		}
		template := "-"
		if name, ok := rec.TemplateName.Get(); ok {
			template = name
			if v, ok := rec.TemplateVersion.Get(); ok && v != "" {
				template += " (" + v + ")"
			}
		}
		choice := ""
		if id, ok := rec.UserChoiceID.Get(); ok {
			choice = "\tchoice:" + id.String()
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s%s\n",
			rec.DocID, rec.DocName, rec.CreatedAt.Format("2006-01-02 15:04:05"),
			score, template, choice)
	}
	return nil
}

// SessionClearAction はセッションの文書とチャンクを削除するコマンドのアクション
func SessionClearAction(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.String("session-id")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Container.IndexingService.ClearSession(ctx, sessionID); err != nil {
		return err
	}
	fmt.Printf("session cleared: %s\n", sessionID)
	return nil
}
