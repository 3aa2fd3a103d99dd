package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/cemdocs/doc-classify/cmd/doc-classify/commands"
)

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "doc-classify",
		Usage: "契約書のテンプレート分類と標準性監査システム",
		Commands: []*cli.Command{
			{
				Name:  "template",
				Usage: "テンプレート管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "index",
						Usage: "テンプレート文書を索引へ登録",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "path",
								Usage:    "テンプレートファイルまたはディレクトリ",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "version",
								Usage: "テンプレートのバージョン表記",
							},
						},
						Action: commands.TemplateIndexAction,
					},
					{
						Name:  "list",
						Usage: "登録済みテンプレートの一覧を表示",
						Flags: []cli.Flag{
							envFlag(),
						},
						Action: commands.TemplateListAction,
					},
				},
			},
			{
				Name:  "classify",
				Usage: "入力文書をテンプレートに照らして分類",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:     "path",
						Usage:    "入力ファイルまたはディレクトリ",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "session-id",
						Usage: "処理をまとめるセッションID（未指定なら自動生成）",
					},
					&cli.FloatFlag{
						Name:  "document-weight",
						Usage: "本文類似度の重み",
					},
					&cli.FloatFlag{
						Name:  "title-weight",
						Usage: "表題類似度の重み",
					},
					&cli.IntFlag{
						Name:  "embedding-dim",
						Usage: "保存ベクトルの次元（スキーマと一致させること）",
					},
				},
				Action: commands.ClassifyAction,
			},
			{
				Name:  "audit",
				Usage: "契約書テキストの標準性を監査",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "path",
						Usage:    "契約書ファイルまたはディレクトリ",
						Required: true,
					},
				},
				Action: commands.AuditAction,
			},
			{
				Name:  "results",
				Usage: "セッションの分類結果一覧を表示",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:     "session-id",
						Usage:    "セッションID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "表示件数の上限",
						Value: 100,
					},
				},
				Action: commands.ResultsAction,
			},
			{
				Name:  "choose",
				Usage: "文書に対するテンプレート選択を記録",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:     "doc-id",
						Usage:    "文書ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "template-id",
						Usage:    "テンプレートID",
						Required: true,
					},
				},
				Action: commands.ChooseAction,
			},
			{
				Name:  "doc",
				Usage: "保存済み文書の表示と再構築コマンド",
				Commands: []*cli.Command{
					{
						Name:  "show",
						Usage: "文書の詳細と本文を表示",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "doc-id",
								Usage:    "文書ID",
								Required: true,
							},
						},
						Action: commands.DocShowAction,
					},
					{
						Name:  "rebuild",
						Usage: "確定済みテンプレートのチャンクから編集用テキストを出力",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "doc-id",
								Usage:    "文書ID",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "out",
								Usage: "出力ファイル（未指定なら標準出力）",
							},
						},
						Action: commands.DocRebuildAction,
					},
					{
						Name:  "save",
						Usage: "編集後テキストで文書のチャンクを置き換え",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "doc-id",
								Usage:    "文書ID",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "path",
								Usage:    "編集後テキストのファイル",
								Required: true,
							},
						},
						Action: commands.DocSaveAction,
					},
					{
						Name:  "audit",
						Usage: "保存済み文書の本文を再構成して監査",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "doc-id",
								Usage:    "文書ID",
								Required: true,
							},
						},
						Action: commands.DocAuditAction,
					},
				},
			},
			{
				Name:  "session",
				Usage: "セッション管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "clear",
						Usage: "セッションの文書とチャンクを削除",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "session-id",
								Usage:    "セッションID",
								Required: true,
							},
						},
						Action: commands.SessionClearAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
