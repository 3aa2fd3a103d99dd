package classify

import (
	"context"

	"github.com/samber/mo"
)

// TemplateFinder はベクトルによるテンプレート検索を提供します
type TemplateFinder interface {
	// FindBestTemplate は合成類似度が最大のテンプレートを1件返します。
	// テンプレートが1件も登録されていない場合は None を返します
	FindBestTemplate(ctx context.Context, docVector []float32, titleVector mo.Option[[]float32], weights Weights) (mo.Option[Match], error)
}
