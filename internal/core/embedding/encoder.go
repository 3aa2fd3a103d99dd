package embedding

import "context"

// Encoder はテキスト列をベクトル列に変換します。
// 返り値のベクトル次元はバックエンド固有であり、保存用の固定次元への
// 変換は Service 側で行います
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Name() string
}
