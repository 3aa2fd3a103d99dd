package embedding

import "math"

// Normalize はベクトルをL2ノルムで正規化した新しいスライスを返します。
// ゼロベクトルはそのまま返します
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Resize はベクトルを指定次元に揃えます。短い場合は末尾をゼロ埋めし、
// 長い場合は末尾を切り捨てます。次元が一致していれば入力をそのまま返します
func Resize(v []float32, dim int) []float32 {
	if len(v) == dim {
		return v
	}
	out := make([]float32, dim)
	copy(out, v)
	return out
}
