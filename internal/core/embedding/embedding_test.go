package embedding

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	// ゼロベクトルはそのまま
	z := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, z)
}

func TestResize(t *testing.T) {
	padded := Resize([]float32{1, 2}, 4)
	assert.Equal(t, []float32{1, 2, 0, 0}, padded)

	truncated := Resize([]float32{1, 2, 3, 4}, 2)
	assert.Equal(t, []float32{1, 2}, truncated)

	same := []float32{1, 2, 3}
	assert.Equal(t, same, Resize(same, 3))

	// 冪等性
	assert.Equal(t, padded, Resize(padded, 4))
}

func TestTFIDFEncoder_FitOnceAndEncode(t *testing.T) {
	enc := NewTFIDFEncoder(16)
	ctx := context.Background()

	corpus := []string{
		"договор поставки товара",
		"договор аренды помещения",
		"акт приема передачи",
	}
	vectors, err := enc.Encode(ctx, corpus)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for _, v := range vectors {
		require.Len(t, v, 16)
		assert.InDelta(t, 1.0, l2(v), 1e-5)
	}

	// 2回目の呼び出しでは最初の語彙が再利用される
	again, err := enc.Encode(ctx, []string{"договор поставки товара"})
	require.NoError(t, err)
	assert.Equal(t, vectors[0], again[0])

	// 類似テキストは非類似テキストよりコサイン類似度が高い
	probe, err := enc.Encode(ctx, []string{"договор поставки"})
	require.NoError(t, err)
	assert.Greater(t, dot(probe[0], vectors[0]), dot(probe[0], vectors[2]))
}

func TestTFIDFEncoder_NoTokens(t *testing.T) {
	enc := NewTFIDFEncoder(8)
	_, err := enc.Encode(context.Background(), []string{"123 456 !!!"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tokens")
}

type stubEncoder struct {
	dim    int
	calls  int
	vector []float32
}

func (s *stubEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

func (s *stubEncoder) Dimension() int { return s.dim }
func (s *stubEncoder) Name() string   { return "stub" }

func TestService_ResizeAndNormalize(t *testing.T) {
	stub := &stubEncoder{dim: 2, vector: []float32{3, 4}}
	svc := NewService(stub, 4, testLogger())

	vectors, err := svc.Encode(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	for _, v := range vectors {
		require.Len(t, v, 4)
		assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
		assert.Zero(t, v[2])
		assert.Zero(t, v[3])
	}
}

func TestService_Batching(t *testing.T) {
	stub := &stubEncoder{dim: 2, vector: []float32{1, 0}}
	svc := NewService(stub, 2, testLogger(), WithBatchSize(2))

	texts := []string{"a", "b", "c", "d", "e"}
	vectors, err := svc.Encode(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Equal(t, 3, stub.calls)
}

func TestService_EmptyInput(t *testing.T) {
	svc := NewService(&stubEncoder{dim: 2, vector: []float32{1, 0}}, 2, testLogger())
	vectors, err := svc.Encode(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func l2(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
