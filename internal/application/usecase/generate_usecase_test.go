// internal/application/usecase/generate_usecase_test.go
package usecase

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptmint/internal/domain/generation"
	"promptmint/internal/platform/apperr"
)

type fakeGenerator struct {
	calls int32
	url   string
	err   error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.err != nil {
		return "", g.err
	}
	return g.url, nil
}

type fakePipeline struct {
	started chan generation.GeneratedImage
}

func (p *fakePipeline) Run(ctx context.Context, img generation.GeneratedImage) (generation.MintResult, error) {
	p.started <- img
	return generation.MintResult{}, nil
}

func newGenerateFixture(gen *fakeGenerator) (*GenerateUsecase, *fakePipeline) {
	pipeline := &fakePipeline{started: make(chan generation.GeneratedImage, 1)}
	uc := &GenerateUsecase{
		model:    "dall-e-3",
		images:   gen,
		pipeline: pipeline,
	}
	return uc, pipeline
}

func TestGenerateAndMint_Success(t *testing.T) {
	gen := &fakeGenerator{url: "https://provider.example/generated.png"}
	uc, pipeline := newGenerateFixture(gen)

	url, err := uc.GenerateAndMint(context.Background(), "a red fox in snow", testPubKey)
	require.NoError(t, err)

	assert.Equal(t, "https://provider.example/generated.png", url)
	assert.Equal(t, int32(1), atomic.LoadInt32(&gen.calls))

	// pipeline がちょうど 1 つ、同じリクエストで起動される
	select {
	case img := <-pipeline.started:
		assert.Equal(t, url, img.URL)
		assert.Equal(t, "a red fox in snow", img.Request.Prompt)
		assert.Equal(t, testPubKey, img.Request.Recipient)
		assert.NotEmpty(t, img.Request.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline was not started")
	}
}

func TestGenerateAndMint_InvalidPromptSkipsProvider(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{"empty", ""},
		{"too long", strings.Repeat("x", generation.MaxPromptLen+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{url: "https://provider.example/generated.png"}
			uc, pipeline := newGenerateFixture(gen)

			_, err := uc.GenerateAndMint(context.Background(), tt.prompt, testPubKey)
			require.Error(t, err)

			assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
			// 検証 NG のときプロバイダは 1 回も呼ばれない
			assert.Equal(t, int32(0), atomic.LoadInt32(&gen.calls))
			assert.Empty(t, pipeline.started)
		})
	}
}

func TestGenerateAndMint_MissingPubKeySkipsProvider(t *testing.T) {
	gen := &fakeGenerator{url: "https://provider.example/generated.png"}
	uc, pipeline := newGenerateFixture(gen)

	_, err := uc.GenerateAndMint(context.Background(), "a red fox in snow", "")
	require.Error(t, err)

	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
	assert.Equal(t, int32(0), atomic.LoadInt32(&gen.calls))
	assert.Empty(t, pipeline.started)
}

func TestGenerateAndMint_ProviderFailureSkipsPipeline(t *testing.T) {
	gen := &fakeGenerator{err: &apperr.Error{
		Kind:    apperr.KindUpstream,
		Op:      "openai.Generate",
		Message: "rate limited",
		Status:  429,
	}}
	uc, pipeline := newGenerateFixture(gen)

	_, err := uc.GenerateAndMint(context.Background(), "a red fox in snow", testPubKey)
	require.Error(t, err)

	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.Equal(t, 429, apperr.HTTPStatus(err))

	// 生成に失敗したら pipeline は起動しない
	select {
	case <-pipeline.started:
		t.Fatal("pipeline must not start on provider failure")
	case <-time.After(50 * time.Millisecond):
	}
}

// 同一入力でも重複排除はしない: 2 回呼べば 2 本の pipeline が走る。
func TestGenerateAndMint_NoDeduplication(t *testing.T) {
	gen := &fakeGenerator{url: "https://provider.example/generated.png"}
	pipeline := &fakePipeline{started: make(chan generation.GeneratedImage, 2)}
	uc := &GenerateUsecase{model: "dall-e-3", images: gen, pipeline: pipeline}

	for i := 0; i < 2; i++ {
		_, err := uc.GenerateAndMint(context.Background(), "a red fox in snow", testPubKey)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&gen.calls))

	ids := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case img := <-pipeline.started:
			ids[img.Request.ID] = true
		case <-time.After(2 * time.Second):
			t.Fatal("expected two pipeline starts")
		}
	}
	assert.Len(t, ids, 2, "each request gets its own pipeline instance")
}
