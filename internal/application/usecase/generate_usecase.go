// internal/application/usecase/generate_usecase.go
package usecase

import (
	"context"
	"log"

	"github.com/google/uuid"

	"promptmint/internal/domain/generation"
)

// ImageGenerator は同期フェーズで使う画像生成ポート。
// 実装例: openai.ImageProvider
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// mintStarter は fire-and-forget で起動するバックグラウンド側。
// *MintPipeline がそのまま満たす。
type mintStarter interface {
	Run(ctx context.Context, img generation.GeneratedImage) (generation.MintResult, error)
}

// GenerateUsecase は同期フェーズ（検証 → 画像生成 → URL 返却）と、
// バックグラウンドへの引き渡しを担う。
type GenerateUsecase struct {
	model    string
	images   ImageGenerator
	pipeline mintStarter
}

func NewGenerateUsecase(model string, images ImageGenerator, pipeline *MintPipeline) *GenerateUsecase {
	return &GenerateUsecase{
		model:    model,
		images:   images,
		pipeline: pipeline,
	}
}

// GenerateAndMint は検証 → 画像生成までを同期で行い、生成 URL を返す。
// 成功時はその場で pipeline を 1 つだけ切り離して起動する。
//
//   - 検証 NG / 生成失敗のときは pipeline を起動しない
//   - 起動した pipeline はリクエストのライフサイクルと切り離す
//     （context.Background() を渡す。レスポンス送信後も続行し、
//     キャンセル手段はない）
//   - レート制限・同一プロンプトの重複排除はしない
func (u *GenerateUsecase) GenerateAndMint(ctx context.Context, prompt, pubKey string) (string, error) {
	req, err := generation.NewRequest(uuid.NewString(), prompt, pubKey, u.model)
	if err != nil {
		return "", err
	}

	log.Printf("[generate] id=%s processing with pubKey=%s", req.ID, req.Recipient)

	imageURL, err := u.images.Generate(ctx, req.Prompt)
	if err != nil {
		return "", err
	}

	// ここから先の成否は caller には見えない（意図した仕様）。
	go func() {
		_, _ = u.pipeline.Run(context.Background(), generation.GeneratedImage{
			URL:     imageURL,
			Request: req,
		})
	}()

	return imageURL, nil
}
