// internal/infra/openai/image_provider.go
package openai

import (
	"context"
	"errors"
	"log"

	gopenai "github.com/sashabaranov/go-openai"

	"promptmint/internal/platform/apperr"
)

// ImageProvider は OpenAI の画像生成 API をラップする。
// パラメータは固定: 正方形 1024x1024 / standard 品質 / 1 枚。
type ImageProvider struct {
	client *gopenai.Client
	model  string
}

func NewImageProvider(apiKey, orgID, model string) *ImageProvider {
	cfg := gopenai.DefaultConfig(apiKey)
	if orgID != "" {
		cfg.OrgID = orgID
	}
	return &ImageProvider{
		client: gopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate は prompt から画像を 1 枚生成し、その URL を返す。
// URL はプロバイダ側で短時間しか保持されないので、呼び出し側が
// すぐにバイト列を取得すること。
func (p *ImageProvider) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "openai.Generate"

	resp, err := p.client.CreateImage(ctx, gopenai.ImageRequest{
		Model:          p.model,
		Prompt:         prompt,
		Size:           gopenai.CreateImageSize1024x1024,
		Quality:        gopenai.CreateImageQualityStandard,
		N:              1,
		ResponseFormat: gopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		appErr := &apperr.Error{
			Kind:    apperr.KindUpstream,
			Op:      op,
			Message: err.Error(),
			Cause:   err,
		}
		// OpenAI 側のステータスはそのまま caller に返す（無ければ 500 扱い）
		var apiErr *gopenai.APIError
		if errors.As(err, &apiErr) {
			appErr.Status = apiErr.HTTPStatusCode
			appErr.Message = apiErr.Message
		}
		return "", appErr
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", apperr.New(apperr.KindUpstream, op, "image response has no url")
	}

	log.Printf("[openai] image generated model=%s url=%s", p.model, resp.Data[0].URL)
	return resp.Data[0].URL, nil
}
