// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/storage"

	httpin "promptmint/internal/adapters/in/http"
	"promptmint/internal/adapters/in/http/handlers"
	"promptmint/internal/application/usecase"
	"promptmint/internal/infra/arweave"
	"promptmint/internal/infra/config"
	"promptmint/internal/infra/gcs"
	"promptmint/internal/infra/images"
	infraopenai "promptmint/internal/infra/openai"
	"promptmint/internal/infra/solana"
)

// Container は main.go から使う依存オブジェクトの束。
// 目的: main.go を極限まで薄くすること。
type Container struct {
	Config *config.Config

	GenerateUC *usecase.GenerateUsecase
	Pipeline   *usecase.MintPipeline
	Uploader   usecase.ArtifactUploader

	cleanupFn []func()
}

// Close はプロセス終了時に呼んで安全にリソースを閉じる。
func (c *Container) Close() {
	for _, fn := range c.cleanupFn {
		fn()
	}
}

// NewContainer は DI コンテナを初期化して返す。
// - 環境変数から Config を読む
// - 署名ウォレット・外部クライアントを組み立てる
// - ArtifactStore / Uploader / Minter / Pipeline / Usecase を全部つなぐ
func NewContainer(ctx context.Context) (*Container, error) {
	cfg := config.Load()

	// ------------------------------------------------------------
	// 1. 画像生成プロバイダ
	// ------------------------------------------------------------
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("di: OPENAI_API_KEY is empty")
	}
	provider := infraopenai.NewImageProvider(cfg.OpenAIAPIKey, cfg.OpenAIOrgID, cfg.ImageModel)

	// ------------------------------------------------------------
	// 2. ローカル保存先
	// ------------------------------------------------------------
	store, err := images.NewStore(cfg.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("di: init images store: %w", err)
	}

	// ------------------------------------------------------------
	// 3. 恒久ストレージ: Arweave/Irys を優先し、無ければ GCS
	// ------------------------------------------------------------
	c := &Container{Config: cfg}

	var uploader usecase.ArtifactUploader
	switch {
	case cfg.ArweaveBaseURL != "":
		uploader = arweave.NewHTTPUploader(cfg.ArweaveBaseURL, cfg.ArweaveAPIKey)
		log.Printf("[di] durable storage = arweave (%s)", cfg.ArweaveBaseURL)
	case cfg.GCSBucket != "":
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("di: init gcs client: %w", err)
		}
		c.cleanupFn = append(c.cleanupFn, func() { _ = gcsClient.Close() })
		uploader = gcs.NewUploader(gcsClient, cfg.GCSBucket)
		log.Printf("[di] durable storage = gcs (bucket=%s)", cfg.GCSBucket)
	default:
		return nil, fmt.Errorf("di: neither ARWEAVE_BASE_URL nor GCS_BUCKET is configured")
	}

	// ------------------------------------------------------------
	// 4. 署名ウォレットと minter
	// ------------------------------------------------------------
	authority, err := solana.LoadMintAuthority(ctx, cfg.WalletKeypairFile, cfg.SolanaMintKeySecret)
	if err != nil {
		return nil, fmt.Errorf("di: load mint authority: %w", err)
	}
	minter := solana.NewNFTMinter(cfg.SolanaRPCURL, authority)

	// ------------------------------------------------------------
	// 5. pipeline / usecase
	// ------------------------------------------------------------
	c.Uploader = uploader
	c.Pipeline = usecase.NewMintPipeline(store, uploader, minter)
	c.GenerateUC = usecase.NewGenerateUsecase(cfg.ImageModel, provider, c.Pipeline)

	return c, nil
}

// RouterDeps は HTTP ルータに渡す依存を組み立てる。
func (c *Container) RouterDeps() httpin.RouterDeps {
	return httpin.RouterDeps{
		Generate: handlers.NewGenerateHandler(c.GenerateUC),
	}
}
