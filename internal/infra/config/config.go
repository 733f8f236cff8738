// internal/infra/config/config.go
package config

import "os"

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	Port string

	// OpenAI (画像生成)
	OpenAIAPIKey string
	OpenAIOrgID  string
	ImageModel   string

	// 生成画像のローカル保存先
	ImagesDir string

	// CORS で許可するフロントのオリジン（1 つだけ）
	AllowedOrigin string

	// Solana
	SolanaRPCURL string
	// solana-keygen 形式の keypair JSON ファイル（ローカル運用）
	WalletKeypairFile string
	// Secret Manager の Secret Version フルパス（Cloud 運用。設定時はこちらを優先）
	SolanaMintKeySecret string

	// 恒久ストレージ: Arweave/Irys ラッパ API か GCS のどちらか
	ArweaveBaseURL string
	ArweaveAPIKey  string
	GCSBucket      string
}

// Load は環境変数を読み込み Config を返します。
func Load() *Config {
	return &Config{
		Port: getenvDefault("PORT", "8000"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIOrgID:  os.Getenv("OPENAI_ORG_ID"),
		ImageModel:   getenvDefault("IMAGE_MODEL", "dall-e-3"),

		ImagesDir: getenvDefault("IMAGES_DIR", "images"),

		AllowedOrigin: getenvDefault("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),

		SolanaRPCURL:        os.Getenv("SOLANA_RPC_URL"),
		WalletKeypairFile:   getenvDefault("WALLET_KEYPAIR_FILE", "wba-wallet.json"),
		SolanaMintKeySecret: os.Getenv("SOLANA_MINT_KEY_SECRET"),

		ArweaveBaseURL: os.Getenv("ARWEAVE_BASE_URL"),
		ArweaveAPIKey:  os.Getenv("ARWEAVE_API_KEY"),
		GCSBucket:      os.Getenv("GCS_BUCKET"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
