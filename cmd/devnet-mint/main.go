// cmd/devnet-mint/main.go
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"promptmint/internal/domain/generation"
	"promptmint/internal/platform/di"
)

// 手動 E2E 確認用: 既にホストされている画像 URL を入力に、
// pipeline を 1 回だけ同期実行して devnet にミントする。
//
//	go run ./cmd/devnet-mint -image-url https://... -pub-key <base58> -prompt "a red fox in snow"
func main() {
	imageURL := flag.String("image-url", "", "URL of an already-hosted image to mint")
	pubKey := flag.String("pub-key", "", "recipient wallet address (base58)")
	prompt := flag.String("prompt", "devnet mint check", "prompt to embed in the metadata")
	flag.Parse()

	if *imageURL == "" || *pubKey == "" {
		log.Fatal("usage: devnet-mint -image-url <url> -pub-key <base58> [-prompt <text>]")
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("[devnet-mint] no .env file loaded: %v", err)
	}

	ctx := context.Background()

	container, err := di.NewContainer(ctx)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer container.Close()

	req, err := generation.NewRequest(uuid.NewString(), *prompt, *pubKey, container.Config.ImageModel)
	if err != nil {
		log.Fatalf("invalid input: %v", err)
	}

	start := time.Now()
	result, err := container.Pipeline.Run(ctx, generation.GeneratedImage{
		URL:     *imageURL,
		Request: req,
	})
	if err != nil {
		log.Fatalf("pipeline failed after %s: %v", time.Since(start), err)
	}

	log.Printf("[devnet-mint] OK in %s", time.Since(start))
	log.Printf("[devnet-mint] mint=%s tx=%s", result.MintAddress, result.TxSignature)
	log.Printf("[devnet-mint] image=%s metadata=%s", result.ImageURI, result.MetadataURI)
}
