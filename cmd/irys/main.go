// cmd/irys/main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"promptmint/internal/infra/arweave"
)

// 疎通確認用: 設定済みの Irys/Arweave エンドポイントに
// プローブ JSON を 1 件アップロードして URI を表示する。
func main() {
	baseURL := os.Getenv("ARWEAVE_BASE_URL")
	if baseURL == "" {
		log.Fatal("ARWEAVE_BASE_URL is empty")
	}

	u := arweave.NewHTTPUploader(baseURL, os.Getenv("ARWEAVE_API_KEY"))

	payload := map[string]any{
		"hello": "from promptmint debug",
		"ts":    time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("marshal json: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Printf("[debug-irys] UploadJSON to %s ...", baseURL)
	uri, err := u.UploadJSON(ctx, data)
	if err != nil {
		log.Fatalf("UploadJSON failed: %v", err)
	}

	log.Printf("[debug-irys] OK uri=%s", uri)
}
