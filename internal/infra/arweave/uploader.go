// internal/infra/arweave/uploader.go
package arweave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"promptmint/internal/platform/apperr"
)

// Irys Uploader (Cloud Run) などの HTTP API を叩く実装
type HTTPUploader struct {
	client  *http.Client
	baseURL string // 例: "https://promptmint-irys-uploader-xxxx.run.app"
	apiKey  string // 認証が必要な場合に使用（ARWEAVE_API_KEY）
}

// NewHTTPUploader は Arweave/Irys 用の HTTP uploader を生成します。
func NewHTTPUploader(baseURL, apiKey string) *HTTPUploader {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/") // 末尾の "/" を削っておく

	return &HTTPUploader{
		// タイムアウトなし: pipeline 全体が single-attempt / fail-fast で、
		// 呼び出しの打ち切りはしない
		client:  &http.Client{},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// UploadFile は画像などのバイト列を Irys 経由で Arweave にアップロードし、
// 恒久 URI を返します。リトライはしない（1 回失敗したら pipeline ごと中断）。
func (u *HTTPUploader) UploadFile(ctx context.Context, data []byte, fileName, contentType string) (string, error) {
	const op = "arweave.UploadFile"

	if len(data) == 0 {
		return "", apperr.New(apperr.KindUpstream, op, "file data is empty")
	}

	endpoint := u.baseURL + "/upload/file?name=" + url.QueryEscape(fileName)
	log.Printf("[arweave] UploadFile start name=%s len=%d", fileName, len(data))

	uri, err := u.post(ctx, op, endpoint, contentType, data)
	if err != nil {
		return "", err
	}

	log.Printf("[arweave] UploadFile OK uri=%s", uri)
	return uri, nil
}

// UploadJSON は metadataJSON を Irys Uploader 経由で Arweave にアップロードし、その URL を返します。
// 呼び出し側（pipeline）が JSON をエンコードした []byte を渡してくる前提です。
func (u *HTTPUploader) UploadJSON(ctx context.Context, metadataJSON []byte) (string, error) {
	const op = "arweave.UploadJSON"

	if len(metadataJSON) == 0 {
		return "", apperr.New(apperr.KindUpstream, op, "metadataJSON is empty")
	}

	log.Printf("[arweave] UploadJSON start len=%d", len(metadataJSON))

	uri, err := u.post(ctx, op, u.baseURL+"/upload/json", "application/json", metadataJSON)
	if err != nil {
		return "", err
	}

	log.Printf("[arweave] UploadJSON OK uri=%s", uri)
	return uri, nil
}

func (u *HTTPUploader) post(ctx context.Context, op, endpoint, contentType string, body []byte) (string, error) {
	if u.baseURL == "" {
		return "", apperr.New(apperr.KindUpstream, op, "baseURL is empty; arweave endpoint not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, op, "create request", err)
	}
	req.Header.Set("Content-Type", contentType)

	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		log.Printf("[arweave] http request FAILED err=%v", err)
		return "", apperr.Wrap(apperr.KindUpstream, op, "upload to arweave", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[arweave] upload FAILED status=%d body=%s", resp.StatusCode, string(bodyBytes))
		return "", &apperr.Error{
			Kind:    apperr.KindUpstream,
			Op:      op,
			Message: fmt.Sprintf("upload failed: status=%d body=%s", resp.StatusCode, string(bodyBytes)),
			Status:  resp.StatusCode,
		}
	}

	var res struct {
		URI string `json:"uri"` // 例: "https://gateway.irys.xyz/xxxx"
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, op, "decode upload response", err)
	}
	if res.URI == "" {
		return "", apperr.New(apperr.KindUpstream, op, "upload response has empty uri")
	}

	return res.URI, nil
}
