// internal/adapters/in/http/handlers/generate_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"promptmint/internal/platform/apperr"
)

// ImageGenerationService は handler が依存する最小ポート。
// 実装は usecase.GenerateUsecase。
type ImageGenerationService interface {
	// 同期フェーズ: 検証 → 画像生成 → URL 返却。
	// 成功時にバックグラウンドの mint pipeline を 1 つ起動する。
	GenerateAndMint(ctx context.Context, prompt, pubKey string) (string, error)
}

type GenerateHandler struct {
	service ImageGenerationService
}

func NewGenerateHandler(service ImageGenerationService) *GenerateHandler {
	return &GenerateHandler{service: service}
}

// ServeHTTP handles GET /generate-image?prompt=...&pubKey=...
//
// レスポンスは画像生成が終わった時点で返す。ミントの成否はこの
// レスポンスには含まれない（バックグラウンドで続行）。
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}

	prompt := r.URL.Query().Get("prompt")
	pubKey := r.URL.Query().Get("pubKey")

	log.Printf("[generate_handler] request path=%s pubKey=%q promptLen=%d", r.URL.Path, pubKey, len(prompt))

	imageURL, err := h.service.GenerateAndMint(r.Context(), prompt, pubKey)
	if err != nil {
		status := apperr.HTTPStatus(err)
		log.Printf("[generate_handler] request failed status=%d err=%v", status, err)
		writeJSON(w, status, map[string]string{"detail": apperr.Detail(err)})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"image_url": imageURL})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[generate_handler] encode response failed: %v", err)
	}
}
