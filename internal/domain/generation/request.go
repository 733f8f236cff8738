// internal/domain/generation/request.go
package generation

import (
	"strings"
	"time"

	"github.com/mr-tron/base58"

	"promptmint/internal/platform/apperr"
)

// ------------------------------------------------------
// Entity: Request (1 画像生成リクエスト)
// ------------------------------------------------------
//
// handler で生成されてから pipeline に渡るまで所有者は常に 1 つ。
// 途中で書き換えない（immutable 扱い）。
type Request struct {
	// 相関 ID。バックグラウンドのログを突き合わせるために使う。
	ID string
	// 生成プロンプト（trim 済み, 1〜4000 文字）
	Prompt string
	// 受取ウォレットの base58 アドレス
	Recipient string
	// 画像生成モデルのタグ（例: "dall-e-3"）
	Model string
	CreatedAt time.Time
}

// MaxPromptLen : プロンプト長の上限（文字数）
const MaxPromptLen = 4000

// フロント互換のため detail 文言は元 API のまま固定する。
const (
	msgPromptInvalid    = "Prompt is required & it should be less than 4000 characters"
	msgPubKeyRequired   = "pubKey is required"
	msgPubKeyInvalid    = "Invalid pubKey"
	solanaPublicKeySize = 32
)

// NewRequest validates inputs and builds an immutable Request.
// 検証 NG のときは必ず apperr.KindInvalidInput を返し、
// ImageProvider には一切問い合わせない（呼び出し側の責務）。
func NewRequest(id, prompt, recipient, model string) (Request, error) {
	const op = "generation.NewRequest"

	prompt = strings.TrimSpace(prompt)
	if prompt == "" || len([]rune(prompt)) > MaxPromptLen {
		return Request{}, apperr.New(apperr.KindInvalidInput, op, msgPromptInvalid)
	}

	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return Request{}, apperr.New(apperr.KindInvalidInput, op, msgPubKeyRequired)
	}
	if !isValidPublicKey(recipient) {
		return Request{}, apperr.New(apperr.KindInvalidInput, op, msgPubKeyInvalid)
	}

	return Request{
		ID:        id,
		Prompt:    prompt,
		Recipient: recipient,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// isValidPublicKey : base58 で 32 バイトにデコードできるか。
// 残高や存在チェックはしない（それは ledger 側の仕事）。
func isValidPublicKey(s string) bool {
	b, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(b) == solanaPublicKeySize
}
