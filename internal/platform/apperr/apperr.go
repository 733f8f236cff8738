// internal/platform/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind はエラーの分類タグ。
// handler はこのタグだけを見て HTTP ステータスとレスポンス本文を決める。
type Kind string

const (
	// KindInvalidInput : prompt / pubKey の検証エラー（呼び出し側起因, 4xx）
	KindInvalidInput Kind = "invalid_input"
	// KindUpstream : 画像生成 / アップロード先のプロバイダ障害
	KindUpstream Kind = "upstream"
	// KindFetch : 生成画像バイト列の取得失敗
	KindFetch Kind = "fetch"
	// KindIO : ローカル保存の失敗（ディスク・権限）
	KindIO Kind = "io"
	// KindLedger : アカウント作成・ミント・承認待ちの失敗
	KindLedger Kind = "ledger"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Status は upstream 側が返した HTTP ステータス（不明なら 0）
	Status int
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// HTTPStatus は同期フェーズでレスポンスに使うステータスを返す。
// - invalid_input → 400
// - upstream かつ Status あり → そのまま（例: OpenAI 側の 429）
// - それ以外 → 500
func HTTPStatus(err error) int {
	var typed *Error
	if !errors.As(err, &typed) {
		return http.StatusInternalServerError
	}
	switch typed.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUpstream:
		if typed.Status != 0 {
			return typed.Status
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Detail はレスポンス body の {"detail": ...} に入れる文言を返す。
func Detail(err error) string {
	var typed *Error
	if !errors.As(err, &typed) {
		if err != nil {
			return err.Error()
		}
		return ""
	}
	if typed.Message != "" {
		return typed.Message
	}
	if typed.Cause != nil {
		return typed.Cause.Error()
	}
	return string(typed.Kind)
}
