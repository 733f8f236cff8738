// internal/platform/apperr/apperr_test.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_PreservesTypedError(t *testing.T) {
	inner := New(KindUpstream, "openai.Generate", "rate limited")
	inner.Status = 429

	// 既に分類済みのエラーは上書きせずそのまま伝播する
	wrapped := Wrap(KindLedger, "pipeline.Run", "mint failed", fmt.Errorf("step: %w", inner))

	assert.Equal(t, KindUpstream, wrapped.Kind)
	assert.Equal(t, 429, wrapped.Status)
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(KindIO, "store.SaveLocal", "write failed", nil))
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(KindFetch, "store.Fetch", "status=403"))

	assert.True(t, IsKind(err, KindFetch))
	assert.False(t, IsKind(err, KindUpstream))
	assert.False(t, IsKind(errors.New("plain"), KindFetch))
	assert.False(t, IsKind(nil, KindFetch))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", New(KindInvalidInput, "op", "pubKey is required"), http.StatusBadRequest},
		{"upstream with status", &Error{Kind: KindUpstream, Op: "op", Message: "rate limited", Status: 429}, http.StatusTooManyRequests},
		{"upstream without status", New(KindUpstream, "op", "connection reset"), http.StatusInternalServerError},
		{"ledger", New(KindLedger, "op", "tx failed"), http.StatusInternalServerError},
		{"untyped", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestDetail(t *testing.T) {
	assert.Equal(t, "pubKey is required", Detail(New(KindInvalidInput, "op", "pubKey is required")))
	assert.Equal(t, "disk full", Detail(&Error{Kind: KindIO, Op: "op", Cause: errors.New("disk full")}))
	assert.Equal(t, "io", Detail(&Error{Kind: KindIO, Op: "op"}))
	assert.Equal(t, "plain", Detail(errors.New("plain")))
	assert.Empty(t, Detail(nil))
}

func TestError_String(t *testing.T) {
	err := &Error{Kind: KindFetch, Op: "store.Fetch", Message: "status=403", Cause: errors.New("forbidden")}
	assert.Equal(t, "[fetch:store.Fetch] status=403: forbidden", err.Error())

	bare := New(KindLedger, "minter.Mint", "tx failed")
	assert.Equal(t, "[ledger:minter.Mint] tx failed", bare.Error())
}
