// internal/application/usecase/mint_pipeline_test.go
package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptmint/internal/domain/generation"
	"promptmint/internal/platform/apperr"
)

const testPubKey = "11111111111111111111111111111111"

// ------------------------------------------------------
// 呼び出し順を記録する fakes
// ------------------------------------------------------

type callRecorder struct {
	calls []string
}

func (r *callRecorder) record(name string) {
	r.calls = append(r.calls, name)
}

type fakeStore struct {
	rec      *callRecorder
	fetchErr error
	saveErr  error
}

func (s *fakeStore) Fetch(ctx context.Context, url string) ([]byte, error) {
	s.rec.record("fetch")
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return []byte("png-bytes"), nil
}

func (s *fakeStore) SaveLocal(data []byte) (string, string, error) {
	s.rec.record("save")
	if s.saveErr != nil {
		return "", "", s.saveErr
	}
	return "1700000000000.png", "images/1700000000000.png", nil
}

type fakeUploader struct {
	rec     *callRecorder
	fileErr error
	jsonErr error
}

func (u *fakeUploader) UploadFile(ctx context.Context, data []byte, fileName, contentType string) (string, error) {
	u.rec.record("uploadFile")
	if u.fileErr != nil {
		return "", u.fileErr
	}
	return "https://gateway.irys.xyz/image", nil
}

func (u *fakeUploader) UploadJSON(ctx context.Context, data []byte) (string, error) {
	u.rec.record("uploadJSON")
	if u.jsonErr != nil {
		return "", u.jsonErr
	}
	return "https://gateway.irys.xyz/metadata", nil
}

type fakeMinter struct {
	rec      *callRecorder
	beginErr error
	ataErr   error
	mintErr  error
}

func (m *fakeMinter) BeginMint(recipient string) (MintRun, error) {
	m.rec.record("beginMint")
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &fakeMintRun{minter: m}, nil
}

type fakeMintRun struct {
	minter *fakeMinter
}

func (r *fakeMintRun) MintAddress() string {
	return "MintAddr11111111111111111111111111111111111"
}

func (r *fakeMintRun) CreateRecipientTokenAccount(ctx context.Context) (string, error) {
	r.minter.rec.record("createTokenAccount")
	if r.minter.ataErr != nil {
		return "", r.minter.ataErr
	}
	return "Ata1111111111111111111111111111111111111111", nil
}

func (r *fakeMintRun) Mint(ctx context.Context, meta generation.Metadata, metadataURI string) (string, error) {
	r.minter.rec.record("mint")
	if r.minter.mintErr != nil {
		return "", r.minter.mintErr
	}
	return "tx-signature", nil
}

func newFixture() (*callRecorder, *fakeStore, *fakeUploader, *fakeMinter, *MintPipeline) {
	rec := &callRecorder{}
	store := &fakeStore{rec: rec}
	uploader := &fakeUploader{rec: rec}
	minter := &fakeMinter{rec: rec}
	return rec, store, uploader, minter, NewMintPipeline(store, uploader, minter)
}

func testImage(t *testing.T) generation.GeneratedImage {
	t.Helper()
	req, err := generation.NewRequest("req-1", "a red fox in snow", testPubKey, "dall-e-3")
	require.NoError(t, err)
	return generation.GeneratedImage{URL: "https://provider.example/tmp.png", Request: req}
}

// ------------------------------------------------------
// Tests
// ------------------------------------------------------

func TestRun_StepsInFixedOrder(t *testing.T) {
	rec, _, _, _, p := newFixture()

	result, err := p.Run(context.Background(), testImage(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"fetch",
		"save",
		"uploadFile",
		"uploadJSON",
		"beginMint",
		"createTokenAccount",
		"mint",
	}, rec.calls)

	assert.Equal(t, "https://gateway.irys.xyz/image", result.ImageURI)
	assert.Equal(t, "https://gateway.irys.xyz/metadata", result.MetadataURI)
	assert.Equal(t, "MintAddr11111111111111111111111111111111111", result.MintAddress)
	assert.Equal(t, "tx-signature", result.TxSignature)
}

func TestRun_FetchFailureStopsEverything(t *testing.T) {
	rec, store, _, _, p := newFixture()
	store.fetchErr = apperr.New(apperr.KindFetch, "images.Fetch", "failed to fetch image: status=404")

	_, err := p.Run(context.Background(), testImage(t))
	require.Error(t, err)

	assert.Equal(t, []string{"fetch"}, rec.calls)
}

func TestRun_UploadFailureSkipsLedger(t *testing.T) {
	rec, _, uploader, _, p := newFixture()
	uploader.fileErr = apperr.New(apperr.KindUpstream, "arweave.UploadFile", "upload failed: status=503")

	_, err := p.Run(context.Background(), testImage(t))
	require.Error(t, err)

	// LedgerMinter には一切触れない
	assert.Equal(t, []string{"fetch", "save", "uploadFile"}, rec.calls)
	assert.NotContains(t, rec.calls, "beginMint")
	assert.NotContains(t, rec.calls, "mint")
}

func TestRun_MetadataPublishFailureSkipsLedger(t *testing.T) {
	rec, _, uploader, _, p := newFixture()
	uploader.jsonErr = apperr.New(apperr.KindUpstream, "arweave.UploadJSON", "upload failed: status=500")

	_, err := p.Run(context.Background(), testImage(t))
	require.Error(t, err)

	assert.Equal(t, []string{"fetch", "save", "uploadFile", "uploadJSON"}, rec.calls)
}

func TestRun_TokenAccountFailureSkipsMint(t *testing.T) {
	rec, _, _, minter, p := newFixture()
	minter.ataErr = apperr.New(apperr.KindLedger, "solana.CreateRecipientTokenAccount", "insufficient payer balance")

	_, err := p.Run(context.Background(), testImage(t))
	require.Error(t, err)

	// ミント tx は送信しない
	assert.NotContains(t, rec.calls, "mint")
	assert.Equal(t, "createTokenAccount", rec.calls[len(rec.calls)-1])
}

func TestRun_MintFailureIsTerminal(t *testing.T) {
	rec, _, _, minter, p := newFixture()
	minter.mintErr = errors.New("transaction rejected")

	_, err := p.Run(context.Background(), testImage(t))
	require.Error(t, err)

	// 巻き戻し呼び出しは存在しない（mint が最後の呼び出しのまま）
	assert.Equal(t, "mint", rec.calls[len(rec.calls)-1])
}
