// internal/application/usecase/mint_pipeline.go
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"promptmint/internal/domain/generation"
	"promptmint/internal/platform/apperr"
)

// ============================================================
// Ports (pipeline が依存する最小インターフェース)
// ============================================================

// ArtifactStore は画像バイト列の取得とローカル保存を担う。
// 実装例: images.Store
type ArtifactStore interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	SaveLocal(data []byte) (fileName string, path string, err error)
}

// ArtifactUploader は恒久ストレージへのアップロードを担う。
// 実装例: arweave.HTTPUploader / gcs.Uploader
type ArtifactUploader interface {
	UploadFile(ctx context.Context, data []byte, fileName, contentType string) (string, error)
	UploadJSON(ctx context.Context, data []byte) (string, error)
}

// MintRun は 1 回のミントに閉じた台帳操作。
// mint アカウントの鍵は run ごとに新規生成される（run 間で共有しない）。
type MintRun interface {
	MintAddress() string
	// 受取側 associated token account を作成して確定を待つ
	CreateRecipientTokenAccount(ctx context.Context) (string, error)
	// mint 本体の tx を署名・送信して確定を待ち、tx シグネチャを返す
	Mint(ctx context.Context, meta generation.Metadata, metadataURI string) (string, error)
}

// Minter は MintRun のファクトリ。
// BeginMint の時点で recipient を台帳アドレスとしてパースし、
// 不正なら apperr.KindInvalidInput を返す。
// 実装例: solana.NFTMinter
type Minter interface {
	BeginMint(recipient string) (MintRun, error)
}

// ============================================================
// State machine
// ============================================================

// State は 1 パイプラインの進行状態。遷移は前進のみで、
// どのステップで失敗しても StateFailed へ直行する（巻き戻しなし）。
type State string

const (
	StateFetching           State = "Fetching"
	StatePersisting         State = "Persisting"
	StateUploading          State = "Uploading"
	StateBuildingMetadata   State = "BuildingMetadata"
	StatePublishingMetadata State = "PublishingMetadata"
	StateCreatingAccount    State = "CreatingAccount"
	StateMinting            State = "Minting"
	StateConfirmed          State = "Confirmed"
	StateFailed             State = "Failed"
)

// ============================================================
// MintPipeline 本体
// ============================================================

// MintPipeline は「画像 URL を返した後」のバックグラウンド処理を
// 1 リクエスト分だけ順番に進めるオーケストレータ。
//
//   - 各ステップは前ステップの結果に依存するため厳密に逐次実行
//   - リトライなし・タイムアウトなし・補償トランザクションなし
//   - 失敗は呼び出し元には一切伝わらない。相関 ID 付きでログに残すのみ
//
// 複数リクエストが並行しても pipeline インスタンス間で共有する
// 可変状態はない（署名鍵と RPC クライアントは読み取り専用で共有）。
type MintPipeline struct {
	store    ArtifactStore
	uploader ArtifactUploader
	minter   Minter
}

func NewMintPipeline(store ArtifactStore, uploader ArtifactUploader, minter Minter) *MintPipeline {
	return &MintPipeline{
		store:    store,
		uploader: uploader,
		minter:   minter,
	}
}

// Run は 1 件の GeneratedImage をミント済み NFT まで進める。
// 呼び出し元（handler）は戻り値を見ない前提だが、cmd/devnet-mint の
// ような同期的な利用のために結果も返す。
func (p *MintPipeline) Run(ctx context.Context, img generation.GeneratedImage) (generation.MintResult, error) {
	req := img.Request

	// 1) Fetching: 一時 URL から画像バイト列を取得
	p.transition(req.ID, StateFetching)
	data, err := p.store.Fetch(ctx, img.URL)
	if err != nil {
		return generation.MintResult{}, p.fail(req, StateFetching, err)
	}

	// 2) Persisting: <ms-timestamp>.png としてローカル保存
	p.transition(req.ID, StatePersisting)
	fileName, localPath, err := p.store.SaveLocal(data)
	if err != nil {
		return generation.MintResult{}, p.fail(req, StatePersisting, err)
	}
	log.Printf("[pipeline] id=%s image saved at %s", req.ID, localPath)

	// 3) Uploading: 恒久ストレージへ
	p.transition(req.ID, StateUploading)
	imageURI, err := p.uploader.UploadFile(ctx, data, fileName, "image/png")
	if err != nil {
		return generation.MintResult{}, p.fail(req, StateUploading, err)
	}
	log.Printf("[pipeline] id=%s image uri=%s", req.ID, imageURI)

	// 4) BuildingMetadata: metadata ドキュメント組み立て（純関数）
	p.transition(req.ID, StateBuildingMetadata)
	meta := generation.BuildMetadata(req, fileName, imageURI)
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return generation.MintResult{}, p.fail(req, StateBuildingMetadata, err)
	}

	// 5) PublishingMetadata
	p.transition(req.ID, StatePublishingMetadata)
	metadataURI, err := p.uploader.UploadJSON(ctx, metaJSON)
	if err != nil {
		return generation.MintResult{}, p.fail(req, StatePublishingMetadata, err)
	}
	log.Printf("[pipeline] id=%s metadata uri=%s", req.ID, metadataURI)

	// 6) CreatingAccount: recipient パース + 受取 ATA 作成
	p.transition(req.ID, StateCreatingAccount)
	run, err := p.minter.BeginMint(req.Recipient)
	if err != nil {
		return generation.MintResult{}, p.fail(req, StateCreatingAccount, err)
	}
	tokenAccount, err := run.CreateRecipientTokenAccount(ctx)
	if err != nil {
		return generation.MintResult{}, p.fail(req, StateCreatingAccount, err)
	}
	log.Printf("[pipeline] id=%s token account=%s mint=%s", req.ID, tokenAccount, run.MintAddress())

	// 7) Minting: ミント tx 送信と確定待ち。ここで失敗すると
	// 作成済みの mint / token アカウントは未使用のまま残る（掃除しない）。
	p.transition(req.ID, StateMinting)
	signature, err := run.Mint(ctx, meta, metadataURI)
	if err != nil {
		return generation.MintResult{}, p.fail(req, StateMinting, err)
	}

	// 8) Confirmed
	p.transition(req.ID, StateConfirmed)
	result := generation.MintResult{
		ImageURI:    imageURI,
		MetadataURI: metadataURI,
		MintAddress: run.MintAddress(),
		TxSignature: signature,
	}
	log.Printf("[pipeline] id=%s minted and transferred NFT: mint=%s tx=%s metadata=%s",
		req.ID, result.MintAddress, result.TxSignature, result.MetadataURI)

	return result, nil
}

func (p *MintPipeline) transition(id string, s State) {
	log.Printf("[pipeline] id=%s state=%s", id, s)
}

// fail は終端の Failed 遷移。caller はすでに HTTP レスポンスを
// 受け取っているので、ここからエラーが外へ伝わることはない。
// 失敗したミントを後から再構成できるだけの相関情報を必ずログに残す。
func (p *MintPipeline) fail(req generation.Request, at State, err error) error {
	log.Printf("[pipeline] id=%s state=%s failedAt=%s kind=%s prompt=%q pubKey=%s createdAt=%s err=%v",
		req.ID, StateFailed, at, kindOf(err), req.Prompt, req.Recipient,
		req.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"), err)
	return fmt.Errorf("pipeline failed at %s: %w", at, err)
}

func kindOf(err error) apperr.Kind {
	for _, k := range []apperr.Kind{
		apperr.KindInvalidInput,
		apperr.KindUpstream,
		apperr.KindFetch,
		apperr.KindIO,
		apperr.KindLedger,
	} {
		if apperr.IsKind(err, k) {
			return k
		}
	}
	return "unknown"
}
