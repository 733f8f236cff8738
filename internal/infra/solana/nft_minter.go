// internal/infra/solana/nft_minter.go
package solana

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	usecase "promptmint/internal/application/usecase"
	"promptmint/internal/domain/generation"
	"promptmint/internal/platform/apperr"
)

const defaultDevnetRPC = "https://api.devnet.solana.com"

// confirmPollInterval : 確定待ちポーリング間隔。
// 全体のタイムアウトは設けない（fail-fast だが待ちは打ち切らない方針）。
const confirmPollInterval = 2 * time.Second

// NFTMinter は blocto SDK で mint / ATA 作成 / 送信確定を行う実装。
//
// 署名ウォレットは 1 プロセスに 1 つだけで、全 pipeline から共有される。
// 同一 signer からの並行送信が blockhash / シーケンスで競合しないよう、
// 送信〜確定待ちは submitMu で直列化する（pipeline 全体は直列化しない）。
type NFTMinter struct {
	RPC       *client.Client
	authority types.Account

	submitMu sync.Mutex
}

// NewNFTMinter constructs the minter.
// RPC URL resolves to devnet if url is empty.
func NewNFTMinter(rpcURL string, authority *MintAuthority) *NFTMinter {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = defaultDevnetRPC
	}
	return &NFTMinter{
		RPC:       client.NewClient(u),
		authority: authority.Account,
	}
}

// BeginMint は recipient をパースし、新しい mint アカウント鍵を生成して
// 1 ミント分の run を返す。recipient が base58 の 32 バイト公開鍵で
// なければ apperr.KindInvalidInput。
func (m *NFTMinter) BeginMint(recipient string) (usecase.MintRun, error) {
	const op = "solana.BeginMint"

	recipient = strings.TrimSpace(recipient)
	b, err := base58.Decode(recipient)
	if err != nil || len(b) != ed25519.PublicKeySize {
		return nil, apperr.New(apperr.KindInvalidInput, op,
			fmt.Sprintf("invalid recipient address: %q", recipient))
	}

	return &mintRun{
		minter: m,
		owner:  common.PublicKeyFromString(recipient),
		mint:   types.NewAccount(), // NFT 用 mint アカウントを run ごとに新規作成
	}, nil
}

// mintRun は 1 ミント分の状態（受取アドレス・mint 鍵・導出済み ATA）。
// pipeline インスタンスが 1 つだけ所有する。
type mintRun struct {
	minter *NFTMinter
	owner  common.PublicKey
	mint   types.Account
	ata    common.PublicKey
}

func (r *mintRun) MintAddress() string {
	return r.mint.PublicKey.ToBase58()
}

// CreateRecipientTokenAccount は (owner, mint) の associated token account を
// 作成する tx を送信して確定を待つ。payer は署名ウォレット。
func (r *mintRun) CreateRecipientTokenAccount(ctx context.Context) (string, error) {
	const op = "solana.CreateRecipientTokenAccount"
	m := r.minter

	ata, _, err := common.FindAssociatedTokenAddress(r.owner, r.mint.PublicKey)
	if err != nil {
		return "", apperr.Wrap(apperr.KindLedger, op, "FindAssociatedTokenAddress", err)
	}

	recent, err := m.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", apperr.Wrap(apperr.KindLedger, op, "GetLatestBlockhash", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{m.authority},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        m.authority.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				associated_token_account.CreateAssociatedTokenAccount(
					associated_token_account.CreateAssociatedTokenAccountParam{
						Funder:                 m.authority.PublicKey,
						Owner:                  r.owner,
						Mint:                   r.mint.PublicKey,
						AssociatedTokenAccount: ata,
					},
				),
			},
		}),
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindLedger, op, "NewTransaction", err)
	}

	if _, err := m.submitAndConfirm(ctx, tx); err != nil {
		return "", apperr.Wrap(apperr.KindLedger, op, "create token account", err)
	}

	r.ata = ata
	return ata.ToBase58(), nil
}

// Mint は mint アカウント作成〜MasterEdition までを 1 つの tx にまとめて
// 送信し、確定した tx シグネチャを返す。
//
// 失敗した場合、先に作成済みのアカウントはそのまま残る（巻き戻さない）。
func (r *mintRun) Mint(ctx context.Context, meta generation.Metadata, metadataURI string) (string, error) {
	const op = "solana.Mint"
	m := r.minter

	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(r.mint.PublicKey)
	if err != nil {
		return "", apperr.Wrap(apperr.KindLedger, op, "GetTokenMetaPubkey", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(r.mint.PublicKey)
	if err != nil {
		return "", apperr.Wrap(apperr.KindLedger, op, "GetMasterEdition", err)
	}

	mintRent, err := m.RPC.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return "", apperr.Wrap(apperr.KindLedger, op, "GetMinimumBalanceForRentExemption", err)
	}

	recent, err := m.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", apperr.Wrap(apperr.KindLedger, op, "GetLatestBlockhash", err)
	}

	// 1 リクエスト = 1 点もの（MaxSupply = 1）
	maxSupply := uint64(1)

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{r.mint, m.authority},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        m.authority.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				// 1) mint アカウント作成
				system.CreateAccount(system.CreateAccountParam{
					From:     m.authority.PublicKey,
					New:      r.mint.PublicKey,
					Owner:    common.TokenProgramID,
					Lamports: mintRent,
					Space:    token.MintAccountSize,
				}),
				// 2) mint 初期化 (decimals = 0)
				token.InitializeMint(token.InitializeMintParam{
					Decimals:   0,
					Mint:       r.mint.PublicKey,
					MintAuth:   m.authority.PublicKey,
					FreezeAuth: &m.authority.PublicKey,
				}),
				// 3) Metaplex Metadata アカウント作成。
				//    creators は常に空（このシステムの固定仕様）。
				token_metadata.CreateMetadataAccountV3(
					token_metadata.CreateMetadataAccountV3Param{
						Metadata:                metadataPubkey,
						Mint:                    r.mint.PublicKey,
						MintAuthority:           m.authority.PublicKey,
						UpdateAuthority:         m.authority.PublicKey,
						Payer:                   m.authority.PublicKey,
						UpdateAuthorityIsSigner: true,
						IsMutable:               true,
						Data: token_metadata.DataV2{
							Name:                 meta.Name,
							Symbol:               meta.Symbol,
							Uri:                  metadataURI,
							SellerFeeBasisPoints: generation.SellerFeeBasisPoints,
						},
						CollectionDetails: nil,
					},
				),
				// 4) 受取 ATA へ 1 枚ミント
				token.MintTo(token.MintToParam{
					Mint:   r.mint.PublicKey,
					To:     r.ata,
					Auth:   m.authority.PublicKey,
					Amount: 1,
				}),
				// 5) MasterEdition v3 (MaxSupply = 1)
				token_metadata.CreateMasterEditionV3(
					token_metadata.CreateMasterEditionParam{
						Edition:         masterEditionPubkey,
						Mint:            r.mint.PublicKey,
						UpdateAuthority: m.authority.PublicKey,
						MintAuthority:   m.authority.PublicKey,
						Metadata:        metadataPubkey,
						Payer:           m.authority.PublicKey,
						MaxSupply:       &maxSupply,
					},
				),
			},
		}),
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindLedger, op, "NewTransaction", err)
	}

	sig, err := m.submitAndConfirm(ctx, tx)
	if err != nil {
		return "", apperr.Wrap(apperr.KindLedger, op, "mint transaction", err)
	}

	log.Printf("[nft_minter] minted: mint=%s tx=%s explorer=https://explorer.solana.com/tx/%s?cluster=devnet",
		r.MintAddress(), sig, sig)
	return sig, nil
}

// submitAndConfirm は tx を送信し、ネットワーク確定までポーリングで待つ。
// 同一 signer の並行送信を避けるため、送信〜確定は 1 本に直列化する。
func (m *NFTMinter) submitAndConfirm(ctx context.Context, tx types.Transaction) (string, error) {
	m.submitMu.Lock()
	defer m.submitMu.Unlock()

	sig, err := m.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("SendTransaction: %w", err)
	}
	log.Printf("[nft_minter] submitted tx=%s", sig)

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("confirm tx %s: %w", sig, ctx.Err())
		case <-time.After(confirmPollInterval):
		}

		status, err := m.RPC.GetSignatureStatus(ctx, sig)
		if err != nil {
			return "", fmt.Errorf("GetSignatureStatus: %w", err)
		}
		if status == nil {
			// まだクラスタに載っていない。送り直しはせず待つだけ。
			continue
		}
		if status.Err != nil {
			return "", fmt.Errorf("transaction %s rejected: %v", sig, status.Err)
		}
		if status.ConfirmationStatus != nil &&
			(*status.ConfirmationStatus == rpc.CommitmentConfirmed ||
				*status.ConfirmationStatus == rpc.CommitmentFinalized) {
			return sig, nil
		}
	}
}
