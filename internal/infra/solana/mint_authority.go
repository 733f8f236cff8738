// internal/infra/solana/mint_authority.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"log"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
)

// MintAuthority はプロセス全体で共有する唯一の署名ウォレットを表します。
// 起動時に一度だけロードし、以後はローテーションしない。
// 並行する pipeline からは読み取り専用で共有される。
type MintAuthority struct {
	Account types.Account
}

// LoadMintAuthority は署名鍵ペアをロードします。
//
// 優先順位:
//  1. secretName が指定されていれば Secret Manager から取得。
//     "projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest"
//     のような Secret Version のフルパスを渡してください。
//  2. そうでなければ keypairFile (solana-keygen の keypair JSON) を読む。
func LoadMintAuthority(ctx context.Context, keypairFile, secretName string) (*MintAuthority, error) {
	if secretName != "" {
		return loadFromSecretManager(ctx, secretName)
	}
	return loadFromFile(keypairFile)
}

func loadFromFile(path string) (*MintAuthority, error) {
	if path == "" {
		return nil, fmt.Errorf("keypair file path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}

	keyBytes, err := decodeKeypairJSON(data)
	if err != nil {
		return nil, err
	}

	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("AccountFromBytes: %w", err)
	}

	log.Printf("[mint-authority] loaded signing keypair from file: path=%s pubkey=%s",
		path, acc.PublicKey.ToBase58())

	return &MintAuthority{Account: acc}, nil
}

func loadFromSecretManager(ctx context.Context, secretName string) (*MintAuthority, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return nil, fmt.Errorf("AccessSecretVersion: %w", err)
	}

	keyBytes, err := decodeKeypairJSON(resp.Payload.Data)
	if err != nil {
		return nil, err
	}

	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("AccountFromBytes: %w", err)
	}

	log.Printf("[mint-authority] loaded signing keypair from Secret Manager: secret=%s pubkey=%s",
		secretName, acc.PublicKey.ToBase58())

	return &MintAuthority{Account: acc}, nil
}

// decodeKeypairJSON は keypair JSON から 64 バイトの鍵配列を復元します。
// - 正: [u8;64] を []byte で受け取る
// - 互換: [int,...] を []int で受けてから []byte に変換
func decodeKeypairJSON(data []byte) ([]byte, error) {
	// まずは []byte としてのデコードを試みる
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err == nil {
		if len(keyBytes) == ed25519.PrivateKeySize {
			return keyBytes, nil
		}
		// 長さが想定外の場合は後続のパスでエラーにする
	}

	// フォールバック: [int,int,...] の形式
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}

	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}

	keyBytes = make([]byte, len(ints))
	for i, v := range ints {
		keyBytes[i] = byte(v)
	}

	return keyBytes, nil
}
