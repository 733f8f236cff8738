// internal/domain/generation/metadata.go
package generation

import "fmt"

// ------------------------------------------------------
// 値オブジェクト群: pipeline が各ステップ間で受け渡すもの
// ------------------------------------------------------

// GeneratedImage は ImageProvider が返した一時 URL と元リクエストの組。
// URL は短時間で失効する想定なので、バイト列を取得したら捨てる。
type GeneratedImage struct {
	URL     string
	Request Request
}

// StoredArtifact は同一バイト列のローカルパスと恒久 URI の組。
type StoredArtifact struct {
	FileName  string
	LocalPath string
	ImageURI  string
}

// SellerFeeBasisPoints : 固定ロイヤリティ 5.00% (= percentAmount(5, 2))
const SellerFeeBasisPoints uint16 = 500

// ------------------------------------------------------
// Metadata: ミント時に公開する metadata.json の形
// ------------------------------------------------------

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type MetadataFile struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

type MetadataProperties struct {
	Files []MetadataFile `json:"files"`
}

type Creator struct {
	Address string `json:"address"`
	Share   int    `json:"share"`
}

type Metadata struct {
	Name        string             `json:"name"`
	Symbol      string             `json:"symbol"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
	Attributes  []Attribute        `json:"attributes"`
	Properties  MetadataProperties `json:"properties"`
	Creators    []Creator          `json:"creators"`
}

// BuildMetadata は 1 リクエスト分の metadata ドキュメントを組み立てる純関数。
// attributes は trait_type ごとに独立した 3 要素のリストにする
// （受取アドレス / プロンプト / モデル）。
func BuildMetadata(req Request, imageName, imageURI string) Metadata {
	return Metadata{
		Name:        imageName,
		Symbol:      req.Model,
		Description: fmt.Sprintf("prompt: %s model: %s", req.Prompt, req.Model),
		Image:       imageURI,
		Attributes: []Attribute{
			{TraitType: "Public Key", Value: req.Recipient},
			{TraitType: "Prompt", Value: req.Prompt},
			{TraitType: "Model", Value: req.Model},
		},
		Properties: MetadataProperties{
			Files: []MetadataFile{
				{Type: "image/png", URI: imageURI},
			},
		},
		Creators: []Creator{},
	}
}

// ------------------------------------------------------
// MintResult: 1 パイプラインの終端成果物
// ------------------------------------------------------
//
// ログに残すだけで永続化はしない（過去ミントの DB は持たない設計）。
// TxSignature が入っている時点で、トークンアカウント作成とミント tx の
// 承認は完了している。
type MintResult struct {
	ImageURI    string
	MetadataURI string
	MintAddress string
	TxSignature string
}
