package domain

// ScanImage 撮影された画像（呼び出し元が所有し、前処理で一度だけ消費される）
type ScanImage struct {
	Data     []byte
	MimeType string
}

// PreprocessedImage 正規化済み画像（長辺の上限と再圧縮品質が固定）
type PreprocessedImage struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// ToScanImage 次段の前処理の入力として使えるように変換する
func (p *PreprocessedImage) ToScanImage() ScanImage {
	return ScanImage{Data: p.Data, MimeType: p.MimeType}
}

// OcrResult OCR結果
type OcrResult struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// HasText 認識テキストがあるか
func (r *OcrResult) HasText() bool {
	return r != nil && r.Text != ""
}
