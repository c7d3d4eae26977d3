package verityrpcv1

type GenerateRequest struct {
	DataPath string `json:"data_path"`
	// Seal 为 true 时同时写入对象存储并钉住
	Seal bool `json:"seal"`
}

type GenerateResponse struct {
	Root       string `json:"root"`
	BlockCount int    `json:"block_count"`
	BlockSize  int    `json:"block_size"`
	DataSize   int64  `json:"data_size"`
	Manifest   string `json:"manifest"`
	SealID     string `json:"seal_id,omitempty"`
}

type VerifyBlockRequest struct {
	DataPath string `json:"data_path"`
	Index    int    `json:"index"`
	// TrustedRoot 非空时先认证清单
	TrustedRoot string `json:"trusted_root,omitempty"`
}

type VerifyBlockResponse struct {
	OK bool `json:"ok"`
}

type VerifyAllRequest struct {
	DataPath    string `json:"data_path"`
	TrustedRoot string `json:"trusted_root,omitempty"`
}

type VerifyAllResponse struct {
	OK bool `json:"ok"`
}

type AuditRequest struct {
	DataPath    string `json:"data_path"`
	TrustedRoot string `json:"trusted_root,omitempty"`
}

type AuditResponse struct {
	OK             bool  `json:"ok"`
	FileBlocks     int   `json:"file_blocks"`
	ManifestBlocks int   `json:"manifest_blocks"`
	Checked        int   `json:"checked"`
	FailedBlocks   []int `json:"failed_blocks"`
}

type ProveRequest struct {
	DataPath string `json:"data_path"`
	Index    int    `json:"index"`
}

type ProveResponse struct {
	Leaf      string   `json:"leaf"`
	Root      string   `json:"root"`
	Index     int      `json:"index"`
	LeafCount int      `json:"leaf_count"`
	Siblings  []string `json:"siblings"`
}
