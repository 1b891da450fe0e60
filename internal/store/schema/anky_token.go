package schema

// AnkyToken represents the anky_tokens table - an NFT minted from an Anky session
type AnkyToken struct {
	// ID is the on-chain token id (uint256 as decimal text)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Owner is the address that sent the minting transaction
	Owner            string `gorm:"column:owner;not null;type:text"`
	WritingIpfsHash  string `gorm:"column:writing_ipfs_hash;not null;type:text"`
	MetadataIpfsHash string `gorm:"column:metadata_ipfs_hash;not null;type:text"`
	// SessionID is the session the token was minted from, at most one token per session
	SessionID string `gorm:"column:session_id;not null;uniqueIndex;type:text"`
	// MintedAt is the unix block timestamp of the mint
	MintedAt int64 `gorm:"column:minted_at;not null"`
	FID      int64 `gorm:"column:fid;not null;index:idx_anky_tokens_fid"`
}

// TableName specifies the table name for the AnkyToken model
func (AnkyToken) TableName() string {
	return "anky_tokens"
}
