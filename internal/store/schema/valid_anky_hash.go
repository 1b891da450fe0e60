package schema

// ValidAnkyHash represents the valid_anky_hashes table - the set of content hashes attested as Ankys per writer
type ValidAnkyHash struct {
	FID      int64  `gorm:"column:fid;primaryKey;autoIncrement:false"`
	IpfsHash string `gorm:"column:ipfs_hash;primaryKey;type:text"`
	// CreatedAt is the unix time the contract reported the Anky as written
	CreatedAt int64 `gorm:"column:created_at;not null"`
}

// TableName specifies the table name for the ValidAnkyHash model
func (ValidAnkyHash) TableName() string {
	return "valid_anky_hashes"
}
