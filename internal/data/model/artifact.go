package model

// Artifact 制品元数据表，内容本体在对象存储
type Artifact struct {
	BaseModel
	Name        string `gorm:"column:name;size:128;not null;index"`
	Kind        string `gorm:"column:kind;size:32;not null"`
	ContentKey  string `gorm:"column:content_key;size:256;not null"`
	ContentType string `gorm:"column:content_type;size:64"`
	Size        int64  `gorm:"column:size"`
	// Score 启发式综合分，内容每次写入时重算
	Score   float64 `gorm:"column:score"`
	OwnerID int64   `gorm:"column:owner_id;not null;index"`
}

func (Artifact) TableName() string { return "artifacts" }
