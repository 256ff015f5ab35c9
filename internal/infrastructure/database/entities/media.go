package entities

import "time"

// Media is the persisted ledger row for one logical media item.
type Media struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	PublicID         string `gorm:"type:varchar(40);uniqueIndex;not null"`
	Filename         string `gorm:"type:varchar(255);not null"`
	OriginalFilename string `gorm:"type:varchar(255);index:idx_media_owner_filename,priority:3"`

	MediaType   string `gorm:"type:varchar(16);not null"`
	ContentType string `gorm:"type:varchar(64);not null"`
	StorageType string `gorm:"type:varchar(16);not null"`

	FileSize  int64
	Width     int
	Height    int
	Duration  float64
	ImageHash string `gorm:"type:char(16);index"`

	StoragePath       string `gorm:"type:varchar(512);not null"`
	OriginalURL       string `gorm:"type:varchar(1024);not null"`
	ThumbnailURL      string `gorm:"type:varchar(1024)"`
	MediumURL         string `gorm:"type:varchar(1024)"`
	LargeURL          string `gorm:"type:varchar(1024)"`
	VideoProcessedURL string `gorm:"type:varchar(1024)"`

	EntityType  string `gorm:"type:varchar(32);not null;index:idx_media_owner_filename,priority:1"`
	EntityID    int64  `gorm:"not null;index:idx_media_owner_filename,priority:2"`
	EntityField string `gorm:"type:varchar(64)"`

	UploadedBy       string `gorm:"type:varchar(64)"`
	IsPublic         bool   `gorm:"default:true"`
	IsApproved       bool   `gorm:"default:false;index:idx_media_retention,priority:1"`
	ModerationStatus string `gorm:"type:varchar(16);default:'pending'"`

	AltText   string `gorm:"type:varchar(512)"`
	Caption   string `gorm:"type:text"`
	SortOrder int
	IsPrimary bool
	SourceURL string `gorm:"type:varchar(1024)"`
	Tags      string `gorm:"type:text"` // JSON array
	Metadata  string `gorm:"type:text"` // JSON blob, see domain media.Meta

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_media_retention,priority:2"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Media) TableName() string {
	return "media"
}
