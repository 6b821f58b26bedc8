package model

import "time"

// 在庫調整、在庫レコード作成など。
type AuditAction string

const (
	//在庫を調整した操作。
	AuditActionAdjustStock AuditAction = "ADJUST_STOCK"
	//在庫レコードを作成した操作。
	AuditActionCreateInventory AuditAction = "CREATE_INVENTORY"
)

// 何に対する操作か
type AuditResourceType string

const (
	//在庫レコードに対する操作。
	AuditResourceInventory AuditResourceType = "inventory"

	//商品に対する操作。
	AuditResourceProduct AuditResourceType = "product"

	//拠点に対する操作。
	AuditResourceLocation AuditResourceType = "location"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	//IDは監査ログの主キー
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザー（主に管理者）のID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	//Actionは操作の種類（ADJUST_STOCK / CREATE_INVENTORY など）。
	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象の種類（inventory / product / location）。
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID）。
	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`

	//JSON文字列で保存する。
	AfterJSON string `gorm:"type:text" json:"after_json"`

	//作成時刻
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
