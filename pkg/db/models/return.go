package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// Return is a customer claim against a transaction.
type Return struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID uuid.UUID          `gorm:"column:transaction_id;type:uuid;not null"`
	Reason        string             `gorm:"column:reason;not null"`
	Status        enums.ReturnStatus `gorm:"column:status;type:text;not null"`
	Items         []ReturnItem       `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	ResolvedAt    *time.Time         `gorm:"column:resolved_at"`
}

type ReturnItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReturnID  uuid.UUID `gorm:"column:return_id;type:uuid;not null"`
	UnitID    uuid.UUID `gorm:"column:unit_id;type:uuid;not null"`
	Condition string    `gorm:"column:condition;not null"`
}
