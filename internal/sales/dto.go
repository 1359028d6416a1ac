package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailstock-backend/pkg/db/models"
	"github.com/angelmondragon/retailstock-backend/pkg/enums"
)

// ItemInput is one unit on a point-of-sale transaction. A nil price falls back to the
// product's base price.
type ItemInput struct {
	UnitID uuid.UUID
	Price  *decimal.Decimal
}

// CreateTransactionInput is a direct point-of-sale sale.
type CreateTransactionInput struct {
	EmployeeID   uuid.UUID
	CustomerID   *uuid.UUID
	OrderID      *uuid.UUID
	DocumentType enums.DocumentType
	Items        []ItemInput
}

type ReturnItemInput struct {
	UnitID    uuid.UUID
	Condition string
}

type CreateReturnInput struct {
	TransactionID uuid.UUID
	Reason        string
	Items         []ReturnItemInput
}

type TransactionItemDTO struct {
	ID     uuid.UUID       `json:"id"`
	UnitID uuid.UUID       `json:"unit_id"`
	Price  decimal.Decimal `json:"price"`
}

type TransactionDTO struct {
	ID           uuid.UUID            `json:"id"`
	StoreID      uuid.UUID            `json:"store_id"`
	CustomerID   *uuid.UUID           `json:"customer_id,omitempty"`
	EmployeeID   *uuid.UUID           `json:"employee_id,omitempty"`
	OrderID      *uuid.UUID           `json:"order_id,omitempty"`
	DocumentType enums.DocumentType   `json:"document_type"`
	TotalAmount  decimal.Decimal      `json:"total_amount"`
	CreatedAt    time.Time            `json:"created_at"`
	Items        []TransactionItemDTO `json:"items"`
}

type ReturnItemDTO struct {
	ID        uuid.UUID `json:"id"`
	UnitID    uuid.UUID `json:"unit_id"`
	Condition string    `json:"condition"`
}

type ReturnDTO struct {
	ID            uuid.UUID          `json:"id"`
	TransactionID uuid.UUID          `json:"transaction_id"`
	Reason        string             `json:"reason"`
	Status        enums.ReturnStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	ResolvedAt    *time.Time         `json:"resolved_at,omitempty"`
	Items         []ReturnItemDTO    `json:"items"`
}

func transactionFromModel(txn models.Transaction) TransactionDTO {
	out := TransactionDTO{
		ID:           txn.ID,
		StoreID:      txn.StoreID,
		CustomerID:   txn.CustomerID,
		EmployeeID:   txn.EmployeeID,
		OrderID:      txn.OrderID,
		DocumentType: txn.DocumentType,
		TotalAmount:  txn.TotalAmount,
		CreatedAt:    txn.CreatedAt,
		Items:        make([]TransactionItemDTO, 0, len(txn.Items)),
	}
	for _, item := range txn.Items {
		out.Items = append(out.Items, TransactionItemDTO{ID: item.ID, UnitID: item.UnitID, Price: item.Price})
	}
	return out
}

func returnFromModel(ret models.Return) ReturnDTO {
	out := ReturnDTO{
		ID:            ret.ID,
		TransactionID: ret.TransactionID,
		Reason:        ret.Reason,
		Status:        ret.Status,
		CreatedAt:     ret.CreatedAt,
		ResolvedAt:    ret.ResolvedAt,
		Items:         make([]ReturnItemDTO, 0, len(ret.Items)),
	}
	for _, item := range ret.Items {
		out.Items = append(out.Items, ReturnItemDTO{ID: item.ID, UnitID: item.UnitID, Condition: item.Condition})
	}
	return out
}
