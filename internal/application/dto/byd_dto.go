package dto

import "github.com/shopspring/decimal"

// ByDSalesOrder is the subset of a SAP ByD sales order payload consumed by
// the import use case. Field names mirror the OData response.
type ByDSalesOrder struct {
	ObjectID           string          `json:"ObjectID"`
	ID                 int64           `json:"ID,string"`
	TotalNetAmount     decimal.Decimal `json:"TotalNetAmount"`
	CreationDateTime   string          `json:"CreationDateTime,omitempty"`
	LastChangeDateTime string          `json:"LastChangeDateTime,omitempty"`
	SellerParty        *ByDParty       `json:"SellerParty,omitempty"`
	BuyerParty         *ByDParty       `json:"BuyerParty,omitempty"`
	Items              []ByDOrderItem  `json:"Item,omitempty"`
}

// ByDParty identifies a ByD business party (a store, in this integration).
type ByDParty struct {
	PartyID string `json:"PartyID"`
}

// ByDOrderItem is one sales order line in the ByD payload.
type ByDOrderItem struct {
	ObjectID             string          `json:"ObjectID"`
	ProductID            string          `json:"ProductID"`
	Description          string          `json:"Description"`
	Quantity             decimal.Decimal `json:"Quantity"`
	ListUnitPriceAmount  decimal.Decimal `json:"ListUnitPriceAmount"`
	QuantityUnitCodeText string          `json:"QuantityUnitCodeText,omitempty"`
}
