package entity

import "time"

// Store is a retail location that can be the source or destination of a
// transfer. Reference data owned by the ERP master data; cached locally so
// documents can resolve warehouse and cost-center codes without a round trip.
type Store struct {
	ID             string
	Name           string
	Email          string
	ICGWarehouse   string // warehouse name in the ICG inventory system
	ICGCode        string // warehouse code, unique
	BYDCostCenter  string // SAP ByD cost-center code, unique
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
