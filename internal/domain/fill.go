package domain

// FillStatus es el estado de una orden enviada al exchange.
type FillStatus string

const (
	FillPending   FillStatus = "PENDING"
	FillFilled    FillStatus = "FILLED"
	FillCancelled FillStatus = "CANCELLED"
	FillRejected  FillStatus = "REJECTED"
)
