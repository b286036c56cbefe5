package enums

const (
	StatusPending  = "Pending"
	StatusAccepted = "Accepted"
	StatusRejected = "Rejected"
)
