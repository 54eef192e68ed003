package model

// OperationError records a rejected scenario line.
type OperationError struct {
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	Owner     string `json:"owner,omitempty"`
	ErrorKind string `json:"error_kind"`
	Error     string `json:"error"`
}
