package store

// Slice names one replaceable value held by the store.
type Slice string

// Payload is a sealed interface for store operations.
type Payload interface {
	PartitionKey() string
	payload()
}

var (
	_ Payload = selectOp{}
	_ Payload = putOp{}
	_ Payload = source{}
)

// selectOp reads the current value of a slice.
type selectOp struct {
	Slice Slice
}

func (p selectOp) PartitionKey() string { return string(p.Slice) }
func (p selectOp) payload()             {}

// putOp replaces the value of a slice.
type putOp struct {
	Slice Slice
	Value any
}

func (p putOp) PartitionKey() string { return string(p.Slice) }
func (p putOp) payload()             {}

// source asks for the change-event channel.
type source struct{}

func (source) PartitionKey() string { return "" }
func (source) payload()             {}
