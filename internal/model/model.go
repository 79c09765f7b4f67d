package model

import "fmt"

// HandlerKey identifies a handler registered in a context.
type HandlerKey string

const (
	HandlerLog     HandlerKey = "composable_go_handler_key_log"
	HandlerBinding HandlerKey = "composable_go_handler_key_binding"
	HandlerIDGen   HandlerKey = "composable_go_handler_key_idgen"
)

var ErrNoHandler = fmt.Errorf("no handler registered for this key")

type ScopeConfig struct {
	BufferSize int // default: 1
	NumWorkers int // default: 1
}

func NewScopeConfig(bufferSize int, numWorkers int) ScopeConfig {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return ScopeConfig{
		BufferSize: bufferSize,
		NumWorkers: numWorkers,
	}
}

type Partitionable interface {
	PartitionKey() string
}
