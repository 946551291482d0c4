package models

// RemoteResult is the outcome of a single-item remote fetch. It is either a
// Success or a Failure of the same payload type.
type RemoteResult[T any] interface {
	isRemoteResult(T)
}

// Success carries the fetched payload
type Success[T any] struct {
	Data T
}

// Failure carries a human-readable reason
type Failure[T any] struct {
	Message string
}

func (Success[T]) isRemoteResult(T) {}
func (Failure[T]) isRemoteResult(T) {}
