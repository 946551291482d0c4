package paging

// Status of the loads at one edge of the data
type Status int

const (
	NotLoading Status = iota
	Loading
	Failed
)

func (s Status) String() string {
	switch s {
	case NotLoading:
		return "not_loading"
	case Loading:
		return "loading"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// LoadState describes one edge. EndOfPaginationReached is only meaningful
// while NotLoading, Err only while Failed.
type LoadState struct {
	Status                 Status
	EndOfPaginationReached bool
	Err                    error
}

// LoadStates groups the three edges a UI cares about
type LoadStates struct {
	Refresh LoadState
	Prepend LoadState
	Append  LoadState
}

// HasError reports whether any edge failed and can be retried
func (s LoadStates) HasError() bool {
	return s.Refresh.Status == Failed || s.Prepend.Status == Failed || s.Append.Status == Failed
}

// IsLoading reports whether any edge is loading
func (s LoadStates) IsLoading() bool {
	return s.Refresh.Status == Loading || s.Prepend.Status == Loading || s.Append.Status == Loading
}
