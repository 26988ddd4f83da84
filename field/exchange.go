package field

// Exchange is a handle on an in-flight halo exchange. The fill runs in the
// background so interior work can overlap communication; readers of halo
// regions must Wait first.
type Exchange struct {
	done chan struct{}
}

// StartHaloExchange begins filling the halos of the given fields and returns
// immediately. The fields must not be written until Wait returns.
func StartHaloExchange(fields ...*Field) *Exchange {
	e := &Exchange{done: make(chan struct{})}
	go func() {
		defer close(e.done)
		for _, f := range fields {
			f.FillHalos()
		}
	}()
	return e
}

// Wait blocks until the exchange completes. Waiting more than once is
// allowed.
func (e *Exchange) Wait() {
	if e == nil {
		return
	}
	<-e.done
}
