package cell

// With runs fn with shared access to the value of c.
// The borrow is released when fn returns or panics.
func With[T any](c *Cell[T], fn func(T) error) error {
	g, err := c.Borrow()
	if err != nil {
		return err
	}
	defer g.Release()
	return fn(g.Get())
}

// WithMut runs fn with exclusive access to the value of c.
//
// Returning from fn, with or without an error, releases the borrow. If fn
// panics or calls runtime.Goexit the cell is poisoned before the unwinding
// continues: the value may be half-updated and no later borrow will see it.
func WithMut[T any](c *Cell[T], fn func(*T) error) error {
	g, err := c.BorrowMut()
	if err != nil {
		return err
	}
	completed := false
	defer func() {
		if completed {
			g.Release()
		} else {
			g.Abort()
		}
	}()
	err = fn(g.Ptr())
	completed = true
	return err
}
