package session

// Observer receives every finished exchange. The context it is handed is a
// copy; changing it has no effect on what the transport sends.
type Observer interface {
	Observe(c *Context)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(c *Context)

// Observe implements Observer.
func (f ObserverFunc) Observe(c *Context) { f(c) }

// Observers fans an exchange out to several observers in order.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(c *Context) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(c)
		}
	}
}
