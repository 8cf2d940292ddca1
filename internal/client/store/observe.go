package store

import "sync"

type observer struct {
	id int
	fn func()
}

// observers is a list of change callbacks invoked in subscription order.
type observers struct {
	mu   sync.Mutex
	next int
	list []observer
}

func (o *observers) subscribe(fn func()) (cancel func()) {
	o.mu.Lock()
	o.next++
	id := o.next
	o.list = append(o.list, observer{id: id, fn: fn})
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i, ob := range o.list {
				if ob.id == id {
					o.list = append(o.list[:i:i], o.list[i+1:]...)
					return
				}
			}
		})
	}
}

func (o *observers) notify() {
	o.mu.Lock()
	list := make([]observer, len(o.list))
	copy(list, o.list)
	o.mu.Unlock()

	for _, ob := range list {
		ob.fn()
	}
}
