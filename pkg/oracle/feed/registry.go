package feed

type subscriber struct {
	id string
	cb Callback
}

// registry keeps callbacks keyed by id in registration order. It is not
// safe for concurrent use; Feed guards it with its mutex.
type registry struct {
	byID  map[string]Callback
	order []string
}

func newRegistry() *registry {
	return &registry{byID: make(map[string]Callback)}
}

func (r *registry) put(id string, cb Callback) {
	if _, ok := r.byID[id]; !ok {
		r.order = append(r.order, id)
	}
	r.byID[id] = cb
}

func (r *registry) remove(id string) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *registry) clear() {
	r.byID = make(map[string]Callback)
	r.order = nil
}

func (r *registry) ids() []string {
	return append([]string(nil), r.order...)
}

func (r *registry) snapshot() []subscriber {
	out := make([]subscriber, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, subscriber{id: id, cb: r.byID[id]})
	}
	return out
}
