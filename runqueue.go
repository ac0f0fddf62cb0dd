package async

import "sort"

type lesser[E any] interface {
	less(v E) bool
}

// runqueue is an ordered queue with binary-search insertion.
// Elements for which less is false in both directions keep their arrival
// order, provided less breaks ties on a monotonic sequence number.
type runqueue[E lesser[E]] struct {
	items []E
}

func (q *runqueue[E]) Empty() bool {
	return len(q.items) == 0
}

func (q *runqueue[E]) Push(v E) {
	i := sort.Search(len(q.items), func(i int) bool {
		return v.less(q.items[i])
	})

	var zero E
	q.items = append(q.items, zero)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = v
}

func (q *runqueue[E]) Pop() E {
	var zero E
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v
}
