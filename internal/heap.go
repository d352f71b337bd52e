package internal

// rankHeap is the normal-phase queue of a transaction. Nodes are bucketed by
// rank; each bucket is a circular list so that nodes of equal rank come out in
// the order they were scheduled.
type rankHeap struct {
	min Rank
	max Rank

	size    int
	buckets []*heapEntry // [rank]head

	lookup map[*Node]*heapEntry // for O(1) removal
}

type heapEntry struct {
	node *Node

	next *heapEntry
	prev *heapEntry // head.prev is the tail
}

func newRankHeap() *rankHeap {
	return &rankHeap{
		buckets: make([]*heapEntry, 64),
		lookup:  make(map[*Node]*heapEntry),
	}
}

func (h *rankHeap) Len() int {
	return h.size
}

func (h *rankHeap) Contains(node *Node) bool {
	_, ok := h.lookup[node]
	return ok
}

// Insert appends node to the bucket of its current rank. A node that is
// already queued keeps its position.
func (h *rankHeap) Insert(node *Node) {
	if _, ok := h.lookup[node]; ok {
		return
	}

	entry := &heapEntry{node: node}
	h.lookup[node] = entry

	rank := node.rank
	for int(rank) >= len(h.buckets) {
		h.buckets = append(h.buckets, make([]*heapEntry, len(h.buckets))...)
	}

	if h.buckets[rank] == nil {
		h.buckets[rank] = entry
		entry.prev = entry // loop to self
		entry.next = nil
	} else {
		head := h.buckets[rank]
		tail := head.prev

		tail.next = entry
		entry.prev = tail
		entry.next = nil
		head.prev = entry
	}

	switch {
	case h.size == 0:
		h.min, h.max = rank, rank
	case rank < h.min:
		h.min = rank
	case rank > h.max:
		h.max = rank
	}
	h.size++
}

// Remove takes node out of the heap. It must be called before the node's rank
// changes, since the bucket is located through the rank.
func (h *rankHeap) Remove(node *Node) {
	entry, ok := h.lookup[node]
	if !ok {
		return
	}
	delete(h.lookup, node)
	h.size--

	rank := node.rank

	// single node
	if entry.prev == entry {
		h.buckets[rank] = nil
		entry.prev = entry
		entry.next = nil
		return
	}

	// multiple nodes
	head := h.buckets[rank]
	if entry == head {
		h.buckets[rank] = entry.next
	} else {
		entry.prev.next = entry.next
	}

	next := entry.next
	if next == nil {
		next = h.buckets[rank]
	}
	next.prev = entry.prev

	entry.prev = entry
	entry.next = nil
}

// Pop removes and returns the first node of the lowest non-empty rank, or nil
// when the heap is empty.
func (h *rankHeap) Pop() *Node {
	if h.size == 0 {
		h.min, h.max = 0, 0
		return nil
	}

	for ; h.min <= h.max; h.min++ {
		if entry := h.buckets[h.min]; entry != nil {
			h.Remove(entry.node)
			return entry.node
		}
	}

	// size and buckets disagree
	panic(&InvariantError{Message: "rank heap is non-empty but has no queued bucket"})
}

// Drain processes each queued node in rank order, leaving the heap empty.
// process may insert more nodes, including at ranks lower than the one being
// drained.
func (h *rankHeap) Drain(process func(*Node)) {
	for node := h.Pop(); node != nil; node = h.Pop() {
		process(node)
	}
}
