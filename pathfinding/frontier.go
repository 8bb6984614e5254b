package pathfinding

import "container/heap"

// frontierItem is a node waiting in the open list.
type frontierItem struct {
	node  NodeID
	key   float64
	seq   uint64 // insertion order, breaks key ties
	index int    // position in the heap, -1 once popped
}

// priorityQueue implements heap.Interface ordered by ascending key.
type priorityQueue []*frontierItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].key != pq[j].key {
		return pq[i].key < pq[j].key
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*frontierItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// frontier is the open list: a priority queue plus a membership index.
type frontier struct {
	pq      priorityQueue
	members map[NodeID]*frontierItem
	nextSeq uint64
}

func newFrontier() *frontier {
	f := &frontier{members: make(map[NodeID]*frontierItem)}
	heap.Init(&f.pq)
	return f
}

func (f *frontier) Len() int { return f.pq.Len() }

func (f *frontier) Contains(id NodeID) bool {
	_, ok := f.members[id]
	return ok
}

// Peek returns the best node without removing it.
func (f *frontier) Peek() NodeID {
	return f.pq[0].node
}

// Push inserts id, or re-keys it in place if it is already open.
func (f *frontier) Push(id NodeID, key float64) {
	if item, ok := f.members[id]; ok {
		item.key = key
		heap.Fix(&f.pq, item.index)
		return
	}
	item := &frontierItem{node: id, key: key, seq: f.nextSeq}
	f.nextSeq++
	heap.Push(&f.pq, item)
	f.members[id] = item
}

// Pop removes and returns the best node.
func (f *frontier) Pop() NodeID {
	item := heap.Pop(&f.pq).(*frontierItem)
	delete(f.members, item.node)
	return item.node
}

// Snapshot lists the open nodes in priority order.
func (f *frontier) Snapshot() []NodeID {
	clone := make(priorityQueue, len(f.pq))
	for i, item := range f.pq {
		c := *item
		clone[i] = &c
	}
	out := make([]NodeID, 0, len(clone))
	for clone.Len() > 0 {
		out = append(out, heap.Pop(&clone).(*frontierItem).node)
	}
	return out
}
