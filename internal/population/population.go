// Package population provides the ordered agent container used by the
// generation pipeline. It is a singly linked list with a tail pointer so that
// appends are O(1) and culling is a single walk followed by an O(1) sever.
package population

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"annlab/internal/agent"
)

type node struct {
	value *agent.Agent
	next  *node
}

// Population is not safe for concurrent use.
type Population struct {
	head *node
	tail *node
	size int

	buf []*agent.Agent
}

func New(agents ...*agent.Agent) *Population {
	p := &Population{}
	for _, a := range agents {
		p.Append(a)
	}
	return p
}

func (p *Population) Len() int {
	return p.size
}

func (p *Population) Append(a *agent.Agent) {
	n := &node{value: a}
	if p.tail == nil {
		p.head = n
	} else {
		p.tail.next = n
	}
	p.tail = n
	p.size++
}

// AppendAll appends every agent yielded by seq.
func (p *Population) AppendAll(seq iter.Seq[*agent.Agent]) {
	for a := range seq {
		p.Append(a)
	}
}

// AppendFrom appends the agents of other in order. other is left unchanged, so
// afterwards both populations reference the same agents.
func (p *Population) AppendFrom(other *Population) {
	if other == p {
		p.AppendAll(slices.Values(p.Slice()))
		return
	}
	p.AppendAll(other.Values())
}

func (p *Population) checkIndex(i, limit int) {
	if i < 0 || i >= limit {
		panic(fmt.Sprintf("population: index %d out of range [0,%d)", i, limit))
	}
}

func (p *Population) nodeAt(i int) *node {
	p.checkIndex(i, p.size)
	n := p.head
	for ; i > 0; i-- {
		n = n.next
	}
	return n
}

func (p *Population) Get(i int) *agent.Agent {
	return p.nodeAt(i).value
}

// Set replaces the agent at i and returns the previous one.
func (p *Population) Set(i int, a *agent.Agent) *agent.Agent {
	n := p.nodeAt(i)
	old := n.value
	n.value = a
	return old
}

// Insert places a at index i, shifting later agents back. i may equal Len.
func (p *Population) Insert(i int, a *agent.Agent) {
	p.checkIndex(i, p.size+1)
	if i == p.size {
		p.Append(a)
		return
	}
	if i == 0 {
		p.head = &node{value: a, next: p.head}
		p.size++
		return
	}
	prev := p.nodeAt(i - 1)
	prev.next = &node{value: a, next: prev.next}
	p.size++
}

func (p *Population) RemoveAt(i int) *agent.Agent {
	p.checkIndex(i, p.size)
	if i == 0 {
		n := p.head
		p.head = n.next
		if p.head == nil {
			p.tail = nil
		}
		p.size--
		return n.value
	}
	prev := p.nodeAt(i - 1)
	n := prev.next
	prev.next = n.next
	if n == p.tail {
		p.tail = prev
	}
	p.size--
	return n.value
}

// Pop removes and returns the last agent, or nil when empty.
func (p *Population) Pop() *agent.Agent {
	if p.size == 0 {
		return nil
	}
	return p.RemoveAt(p.size - 1)
}

// RemoveValue removes the first occurrence of a.
func (p *Population) RemoveValue(a *agent.Agent) (*agent.Agent, bool) {
	i := p.IndexOf(a)
	if i < 0 {
		return nil, false
	}
	return p.RemoveAt(i), true
}

// IndexOf returns the index of the first occurrence of a, or -1.
func (p *Population) IndexOf(a *agent.Agent) int {
	i := 0
	for n := p.head; n != nil; n = n.next {
		if n.value == a {
			return i
		}
		i++
	}
	return -1
}

func (p *Population) Contains(a *agent.Agent) bool {
	return p.IndexOf(a) >= 0
}

// TruncateTo keeps the first k agents and drops the rest. k >= Len is a no-op.
func (p *Population) TruncateTo(k int) {
	if k < 0 {
		panic(fmt.Sprintf("population: negative truncate length %d", k))
	}
	if k >= p.size {
		return
	}
	if k == 0 {
		p.head = nil
		p.tail = nil
		p.size = 0
		return
	}
	n := p.nodeAt(k - 1)
	n.next = nil
	p.tail = n
	p.size = k
}

// Sort orders the population with a stable sort. Agents move between nodes;
// the nodes themselves are reused.
func (p *Population) Sort(cmp func(a, b *agent.Agent) int) {
	p.buf = p.buf[:0]
	for n := p.head; n != nil; n = n.next {
		p.buf = append(p.buf, n.value)
	}
	slices.SortStableFunc(p.buf, cmp)
	i := 0
	for n := p.head; n != nil; n = n.next {
		n.value = p.buf[i]
		p.buf[i] = nil
		i++
	}
}

func (p *Population) All() iter.Seq2[int, *agent.Agent] {
	return func(yield func(int, *agent.Agent) bool) {
		i := 0
		for n := p.head; n != nil; n = n.next {
			if !yield(i, n.value) {
				return
			}
			i++
		}
	}
}

func (p *Population) Values() iter.Seq[*agent.Agent] {
	return func(yield func(*agent.Agent) bool) {
		for n := p.head; n != nil; n = n.next {
			if !yield(n.value) {
				return
			}
		}
	}
}

// Slice copies the agents into a new slice.
func (p *Population) Slice() []*agent.Agent {
	out := make([]*agent.Agent, 0, p.size)
	for n := p.head; n != nil; n = n.next {
		out = append(out, n.value)
	}
	return out
}

func (p *Population) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for n := p.head; n != nil; n = n.next {
		if n != p.head {
			b.WriteString(", ")
		}
		if n.value == nil {
			b.WriteString("<nil>")
			continue
		}
		b.WriteString(n.value.ID)
	}
	b.WriteByte(']')
	return b.String()
}

func (p *Population) checkInvariants() error {
	if (p.head == nil) != (p.tail == nil) {
		return fmt.Errorf("head/tail mismatch: head=%v tail=%v", p.head != nil, p.tail != nil)
	}
	count := 0
	var last *node
	for n := p.head; n != nil; n = n.next {
		count++
		last = n
		if count > p.size {
			return fmt.Errorf("reachable nodes exceed size %d", p.size)
		}
	}
	if count != p.size {
		return fmt.Errorf("size=%d reachable=%d", p.size, count)
	}
	if last != p.tail {
		return fmt.Errorf("tail is not the last reachable node")
	}
	if p.tail != nil && p.tail.next != nil {
		return fmt.Errorf("tail has a successor")
	}
	return nil
}
