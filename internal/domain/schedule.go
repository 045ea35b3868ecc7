package domain

import "fmt"

// Schedule is an ordered sequence of deliveries.
//
// Records live in an arena and order holds their visiting sequence, so
// "previous" and "next" are plain index arithmetic on order. The order is
// fixed at construction; only fields of the records change afterwards.
type Schedule struct {
	arena []Delivery
	order []int
}

func NewSchedule(deliveries []Delivery) *Schedule {
	s := &Schedule{
		arena: make([]Delivery, len(deliveries)),
		order: make([]int, len(deliveries)),
	}
	copy(s.arena, deliveries)
	for i := range s.order {
		s.order[i] = i
	}
	return s
}

// At returns the delivery at position i in visiting order.
func (s *Schedule) At(i int) *Delivery {
	return &s.arena[s.order[i]]
}

// IndexOf returns the position of the first delivery with the given id, or -1.
func (s *Schedule) IndexOf(id string) int {
	for pos, idx := range s.order {
		if s.arena[idx].ID == id {
			return pos
		}
	}
	return -1
}

// Previous returns the delivery visited before position i, if any.
func (s *Schedule) Previous(i int) (*Delivery, bool) {
	if i-1 < 0 || i-1 >= len(s.order) {
		return nil, false
	}
	return s.At(i - 1), true
}

// Next returns the delivery visited after position i, if any.
func (s *Schedule) Next(i int) (*Delivery, bool) {
	if i+1 < 0 || i+1 >= len(s.order) {
		return nil, false
	}
	return s.At(i + 1), true
}

// Deliveries returns a copy of the records in visiting order.
func (s *Schedule) Deliveries() []Delivery {
	out := make([]Delivery, 0, len(s.order))
	for _, idx := range s.order {
		d := s.arena[idx]
		if d.DeliveredAt != nil {
			t := *d.DeliveredAt
			d.DeliveredAt = &t
		}
		out = append(out, d)
	}
	return out
}

// DuplicateIDs lists ids that appear more than once, in first-seen order.
func (s *Schedule) DuplicateIDs() []string {
	seen := make(map[string]int, len(s.order))
	var dups []string
	for _, idx := range s.order {
		id := s.arena[idx].ID
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}

func (s *Schedule) String() string {
	return fmt.Sprintf("Schedule(len=%d)", len(s.order))
}
