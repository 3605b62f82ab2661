package memory

import "sort"

// Interval is a half-open [Start, End) range of physical offsets.
type Interval struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// Len returns the interval length in bytes.
func (iv Interval) Len() uint32 { return iv.End - iv.Start }

// intervalSet is an ordered set of disjoint, non-adjacent intervals.
type intervalSet struct {
	ivs []Interval
}

// add inserts an interval, merging it with any neighbors it touches.
// Overlap with an existing member means the same bytes were freed twice.
func (s *intervalSet) add(iv Interval) {
	if iv.Len() == 0 {
		return
	}
	i := sort.Search(len(s.ivs), func(i int) bool { return s.ivs[i].End >= iv.Start })
	j := i
	for j < len(s.ivs) && s.ivs[j].Start <= iv.End {
		if s.ivs[j].Start < iv.End && s.ivs[j].End > iv.Start {
			panic("memory: interval freed twice")
		}
		if s.ivs[j].Start < iv.Start {
			iv.Start = s.ivs[j].Start
		}
		if s.ivs[j].End > iv.End {
			iv.End = s.ivs[j].End
		}
		j++
	}
	s.ivs = append(s.ivs[:i], append([]Interval{iv}, s.ivs[j:]...)...)
}

// remove carves an interval out of the set. The interval must be fully
// contained in one member.
func (s *intervalSet) remove(iv Interval) {
	for i, have := range s.ivs {
		if have.Start <= iv.Start && iv.End <= have.End {
			var repl []Interval
			if have.Start < iv.Start {
				repl = append(repl, Interval{have.Start, iv.Start})
			}
			if iv.End < have.End {
				repl = append(repl, Interval{iv.End, have.End})
			}
			s.ivs = append(s.ivs[:i], append(repl, s.ivs[i+1:]...)...)
			return
		}
	}
	panic("memory: interval not free")
}
