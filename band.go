package validity

type SegmentKind int

const (
	Used SegmentKind = iota
	Free
)

func (k SegmentKind) String() string {
	if k == Free {
		return "free"
	}
	return "used"
}

// Segment is a part of the timeline, either covered by records or free.
type Segment struct {
	Kind SegmentKind
	Period
}

// Band splits the whole timeline into alternating used and free segments
// from the holes returned by Holes. Without any hole the timeline is a
// single used segment; an entity without records has to be special-cased
// by the caller.
func Band(holes []Hole) []Segment {
	if len(holes) == 0 {
		return []Segment{{Kind: Used}}
	}
	var segments []Segment
	for i, h := range holes {
		if !h.Start.IsZero() {
			used := Segment{Kind: Used, Period: Period{End: h.Start.AddDate(0, 0, -1)}}
			if i > 0 {
				used.Start = holes[i-1].End.AddDate(0, 0, 1)
			}
			segments = append(segments, used)
		}
		segments = append(segments, Segment{Kind: Free, Period: h})
	}
	if last := holes[len(holes)-1]; !last.End.IsZero() {
		segments = append(segments, Segment{Kind: Used, Period: Period{Start: last.End.AddDate(0, 0, 1)}})
	}
	return segments
}
