package tokenizer

// PaddingDirection controls which end of the sequence padding is added to.
type PaddingDirection int

const (
	PadRight PaddingDirection = iota
	PadLeft
)

// PaddingStrategy selects how the target length for a batch is chosen.
type PaddingStrategy int

const (
	// BatchLongest pads every encoding in the batch up to the length of
	// the longest one.
	BatchLongest PaddingStrategy = iota
	// Fixed pads every encoding up to an exact length; an encoding that is
	// already longer is not truncated.
	Fixed
)

// PaddingParams configures Pad / PadBatch.
type PaddingParams struct {
	Strategy        PaddingStrategy
	FixedLength     int // only used when Strategy == Fixed
	Direction       PaddingDirection
	PadID           uint32
	PadTypeID       uint32
	PadToken        string
	PadToMultipleOf int // 0 disables
}

// targetLength resolves the strategy against the observed max length of a
// batch (ignored for Fixed).
func (p *PaddingParams) targetLength(observedMax int) int {
	n := observedMax
	if p.Strategy == Fixed {
		n = p.FixedLength
	}
	if p.PadToMultipleOf > 0 && n%p.PadToMultipleOf != 0 {
		n += p.PadToMultipleOf - n%p.PadToMultipleOf
	}
	return n
}

// Pad grows e in place up to length n, or returns e unchanged if it is
// already at least that long.
func (p *PaddingParams) Pad(e *Encoding, n int) *Encoding {
	need := n - e.Len()
	if need <= 0 {
		return e
	}
	pad := &Encoding{
		IDs:               fillU32(need, p.PadID),
		TypeIDs:           fillU32(need, p.PadTypeID),
		Tokens:            fillStr(need, p.PadToken),
		Offsets:           make([]Offset, need),
		SpecialTokensMask: fillU32(need, 1),
		AttentionMask:     fillU32(need, 0),
		Words:             fillU32(need, uint32(WordSentinel)),
	}
	switch p.Direction {
	case PadLeft:
		return pad.Merge(e)
	default:
		return e.Merge(pad)
	}
}

// PadBatch pads every encoding in batch to a common target length
// determined by p.Strategy.
func (p *PaddingParams) PadBatch(batch []*Encoding) []*Encoding {
	observedMax := 0
	for _, e := range batch {
		if e.Len() > observedMax {
			observedMax = e.Len()
		}
	}
	n := p.targetLength(observedMax)
	out := make([]*Encoding, len(batch))
	for i, e := range batch {
		out[i] = p.Pad(e, n)
	}
	return out
}

func fillU32(n int, v uint32) []uint32 {
	s := make([]uint32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func fillStr(n int, v string) []string {
	s := make([]string, n)
	for i := range s {
		s[i] = v
	}
	return s
}
