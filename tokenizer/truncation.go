package tokenizer

import "github.com/pkg/errors"

// TruncationStrategy selects which sequence(s) truncation removes tokens
// from when an input pair exceeds the budget.
type TruncationStrategy int

const (
	LongestFirst TruncationStrategy = iota
	OnlyFirst
	OnlySecond
)

// TruncationParams configures Truncate.
type TruncationParams struct {
	MaxLength int
	Strategy  TruncationStrategy
	Stride    int
}

// Truncate applies params to the pair (first, second) — second may be nil
// for a single-input encode. numAddedTokens is how many extra tokens the
// post-processor will inject later (e.g. [CLS]/[SEP]); it is subtracted
// from MaxLength before truncation so the final, post-processed encoding
// still respects MaxLength.
//
// Overflow fragments (when Stride > 0) are windows of at most MaxLength
// tokens sliding over the pre-truncation sequence with Stride tokens of
// overlap between consecutive windows, attached to the Overflowing field of
// each returned Encoding that was shortened (first, second, or both).
func Truncate(first, second *Encoding, params *TruncationParams, numAddedTokens int) (*Encoding, *Encoding, error) {
	if params == nil {
		return first, second, nil
	}
	budget := params.MaxLength - numAddedTokens
	if budget < 0 {
		budget = 0
	}

	lenF := first.Len()
	lenS := 0
	if second != nil {
		lenS = second.Len()
	}
	total := lenF + lenS
	if total <= budget {
		return first, second, nil
	}
	excess := total - budget

	switch params.Strategy {
	case OnlyFirst:
		if lenF < excess {
			return nil, nil, errors.Wrapf(ErrSequenceTooShort,
				"first sequence has %d tokens, cannot absorb excess of %d alone", lenF, excess)
		}
		newLenF := lenF - excess
		return finishTruncation(first, second, newLenF, lenS, params.Stride)

	case OnlySecond:
		if second == nil {
			return nil, nil, errors.Wrap(ErrInvalidInput, "OnlySecond truncation requires a pair input")
		}
		if lenS < excess {
			return nil, nil, errors.Wrapf(ErrSequenceTooShort,
				"second sequence has %d tokens, cannot absorb excess of %d alone", lenS, excess)
		}
		newLenS := lenS - excess
		return finishTruncation(first, second, lenF, newLenS, params.Stride)

	default: // LongestFirst
		newLenF, newLenS := lenF, lenS
		for newLenF+newLenS > budget {
			if newLenF >= newLenS && newLenF > 0 {
				newLenF--
			} else if newLenS > 0 {
				newLenS--
			} else {
				break
			}
		}
		return finishTruncation(first, second, newLenF, newLenS, params.Stride)
	}
}

func finishTruncation(first, second *Encoding, newLenF, newLenS, stride int) (*Encoding, *Encoding, error) {
	truncatedFirst := first.sliceWindow(0, newLenF)
	if newLenF < first.Len() {
		truncatedFirst.Overflowing = windowOverflow(first, newLenF, stride)
	}

	var truncatedSecond *Encoding
	if second != nil {
		truncatedSecond = second.sliceWindow(0, newLenS)
		if newLenS < second.Len() {
			truncatedSecond.Overflowing = append(truncatedSecond.Overflowing, windowOverflow(second, newLenS, stride)...)
		}
	}
	return truncatedFirst, truncatedSecond, nil
}

// windowOverflow slides a window of size keep (with stride tokens of
// overlap between consecutive windows) over pre's full token sequence,
// covering the tail that the kept [0,keep) prefix dropped.
func windowOverflow(pre *Encoding, keep, stride int) []*Encoding {
	n := pre.Len()
	if keep >= n || keep <= 0 {
		return nil
	}
	if stride < 0 {
		stride = 0
	}
	if stride >= keep {
		stride = keep - 1
	}
	step := keep - stride
	if step <= 0 {
		step = 1
	}

	var windows []*Encoding
	start := stride // first overflow window starts `stride` tokens before the end of the kept prefix... i.e. overlapping it
	if keep-stride > 0 {
		start = keep - stride
	} else {
		start = 0
	}
	for start < n {
		end := start + keep
		if end > n {
			end = n
		}
		windows = append(windows, pre.sliceWindow(start, end))
		if end == n {
			break
		}
		start += step
	}
	return windows
}
