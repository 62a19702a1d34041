package ocr

// FirstLabel selects a glyph label from r: the first line whose candidate
// list is non-empty wins and its top candidate is returned. Later lines are
// ignored. ok is false when no line carries a candidate.
func FirstLabel(r Result) (label string, ok bool) {
	for line := range r.Lines() {
		if len(line.Candidates) > 0 {
			return line.Candidates[0], true
		}
	}
	return "", false
}
