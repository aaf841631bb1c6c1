package stream

// stringTable assigns codes to strings in first-seen order.
type stringTable struct {
	codes map[string]uint64
}

// intern returns the code of s and whether s was seen before. Unseen strings
// are added with the next code.
func (t *stringTable) intern(s string) (uint64, bool) {
	if code, ok := t.codes[s]; ok {
		return code, true
	}
	if t.codes == nil {
		t.codes = make(map[string]uint64)
	}
	code := uint64(len(t.codes))
	t.codes[s] = code
	return code, false
}

func (t *stringTable) Len() int {
	return len(t.codes)
}

// stringList is the decoding side of stringTable: literals appended in
// arrival order, indexed by code.
type stringList []string

func (l *stringList) add(s string) {
	*l = append(*l, s)
}

func (l stringList) lookup(code uint64) (string, bool) {
	if code >= uint64(len(l)) {
		return "", false
	}
	return l[code], true
}
