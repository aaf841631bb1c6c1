// Package tree defines the schema-typed data tree persisted by treekv:
// qualified names, paths, nodes and leaf values, plus a simple in-memory tree
// that can receive replayed mutations.
package tree

import "strings"

// QName identifies a schema-defined node type. An empty Revision means the
// module has no revision.
type QName struct {
	Local     string
	Namespace string
	Revision  string
}

func NewQName(namespace, revision, local string) QName {
	return QName{Local: local, Namespace: namespace, Revision: revision}
}

func (q QName) IsZero() bool {
	return q == QName{}
}

func (q QName) String() string {
	var buf strings.Builder
	buf.WriteByte('(')
	buf.WriteString(q.Namespace)
	if q.Revision != "" {
		buf.WriteString("?revision=")
		buf.WriteString(q.Revision)
	}
	buf.WriteByte(')')
	buf.WriteString(q.Local)
	return buf.String()
}

// compareQNames orders names by namespace, then revision, then local name.
func compareQNames(a, b QName) int {
	if c := strings.Compare(a.Namespace, b.Namespace); c != 0 {
		return c
	}
	if c := strings.Compare(a.Revision, b.Revision); c != 0 {
		return c
	}
	return strings.Compare(a.Local, b.Local)
}
