package spatial

import (
	"bufio"
	"fmt"
	"io"
)

// WriteDOT writes the tree rooted at c as a Graphviz digraph. Each node is
// labelled with its entry count, bounding box and split point.
func (c *Chunk) WriteDOT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph chunk_debug {")
	next := 0
	c.writeDOT(bw, -1, &next)
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func (c *Chunk) writeDOT(w io.Writer, parent int, next *int) {
	id := *next
	*next++
	fmt.Fprintf(w, "  n%d [label=\"%d\\n[%d %d %d]-[%d %d %d]\\n[%d %d %d]\"];\n", id,
		len(c.entries),
		c.box.Min.X, c.box.Min.Y, c.box.Min.Z,
		c.box.Max.X, c.box.Max.Y, c.box.Max.Z,
		c.split.X, c.split.Y, c.split.Z)
	if parent >= 0 {
		fmt.Fprintf(w, "  n%d -> n%d;\n", parent, id)
	}
	for _, ch := range c.children {
		if ch != nil {
			ch.writeDOT(w, id, next)
		}
	}
}
