package rehydrate

// Numbering assigns display numbers to citation targets by first appearance.
// One Numbering is threaded through a whole document so a target prints the
// same number everywhere.
type Numbering struct {
	numbers map[string]int
	order   []string
}

// NewNumbering creates an empty numbering
func NewNumbering() *Numbering {
	return &Numbering{numbers: make(map[string]int)}
}

// Assign returns the number for targetID, allocating the next unused one on
// first sight
func (n *Numbering) Assign(targetID string) int {
	if num, ok := n.numbers[targetID]; ok {
		return num
	}
	n.order = append(n.order, targetID)
	num := len(n.order)
	n.numbers[targetID] = num
	return num
}

// Lookup returns the number already assigned to targetID
func (n *Numbering) Lookup(targetID string) (int, bool) {
	num, ok := n.numbers[targetID]
	return num, ok
}

// Targets returns target ids in number order
func (n *Numbering) Targets() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Len returns how many distinct targets were numbered
func (n *Numbering) Len() int {
	return len(n.order)
}
