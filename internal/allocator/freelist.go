package allocator

// numClasses is the number of segregated free-list size classes
// (spec.md §3: "A fixed array of 15 list heads").
const numClasses = 15

// classMins holds the minimum block size admitted to each class. Class 0
// is the mini class (exactly 16 bytes); classes 1..13 are bounded above by
// the next entry, and class 14 is unbounded (spec.md §3's "approximately
// 32, 48, 64, 80, 112, 160, 208, 272, 480, 800, 1728, 3232, 5536, 18736, ∞"
// boundary table). These numbers are empirical and preserved verbatim per
// spec.md §9 Open Question (a).
var classMins = [numClasses]uintptr{
	16, 32, 48, 64, 80, 112, 160, 208, 272, 480, 800, 1728, 3232, 5536, 18736,
}

// classOf returns the size class a block of the given size belongs to.
func classOf(size uintptr) int {
	for i := numClasses - 1; i >= 0; i-- {
		if size >= classMins[i] {
			return i
		}
	}

	return 0
}

// freeLists is the segregated free-list index: one head pointer per size
// class. A head of 0 means the class is empty.
type freeLists struct {
	heads [numClasses]uintptr
}

// insert adds b (already marked free, with a valid size in its header) to
// the head of its size class's list.
func (fl *freeLists) insert(b uintptr) {
	size := blockSize(b)
	class := classOf(size)
	head := fl.heads[class]

	if isMini(size) {
		writePtr(nextPtrAddr(b), head)
		fl.heads[class] = b

		return
	}

	writePtr(nextPtrAddr(b), head)
	writePtr(prevPtrAddr(b), 0)

	if head != 0 {
		writePtr(prevPtrAddr(head), b)
	}

	fl.heads[class] = b
}

// remove splices b out of its size class's list. b must currently be a
// member of that list.
func (fl *freeLists) remove(b uintptr) {
	size := blockSize(b)
	class := classOf(size)

	if isMini(size) {
		fl.removeMini(class, b)

		return
	}

	next := readPtr(nextPtrAddr(b))
	prev := readPtr(prevPtrAddr(b))

	if prev != 0 {
		writePtr(nextPtrAddr(prev), next)
	} else {
		fl.heads[class] = next
	}

	if next != 0 {
		writePtr(prevPtrAddr(next), prev)
	}
}

// removeMini performs the O(n) singly-linked removal mini blocks require:
// there is no back pointer, so the predecessor is found by walking from
// the head (spec.md §4.3 / §9 design note: the cost is accepted because
// mini blocks churn in short cycles).
func (fl *freeLists) removeMini(class int, b uintptr) {
	head := fl.heads[class]
	if head == b {
		fl.heads[class] = readPtr(nextPtrAddr(b))

		return
	}

	pred := head
	for pred != 0 {
		next := readPtr(nextPtrAddr(pred))
		if next == b {
			writePtr(nextPtrAddr(pred), readPtr(nextPtrAddr(b)))

			return
		}

		pred = next
	}
}
