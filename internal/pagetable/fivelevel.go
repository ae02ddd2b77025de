package pagetable

import "github.com/kics223w1/ossim/internal/pte"

const (
	levelBits    = 9
	levelEntries = 1 << levelBits
	levelMask    = levelEntries - 1
)

// node is one level of the five-level tree: either an interior node
// whose children are more nodes, or (at the bottom) a leaf whose
// children hold PTEs directly. Levels are allocated lazily on first
// write, exactly as get_pd_from_address's descent does in mm64.c,
// but expressed as an owned tagged tree instead of pointer-punned
// uint64_t* arrays, per the no-pointer-punning guidance this port
// follows.
type node struct {
	children [levelEntries]*node
	leaves   [levelEntries]pte.PTE
	isLeaf   bool
}

// FiveLevel is the 64-bit, five-level page table: PGD -> P4D -> PUD ->
// PMD -> PT, 512 entries per level, grounded on mm64.c's
// get_pd_from_address / pte_set_fpn descent.
type FiveLevel struct {
	root *node
}

// NewFiveLevel builds an empty five-level table. Only the top level is
// allocated eagerly (mirroring init_mm's eager pgd allocation); every
// level below is created on first write.
func NewFiveLevel() *FiveLevel {
	return &FiveLevel{root: &node{}}
}

// MaxPages is 512^5 = 2^45, which overflows uint32 — the page-number
// type must be uint64 to represent it.
func (t *FiveLevel) MaxPages() uint64 {
	return uint64(levelEntries) * uint64(levelEntries) * uint64(levelEntries) * uint64(levelEntries) * uint64(levelEntries)
}

// indices splits a page number into its five 9-bit level indices,
// most-significant (pgd) first.
func indices(pgn uint64) [5]uint64 {
	return [5]uint64{
		(pgn >> (4 * levelBits)) & levelMask,
		(pgn >> (3 * levelBits)) & levelMask,
		(pgn >> (2 * levelBits)) & levelMask,
		(pgn >> levelBits) & levelMask,
		pgn & levelMask,
	}
}

func (t *FiveLevel) Get(pgn uint64) pte.PTE {
	idx := indices(pgn)
	cur := t.root
	for level := 0; level < 4; level++ {
		if cur == nil {
			return 0
		}
		cur = cur.children[idx[level]]
	}
	if cur == nil {
		return 0
	}
	return cur.leaves[idx[4]]
}

func (t *FiveLevel) Set(pgn uint64, p pte.PTE) error {
	idx := indices(pgn)
	cur := t.root
	for level := 0; level < 4; level++ {
		next := cur.children[idx[level]]
		if next == nil {
			next = &node{isLeaf: level == 3}
			cur.children[idx[level]] = next
		}
		cur = next
	}
	cur.leaves[idx[4]] = p
	return nil
}

// Close releases the tree. Go's garbage collector reclaims the nodes
// once root is dropped; Close exists so callers that model an address
// space's lifecycle explicitly (matching free_mm's single recursive
// teardown) have one place to call, and so a future non-GC allocator
// swap only touches this method.
func (t *FiveLevel) Close() {
	t.root = nil
}
