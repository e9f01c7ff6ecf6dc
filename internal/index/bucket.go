package index

// Bucket holds every posting for one token within one Pool. The same
// (token, row-index) pair never produces two postings: a repeat add folds
// its weight into the existing entry (spec.md §4.2).
type Bucket struct {
	token    string
	postings []Posting
	byIdx    map[int]int // row-index -> position in postings
}

// NewBucket creates an empty Bucket for token.
func NewBucket(token string) *Bucket {
	return &Bucket{
		token: token,
		byIdx: make(map[int]int),
	}
}

// Token returns the token this bucket indexes.
func (b *Bucket) Token() string { return b.token }

// Add folds p into the bucket: if p.Idx is already present, its weight is
// added into the existing posting; otherwise p is appended.
func (b *Bucket) Add(p Posting) {
	if pos, ok := b.byIdx[p.Idx]; ok {
		b.postings[pos].Weight += p.Weight
		return
	}
	b.byIdx[p.Idx] = len(b.postings)
	b.postings = append(b.postings, p)
}

// Size returns the number of distinct row-indices in the bucket.
func (b *Bucket) Size() int { return len(b.postings) }

// Entries returns the bucket's postings in insertion order. The returned
// slice is owned by the bucket and must not be mutated by callers.
func (b *Bucket) Entries() []Posting { return b.postings }
