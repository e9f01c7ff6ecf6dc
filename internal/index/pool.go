package index

// Pool is the inverted index owned by a single reference GroupBlock: a
// mapping from token to Bucket (spec.md §3/§4.2).
type Pool struct {
	buckets map[string]*Bucket
}

// NewPool creates an empty Pool.
func NewPool() *Pool {
	return &Pool{buckets: make(map[string]*Bucket)}
}

// Get returns the Bucket for token, or nil if no postings were ever placed
// under it.
func (p *Pool) Get(token string) *Bucket {
	return p.buckets[token]
}

// Place creates the token's bucket if absent, then folds posting into it.
func (p *Pool) Place(token string, posting Posting) {
	b, ok := p.buckets[token]
	if !ok {
		b = NewBucket(token)
		p.buckets[token] = b
	}
	b.Add(posting)
}

// Len returns the number of distinct tokens in the pool.
func (p *Pool) Len() int { return len(p.buckets) }

// Tokens returns every token with a bucket in the pool, for callers
// (internal/persist) that need to enumerate the full index.
func (p *Pool) Tokens() []string {
	out := make([]string, 0, len(p.buckets))
	for tok := range p.buckets {
		out = append(out, tok)
	}
	return out
}
