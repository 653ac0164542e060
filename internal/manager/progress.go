package manager

// Progress is an insertion-ordered task name -> completed map, as produced by
// a scraper walking a task list top to bottom. Re-adding a name updates its
// value in place.
type Progress struct {
	order  []string
	values map[string]bool
}

func NewProgress() *Progress {
	return &Progress{values: make(map[string]bool)}
}

func (p *Progress) Add(name string, completed bool) {
	if _, ok := p.values[name]; !ok {
		p.order = append(p.order, name)
	}
	p.values[name] = completed
}

func (p *Progress) Get(name string) (bool, bool) {
	v, ok := p.values[name]
	return v, ok
}

func (p *Progress) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Each visits entries in insertion order.
func (p *Progress) Each(fn func(name string, completed bool)) {
	if p == nil {
		return
	}
	for _, name := range p.order {
		fn(name, p.values[name])
	}
}
