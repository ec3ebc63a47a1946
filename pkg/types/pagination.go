package types

// Page: запрошенная страница списка.
type Page struct {
	Number  int
	PerPage int
}

func (p Page) Offset() uint64 {
	if p.Number < 1 {
		return 0
	}
	return uint64((p.Number - 1) * p.PerPage)
}

func (p Page) Limit() uint64 {
	return uint64(p.PerPage)
}
