package store

// Page size bounds used when no configuration overrides them.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageParams is offset pagination: skip rows, then return at most Limit.
type PageParams struct {
	Skip  int
	Limit int
}

// Normalize clamps p into a valid range.
func (p PageParams) Normalize(defaultSize, maxSize int) PageParams {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultSize
	}
	if p.Limit > maxSize {
		p.Limit = maxSize
	}
	return p
}
