package spotify

// Track is a catalog track reduced to what recommendation needs.
type Track struct {
	ID         string
	Name       string
	Artist     string // Comma-separated artist names
	Album      string
	Popularity int
}
