package domain

// CoordinateStore maps addresses to coordinates for a single planning run.
//
// It is rebuilt wholesale from the coordinate source at the start of each run
// and only read once planning begins, so it carries no locking.
type CoordinateStore struct {
	coords map[string]Coordinates
}

func NewCoordinateStore() *CoordinateStore {
	return &CoordinateStore{coords: make(map[string]Coordinates)}
}

// Set records the coordinate for an address. The last write wins.
// Blank addresses are ignored.
func (s *CoordinateStore) Set(address string, c Coordinates) {
	key := NormalizeAddress(address)
	if key == "" {
		return
	}
	s.coords[key] = c
}

// Lookup resolves an address to its coordinate.
func (s *CoordinateStore) Lookup(address string) (Coordinates, bool) {
	if s == nil {
		return Coordinates{}, false
	}
	c, ok := s.coords[NormalizeAddress(address)]
	return c, ok
}

// Has reports whether the address resolves.
func (s *CoordinateStore) Has(address string) bool {
	_, ok := s.Lookup(address)
	return ok
}

func (s *CoordinateStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.coords)
}
