package pathfinding

// SearchRecord is the per-node working state of one search.
type SearchRecord struct {
	CostSoFar     float64 // g
	Heuristic     float64 // h
	TotalEstimate float64 // f = g + h
	Predecessor   NodeID
}

func defaultRecord() SearchRecord {
	return SearchRecord{Predecessor: NoNode}
}

// SearchState maps node ids to their working state for a single request.
// It is allocated per search and never shared between searches.
type SearchState struct {
	records map[NodeID]*SearchRecord
}

// NewSearchState creates an empty state. sizeHint pre-sizes the table.
func NewSearchState(sizeHint int) *SearchState {
	return &SearchState{records: make(map[NodeID]*SearchRecord, sizeHint)}
}

// Record returns the state of id, or defaults if the search never touched it.
func (s *SearchState) Record(id NodeID) SearchRecord {
	if rec, ok := s.records[id]; ok {
		return *rec
	}
	return defaultRecord()
}

// Touched reports whether the search has assigned values to id.
func (s *SearchState) Touched(id NodeID) bool {
	_, ok := s.records[id]
	return ok
}

// Reset restores the defaults of id: zero costs and no predecessor.
func (s *SearchState) Reset(id NodeID) {
	if rec, ok := s.records[id]; ok {
		*rec = defaultRecord()
	}
}

// Len returns the number of touched nodes.
func (s *SearchState) Len() int {
	return len(s.records)
}

func (s *SearchState) update(id NodeID, costSoFar, heuristic float64, predecessor NodeID) {
	rec, ok := s.records[id]
	if !ok {
		rec = &SearchRecord{}
		s.records[id] = rec
	}
	rec.CostSoFar = costSoFar
	rec.Heuristic = heuristic
	rec.TotalEstimate = costSoFar + heuristic
	rec.Predecessor = predecessor
}

func (s *SearchState) get(id NodeID) *SearchRecord {
	return s.records[id]
}
