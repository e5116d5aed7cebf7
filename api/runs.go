package api

import (
	"sync"

	"github.com/seenimoa/indexmovers/pkg/models"
)

const defaultMaxRuns = 20

// runStore keeps the most recent reports in memory, oldest evicted first.
type runStore struct {
	mu      sync.RWMutex
	max     int
	order   []string
	reports map[string]*models.Report
}

func newRunStore(max int) *runStore {
	if max <= 0 {
		max = defaultMaxRuns
	}
	return &runStore{
		max:     max,
		reports: make(map[string]*models.Report),
	}
}

func (s *runStore) put(rep *models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[rep.ID]; !ok {
		s.order = append(s.order, rep.ID)
	}
	s.reports[rep.ID] = rep
	for len(s.order) > s.max {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *runStore) get(id string) (*models.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reports[id]
	return rep, ok
}

// list returns stored reports, newest first.
func (s *runStore) list() []*models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Report, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.reports[s.order[i]])
	}
	return out
}

func (s *runStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
