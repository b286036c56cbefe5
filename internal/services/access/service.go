// Package access decides which Telegram accounts may drive the review bot.
package access

type Service struct {
	operators map[int64]struct{}
}

func NewService(operatorIDs []int64) *Service {
	operators := make(map[int64]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		if id > 0 {
			operators[id] = struct{}{}
		}
	}
	return &Service{operators: operators}
}

func (s *Service) Allowed(tgID int64) bool {
	if s == nil {
		return false
	}
	_, ok := s.operators[tgID]
	return ok
}

func (s *Service) Count() int {
	if s == nil {
		return 0
	}
	return len(s.operators)
}
