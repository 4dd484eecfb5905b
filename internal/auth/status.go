package auth

import "context"

// Status is a diagnostic snapshot of the core for the presentation layer.
type Status struct {
	IsAuthenticated bool    `json:"is_authenticated"`
	Username        *string `json:"username"`
	RandomDegraded  bool    `json:"random_degraded"`
	LogCount        int     `json:"log_count"`
}

// SystemStatus reports whether a caller is currently authenticated and as
// whom, along with degradation flags and the diagnostic log count.
func (s *Service) SystemStatus(ctx context.Context) Status {
	st := Status{
		RandomDegraded: s.random.Degraded(),
		LogCount:       s.ring.Len(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Current(ctx, s.now())
	if err == nil {
		st.IsAuthenticated = true
		name := sess.Username
		st.Username = &name
	}
	return st
}
