package store

import "time"

func (s *SQLite) SetNow(now func() time.Time) { s.now = now }
