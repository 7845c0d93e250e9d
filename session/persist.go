package session

import (
	"bufio"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
)

// persistedSession is the on-disk form, one JSON object per line. Values go
// through generic JSON encoding, so loaded values come back as JSON types
// (numbers as float64, objects as map[string]any); typed access after a
// restart must account for that.
type persistedSession struct {
	ID        string         `json:"id"`
	ExpiresAt time.Time      `json:"expires_at"`
	AutoRenew bool           `json:"auto_renew"`
	Values    map[string]any `json:"values"`
}

// SaveFile writes every live session to path. Sessions holding values that
// cannot be JSON-encoded are skipped rather than failing the whole save.
func (st *Store) SaveFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating session store file")
	}
	defer file.Close()

	st.mu.RLock()
	snapshot := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		snapshot = append(snapshot, s)
	}
	st.mu.RUnlock()

	w := bufio.NewWriter(file)
	for _, s := range snapshot {
		s.mu.Lock()
		record := persistedSession{
			ID:        s.id,
			ExpiresAt: s.expiresAt,
			AutoRenew: s.autoRenew,
			Values:    make(map[string]any, len(s.values)),
		}
		for k, v := range s.values {
			record.Values[k] = v
		}
		s.mu.Unlock()

		line, err := json.Marshal(record)
		if err != nil {
			continue
		}
		w.Write(line)
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "flushing session store file")
	}
	return errors.Wrap(file.Sync(), "syncing session store file")
}

// LoadFile restores sessions from a file written by SaveFile. Expired and
// malformed records are skipped; on a token collision the in-memory session
// wins.
func (st *Store) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening session store file")
	}
	defer file.Close()

	now := time.Now()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record persistedSession
		if err := json.Unmarshal(line, &record); err != nil || record.ID == "" {
			continue
		}
		if !record.ExpiresAt.After(now) {
			continue
		}

		st.mu.Lock()
		if _, exists := st.sessions[record.ID]; !exists {
			s := newSession(record.ID, st.lifetime)
			s.expiresAt = record.ExpiresAt
			s.autoRenew = record.AutoRenew
			for k, v := range record.Values {
				s.values[k] = v
			}
			st.sessions[record.ID] = s
		}
		st.mu.Unlock()
	}

	return errors.Wrap(scanner.Err(), "reading session store file")
}
