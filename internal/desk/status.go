package desk

import (
	"sort"
	"time"

	"github.com/1broseidon/windeck/internal/platform"
)

// Status is a snapshot of the manager for display and IPC.
type Status struct {
	Spotlight SpotlightStatus `json:"spotlight"`
	Snap      SnapStatus      `json:"snap"`
	Revealing int             `json:"revealing"`
	Sliding   []string        `json:"sliding"`
}

type SpotlightStatus struct {
	Phase   string    `json:"phase"`
	Session string    `json:"session,omitempty"`
	Windows []string  `json:"windows,omitempty"`
	Since   *time.Time `json:"since,omitempty"`
}

type SnapStatus struct {
	Threshold int      `json:"threshold"`
	Windows   []string `json:"windows"`
}

// Status reports the current state of every component.
func (m *Manager) Status() Status {
	st := Status{
		Spotlight: SpotlightStatus{Phase: m.spotlight.Phase().String()},
		Snap: SnapStatus{
			Threshold: m.snap.Config().Threshold(),
			Windows:   idStrings(m.snap.IDs()),
		},
		Revealing: m.store.Pending(),
	}
	if sess := m.spotlight.Session(); sess != nil {
		st.Spotlight.Session = sess.ID.String()
		st.Spotlight.Windows = idStrings(sess.WindowIDs())
		started := sess.Started
		st.Spotlight.Since = &started
	}

	ids := make([]platform.WindowID, 0, len(m.slides))
	for id := range m.slides {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	st.Sliding = idStrings(ids)
	return st
}

func idStrings(ids []platform.WindowID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
