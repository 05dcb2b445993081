// File: mux/settings.go
// Package mux
// Author: momentics <momentics@gmail.com>
//
// SETTINGS frame payload model: an ordered set of (id, value) pairs with
// typed accessors for the known identifiers. Unknown identifiers are
// skipped on decode, never errors.

package mux

// SettingID identifies a single settings parameter.
type SettingID uint16

const (
	SettingHeaderTableSize      SettingID = 0x1
	SettingEnablePush           SettingID = 0x2
	SettingMaxConcurrentStreams SettingID = 0x3
	SettingInitialWindowSize    SettingID = 0x4
	SettingMaxFrameSize         SettingID = 0x5
	SettingMaxHeaderListSize    SettingID = 0x6
)

// Setting is a single (id, value) pair.
type Setting struct {
	ID    SettingID
	Value uint32
}

const settingEntryLen = 6

// Settings holds an ordered set of settings. Put replaces an existing entry
// in place, so encode order is stable.
type Settings struct {
	entries []Setting
}

// NewSettings returns an empty Settings.
func NewSettings() *Settings {
	return new(Settings)
}

// Put stores value under id, replacing any existing entry.
func (s *Settings) Put(id SettingID, value uint32) *Settings {
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Value = value
			return s
		}
	}
	s.entries = append(s.entries, Setting{ID: id, Value: value})
	return s
}

// Get returns the value stored under id.
func (s *Settings) Get(id SettingID) (uint32, bool) {
	for _, e := range s.entries {
		if e.ID == id {
			return e.Value, true
		}
	}
	return 0, false
}

// Len returns the number of stored entries.
func (s *Settings) Len() int { return len(s.entries) }

// Entries returns the stored pairs in encode order.
func (s *Settings) Entries() []Setting { return s.entries }

// Equal reports whether both sets hold the same entries in the same order.
func (s *Settings) Equal(o *Settings) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i, e := range s.entries {
		if o.entries[i] != e {
			return false
		}
	}
	return true
}

// HeaderTableSize returns SETTINGS_HEADER_TABLE_SIZE.
func (s *Settings) HeaderTableSize() (uint32, bool) { return s.Get(SettingHeaderTableSize) }

// EnablePush returns SETTINGS_ENABLE_PUSH interpreted as a boolean.
func (s *Settings) EnablePush() (bool, bool) {
	v, ok := s.Get(SettingEnablePush)
	return v != 0, ok
}

// MaxConcurrentStreams returns SETTINGS_MAX_CONCURRENT_STREAMS.
func (s *Settings) MaxConcurrentStreams() (uint32, bool) { return s.Get(SettingMaxConcurrentStreams) }

// InitialWindowSize returns SETTINGS_INITIAL_WINDOW_SIZE.
func (s *Settings) InitialWindowSize() (uint32, bool) { return s.Get(SettingInitialWindowSize) }

// MaxFrameSize returns SETTINGS_MAX_FRAME_SIZE.
func (s *Settings) MaxFrameSize() (uint32, bool) { return s.Get(SettingMaxFrameSize) }

// MaxHeaderListSize returns SETTINGS_MAX_HEADER_LIST_SIZE.
func (s *Settings) MaxHeaderListSize() (uint32, bool) { return s.Get(SettingMaxHeaderListSize) }
