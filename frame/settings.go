package frame

// SettingID is the 16-bit identifier space for SETTINGS parameters
// (spec.md §3's negotiated-settings list).
type SettingID uint16

const (
	SettingHeaderTableSize      SettingID = 0x1
	SettingEnablePush           SettingID = 0x2
	SettingMaxConcurrentStreams SettingID = 0x3
	SettingInitialWindowSize    SettingID = 0x4
	SettingMaxFrameSize         SettingID = 0x5
	SettingMaxHeaderListSize    SettingID = 0x6
)

// Setting is one (identifier, value) pair inside a SETTINGS frame.
type Setting struct {
	ID  SettingID
	Val uint32
}

// SettingsFrame carries zero or more Setting pairs, or is an empty ACK.
type SettingsFrame struct {
	frameHeader
	settings []Setting
}

// IsAck reports whether this is an acknowledgement (always an empty
// payload, per spec.md §4.4).
func (f *SettingsFrame) IsAck() bool { return f.h.Flags.Has(FlagAck) }

// ForeachSetting calls fn for every (id, value) pair in declaration
// order, stopping at the first error.
func (f *SettingsFrame) ForeachSetting(fn func(Setting) error) error {
	for _, s := range f.settings {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// DefaultSettings are the values this server advertises before any
// negotiation (spec.md §3).
func DefaultSettings() []Setting {
	return []Setting{
		{SettingHeaderTableSize, 4096},
		{SettingEnablePush, 0},
		{SettingMaxConcurrentStreams, 250},
		{SettingInitialWindowSize, 65535},
		{SettingMaxFrameSize, MaxPayloadSize},
	}
}
