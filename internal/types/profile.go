package types

// Profile contains user profile metadata (kind 0) for one pubkey
type Profile struct {
	PubKey      string   `json:"-"`
	Name        string   `json:"name,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	Picture     string   `json:"picture,omitempty"`
	About       string   `json:"about,omitempty"`
	Nip05       string   `json:"nip05,omitempty"`
	RelayHints  []string `json:"-"`

	// Npub is the bech32 form of PubKey, used as the last-resort name
	Npub string `json:"-"`
}

// ShortName prefers display_name, then name, then a shortened npub.
func (p *Profile) ShortName() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.Name != "" {
		return p.Name
	}
	if p.Npub != "" {
		return FormatNpubShort(p.Npub)
	}
	if len(p.PubKey) > 12 {
		return p.PubKey[:12] + "..."
	}
	return p.PubKey
}

// FormatNpubShort creates a shortened npub display like "npub1abc...xyz"
func FormatNpubShort(npub string) string {
	if len(npub) <= 16 {
		return npub
	}
	return npub[:9] + "..." + npub[len(npub)-4:]
}
