package playback

// Identity is the comparable connection identity of a device. Two engines
// with equal identities talk to the same server with the same credentials.
type Identity struct {
	Address  string
	Username string
	Password string
	Secure   bool
}

func (i Identity) String() string {
	if i.Username == "" {
		return i.Address + " [Unauthenticated]"
	}
	return i.Address + " [" + i.Username + "]"
}

// UniqueIdentities drops repeated identities, keeping first-seen order.
func UniqueIdentities(ids ...Identity) []Identity {
	seen := make(map[Identity]struct{}, len(ids))
	out := make([]Identity, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
