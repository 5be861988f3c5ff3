package auth

// Identity is the authenticated caller as the trade engine sees it. The
// engine never checks credentials itself; it only consumes this.
type Identity struct {
	UserID uint64
	TeamID uint64
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// OwnsTeam reports whether the caller acts for the given team, either as its
// owner or as an administrator.
func (i Identity) OwnsTeam(teamID uint64) bool {
	if i.IsAdmin() {
		return true
	}
	return i.TeamID != 0 && i.TeamID == teamID
}
