package tundra

// Role selects which side of the authority asymmetry an engine instance
// plays: a server validates authentication before accepting messages and
// re-broadcasts applied changes to every other peer; a client trusts the
// server unconditionally and never re-broadcasts what it receives.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

func (r Role) String() string {
	if r == RoleClient {
		return "client"
	}
	return "server"
}
