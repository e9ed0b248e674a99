package user

import "time"

// Teams is the fixed set of teams a user can belong to.
var Teams = []string{"ENGINEERING", "PMO", "PRODUCT"}

// Roles is the fixed set of roles a user can hold.
var Roles = []string{
	"Engineer",
	"Senior Director of Engineering",
	"Senior Product Manager",
	"Program Manager",
	"VP of Product",
	"VP of PMO",
}

// ValidTeam reports whether team is one of the fixed team names.
func ValidTeam(team string) bool {
	for _, t := range Teams {
		if t == team {
			return true
		}
	}
	return false
}

// ValidRole reports whether role is one of the fixed role names.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents a stored user record. GitHubUsername is optional; the
// empty string means no GitHub account is linked.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Counter        int       `json:"counter"`
	Team           string    `json:"team"`
	Role           string    `json:"role"`
	GitHubUsername string    `json:"github_username,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Summary is the directory projection of a user, shown in the logged-out
// view. It deliberately omits the id.
type Summary struct {
	Username       string `json:"username"`
	Counter        int    `json:"counter"`
	Team           string `json:"team"`
	Role           string `json:"role"`
	GitHubUsername string `json:"github_username,omitempty"`
}

// Summary returns the directory projection of u.
func (u *User) Summary() Summary {
	return Summary{
		Username:       u.Username,
		Counter:        u.Counter,
		Team:           u.Team,
		Role:           u.Role,
		GitHubUsername: u.GitHubUsername,
	}
}

// CreateUserInput holds the fields required to create a new user.
// The counter always starts at zero.
type CreateUserInput struct {
	Username       string `json:"username"`
	Team           string `json:"team"`
	Role           string `json:"role"`
	GitHubUsername string `json:"github_username,omitempty"`
}
