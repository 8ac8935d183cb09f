package fits

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Role tags what a cube holds. It selects the in-memory sample type.
type Role string

const (
	RoleData    Role = "data"
	RoleMask    Role = "mask"
	RoleModel   Role = "model"
	RoleProfile Role = "profile"
	RoleZeroth  Role = "moment0"
	RoleFirst   Role = "moment1"
	RoleSecond  Role = "moment2"
)

// roleVocabulary is matched against the lower-cased file name in order;
// the first role with a matching word wins.
var roleVocabulary = []struct {
	role  Role
	words []string
}{
	{RoleMask, []string{"mask", "segmentation", "seg"}},
	{RoleModel, []string{"model", "mod"}},
	{RoleProfile, []string{"profile", "pv"}},
	{RoleZeroth, []string{"mom0", "moment0"}},
	{RoleFirst, []string{"mom1", "moment1"}},
	{RoleSecond, []string{"mom2", "moment2"}},
}

// InferRole guesses the role of a file from its base name.
func InferRole(path string) Role {
	name := strings.ToLower(filepath.Base(path))
	for _, v := range roleVocabulary {
		for _, w := range v.words {
			if strings.Contains(name, w) {
				return v.role
			}
		}
	}
	return RoleData
}

// ParseRole validates a role name as written in the ROLE keyword.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleData, RoleMask, RoleModel, RoleProfile, RoleZeroth, RoleFirst, RoleSecond:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedRole, s)
}
