package submission

import (
	"github.com/finzie/booking-coordinator/internal/auth"
	"github.com/finzie/booking-coordinator/internal/models"
)

// IsFreelancer reports whether id submitted s.
func IsFreelancer(id auth.Identity, s *models.Submission) bool {
	return id.Role == auth.RoleFreelancer && id.OwnsEmail(s.Email)
}

// IsFormOwner reports whether id owns the form s was submitted to.
// s must be loaded with Form.Client.
func IsFormOwner(id auth.Identity, s *models.Submission) bool {
	if id.Role != auth.RoleClient || s.Form == nil {
		return false
	}
	if id.ID != "" && id.ID == s.Form.ClientID {
		return true
	}
	return s.Form.Client != nil && id.OwnsEmail(s.Form.Client.Email)
}

func CanView(id auth.Identity, s *models.Submission) bool {
	return id.IsAdmin() || IsFreelancer(id, s) || IsFormOwner(id, s)
}

func CanManage(id auth.Identity, s *models.Submission) bool {
	return id.IsAdmin() || IsFormOwner(id, s)
}
