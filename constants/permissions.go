package constants

// Organization permissions
const (
	// Admin permissions
	PermSuperAdminFull  = "courier-booking.super-admin.full-permit"
	PermAdminFull       = "courier-booking.admin.full-permit"
	PermSupervisorFull  = "courier-booking.supervisor.full-permit"
	PermOperatorFull    = "courier-booking.operator.full-permit"
	PermRiderFull       = "courier-booking.rider.full-permit"
	PermCustomerFull    = "courier-booking.customer.full-permit"

	// Special permissions
	PermAny = "any"
)

// Staff roles. Plain staff batches are coded <username>-<date>-<n>; the
// supervisory roles below require a StaffConfig record for batch numbering.
const (
	RoleStaff      = "staff"
	RoleSupervisor = "supervisor"
	RoleManager    = "manager"
	RoleRider      = "rider"
	RoleAdmin      = "admin"
)

// Permission groups for convenience
var (
	AdministrativePermissions = []string{
		PermSuperAdminFull,
		PermAdminFull,
		PermSupervisorFull,
	}

	// SupervisoryRoles are the roles whose batch codes come from StaffConfig.
	SupervisoryRoles = []string{
		RoleSupervisor,
		RoleManager,
		RoleAdmin,
	}
)

// IsSupervisoryRole reports whether the role uses the StaffConfig batch
// numbering scheme.
func IsSupervisoryRole(role string) bool {
	for _, r := range SupervisoryRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdministrativeRole reports whether the role may act on other users'
// records (e.g. cancel someone else's pickup request).
func IsAdministrativeRole(role string) bool {
	return role == RoleAdmin || role == RoleSupervisor || role == RoleManager
}
