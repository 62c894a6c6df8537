package auth

// Access decisions are pure functions over the actor and the attributes of
// the record being touched. Handlers resolve the actor once per request and
// consult these before any domain call.

// CanReadGrievance reports whether actor may read a grievance owned by
// ownerID and assigned to department. Anonymous grievances have an empty
// ownerID and are reachable for submitters only through their tracking code.
func CanReadGrievance(actor Actor, ownerID, department string) bool {
	switch actor.Role() {
	case RoleAdministrator:
		return true
	case RoleDepartment:
		dept, ok := actor.Department()
		return ok && dept == department
	case RoleSubmitter:
		return ownerID != "" && ownerID == actor.AccountID
	}
	return false
}

// CanTransitionGrievance reports whether actor may move a grievance assigned
// to department into targetStatus. Department actors are limited to resolving
// grievances already assigned to them.
func CanTransitionGrievance(actor Actor, department, targetStatus string) bool {
	switch actor.Role() {
	case RoleAdministrator:
		return true
	case RoleDepartment:
		dept, ok := actor.Department()
		if !ok || dept != department {
			return false
		}
		return targetStatus == "Resolved"
	}
	return false
}

// CanAttachFeedback reports whether actor may attach feedback to a grievance
// owned by ownerID. Anonymous grievances take feedback through the tracking
// code path instead.
func CanAttachFeedback(actor Actor, ownerID string) bool {
	switch actor.Role() {
	case RoleAdministrator:
		return true
	case RoleSubmitter:
		return ownerID != "" && ownerID == actor.AccountID
	}
	return false
}

// CanAdminister reports whether actor may use administrator-only operations:
// department provisioning, stats, account counts, and cross-department reads.
func CanAdminister(actor Actor) bool {
	return actor.Role() == RoleAdministrator
}
