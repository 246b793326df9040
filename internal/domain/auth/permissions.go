package auth

import "sort"

// Permission codes match the rows seeded into the permissions table. They are
// opaque strings as far as the gate logic is concerned.
const (
	PermEmployeeCreate   = "EMPLOYEE_CREATE"
	PermEmployeeRead     = "EMPLOYEE_READ"
	PermEmployeeReadTeam = "EMPLOYEE_READ_TEAM"
	PermEmployeeUpdate   = "EMPLOYEE_UPDATE"
	PermEmployeeDelete   = "EMPLOYEE_DELETE"

	PermTimeOffTypeCreate = "TIME_OFF_TYPE_CREATE"
	PermTimeOffTypeRead   = "TIME_OFF_TYPE_READ"
	PermTimeOffTypeUpdate = "TIME_OFF_TYPE_UPDATE"
	PermTimeOffTypeDelete = "TIME_OFF_TYPE_DELETE"

	PermTimeOffRequestCreate   = "TIME_OFF_REQUEST_CREATE"
	PermTimeOffRequestReadOwn  = "TIME_OFF_REQUEST_READ_OWN"
	PermTimeOffRequestReadTeam = "TIME_OFF_REQUEST_READ_TEAM"
	PermTimeOffRequestReadAll  = "TIME_OFF_REQUEST_READ_ALL"
	PermTimeOffRequestApprove  = "TIME_OFF_REQUEST_APPROVE"

	PermTimeOffBalanceReadOwn = "TIME_OFF_BALANCE_READ_OWN"
	PermTimeOffBalanceReadAll = "TIME_OFF_BALANCE_READ_ALL"
	PermTimeOffBalanceAdjust  = "TIME_OFF_BALANCE_ADJUST"

	PermTimesheetCreate   = "TIMESHEET_CREATE"
	PermTimesheetReadOwn  = "TIMESHEET_READ_OWN"
	PermTimesheetReadTeam = "TIMESHEET_READ_TEAM"
	PermTimesheetReadAll  = "TIMESHEET_READ_ALL"
	PermTimesheetSubmit   = "TIMESHEET_SUBMIT"
	PermTimesheetApprove  = "TIMESHEET_APPROVE"

	PermProjectCreate = "PROJECT_CREATE"
	PermProjectRead   = "PROJECT_READ"
	PermProjectUpdate = "PROJECT_UPDATE"
	PermProjectDelete = "PROJECT_DELETE"
	PermProjectAssign = "PROJECT_ASSIGN"

	PermClientCreate = "CLIENT_CREATE"
	PermClientRead   = "CLIENT_READ"
	PermClientUpdate = "CLIENT_UPDATE"
	PermClientDelete = "CLIENT_DELETE"

	PermEventCreate = "EVENT_CREATE"
	PermEventRead   = "EVENT_READ"
	PermEventUpdate = "EVENT_UPDATE"
	PermEventDelete = "EVENT_DELETE"

	PermDocumentCreate   = "DOCUMENT_CREATE"
	PermDocumentReadOwn  = "DOCUMENT_READ_OWN"
	PermDocumentReadAll  = "DOCUMENT_READ_ALL"
	PermDocumentUpdate   = "DOCUMENT_UPDATE"
	PermDocumentDelete   = "DOCUMENT_DELETE"
	PermDocumentShare    = "DOCUMENT_SHARE"
	PermDocumentSignOwn  = "DOCUMENT_SIGN_OWN"
	PermDocumentSignRead = "DOCUMENT_SIGN_READ"
	PermSharePointBrowse = "SHAREPOINT_BROWSE"

	PermRoleCreate = "ROLE_CREATE"
	PermRoleRead   = "ROLE_READ"
	PermRoleUpdate = "ROLE_UPDATE"
	PermRoleDelete = "ROLE_DELETE"
	PermRoleAssign = "ROLE_ASSIGN"

	PermAuditRead = "AUDIT_READ"
)

var AllPermissions = []string{
	PermEmployeeCreate, PermEmployeeRead, PermEmployeeReadTeam, PermEmployeeUpdate, PermEmployeeDelete,
	PermTimeOffTypeCreate, PermTimeOffTypeRead, PermTimeOffTypeUpdate, PermTimeOffTypeDelete,
	PermTimeOffRequestCreate, PermTimeOffRequestReadOwn, PermTimeOffRequestReadTeam, PermTimeOffRequestReadAll, PermTimeOffRequestApprove,
	PermTimeOffBalanceReadOwn, PermTimeOffBalanceReadAll, PermTimeOffBalanceAdjust,
	PermTimesheetCreate, PermTimesheetReadOwn, PermTimesheetReadTeam, PermTimesheetReadAll, PermTimesheetSubmit, PermTimesheetApprove,
	PermProjectCreate, PermProjectRead, PermProjectUpdate, PermProjectDelete, PermProjectAssign,
	PermClientCreate, PermClientRead, PermClientUpdate, PermClientDelete,
	PermEventCreate, PermEventRead, PermEventUpdate, PermEventDelete,
	PermDocumentCreate, PermDocumentReadOwn, PermDocumentReadAll, PermDocumentUpdate, PermDocumentDelete,
	PermDocumentShare, PermDocumentSignOwn, PermDocumentSignRead, PermSharePointBrowse,
	PermRoleCreate, PermRoleRead, PermRoleUpdate, PermRoleDelete, PermRoleAssign,
	PermAuditRead,
}

// Built-in role names. System roles can be assigned but never deleted.
const (
	RoleEmployee = "Employee"
	RoleManager  = "Manager"
	RoleHRAdmin  = "HR Admin"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermEmployeeRead,
		PermTimeOffTypeRead,
		PermTimeOffRequestCreate, PermTimeOffRequestReadOwn,
		PermTimeOffBalanceReadOwn,
		PermTimesheetCreate, PermTimesheetReadOwn, PermTimesheetSubmit,
		PermProjectRead,
		PermEventRead,
		PermDocumentReadOwn, PermDocumentSignOwn,
	},
	RoleManager: {
		PermEmployeeRead, PermEmployeeReadTeam,
		PermTimeOffTypeRead,
		PermTimeOffRequestCreate, PermTimeOffRequestReadOwn, PermTimeOffRequestReadTeam, PermTimeOffRequestApprove,
		PermTimeOffBalanceReadOwn,
		PermTimesheetCreate, PermTimesheetReadOwn, PermTimesheetReadTeam, PermTimesheetSubmit, PermTimesheetApprove,
		PermProjectRead, PermProjectAssign,
		PermEventRead,
		PermDocumentReadOwn, PermDocumentSignOwn, PermDocumentSignRead,
	},
	RoleHRAdmin: AllPermissions,
}

// PermissionSet is the advisory gate consulted by clients (and by the
// navigation filter). Authoritative enforcement happens in the
// RequirePermission middleware on every mutating call.
type PermissionSet map[string]struct{}

func NewPermissionSet(codes ...string) PermissionSet {
	set := make(PermissionSet, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		set[code] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// HasAny reports whether any of the codes is present. Used where a feature is
// reachable through multiple equivalent grants.
func (s PermissionSet) HasAny(codes ...string) bool {
	for _, code := range codes {
		if s.Has(code) {
			return true
		}
	}
	return false
}

// Codes returns the membership sorted, for stable payloads.
func (s PermissionSet) Codes() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
