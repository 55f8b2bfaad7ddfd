package audit

import "strings"

// ActionResource holds action and resource derived from a gRPC full method name.
type ActionResource struct {
	Action   string
	Resource string
}

// Method overrides: these RPCs are recorded under the same action names the services use.
var methodOverrides = map[string]ActionResource{
	"/lynkskill.membership.v1.MembershipService/AssignRole":          {Action: ActionRoleChanged, Resource: ResourceMembership},
	"/lynkskill.membership.v1.MembershipService/SetExtraPermissions": {Action: ActionPermissionsChanged, Resource: ResourceMembership},
	"/lynkskill.membership.v1.MembershipService/RemoveMember":        {Action: ActionMemberRemoved, Resource: ResourceMembership},
	"/lynkskill.membership.v1.MembershipService/Leave":               {Action: ActionMemberLeft, Resource: ResourceMembership},
	"/lynkskill.transfer.v1.TransferService/InitiateTransfer":        {Action: ActionTransferInitiated, Resource: ResourceTransfer},
	"/lynkskill.transfer.v1.TransferService/ConfirmFirst":            {Action: ActionTransferConfirmed, Resource: ResourceTransfer},
	"/lynkskill.transfer.v1.TransferService/ConfirmFinal":            {Action: ActionTransferCompleted, Resource: ResourceTransfer},
	"/lynkskill.transfer.v1.TransferService/CancelTransfer":          {Action: ActionTransferCancelled, Resource: ResourceTransfer},
}

// ParseFullMethod returns action and resource for a gRPC full method (e.g. /lynkskill.role.v1.RoleService/CreateCustomRole).
// Action is a verb: get, list, create, update, delete, or a lowercase method name for others.
// Resource is derived from the service name (e.g. RoleService -> role, JoinCodeService -> join_code).
func ParseFullMethod(fullMethod string) ActionResource {
	if ar, ok := methodOverrides[fullMethod]; ok {
		return ar
	}
	// fullMethod format: /lynkskill.package.v1.ServiceName/MethodName
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	method := fullMethod[slash+1:]
	beforeSlash := fullMethod[:slash]
	dot := strings.LastIndex(beforeSlash, ".")
	if dot < 0 {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	serviceName := beforeSlash[dot+1:]
	return ActionResource{Action: methodToAction(method), Resource: serviceToResource(serviceName)}
}

// serviceToResource turns RoleService into role and JoinCodeService into join_code.
func serviceToResource(serviceName string) string {
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func methodToAction(method string) string {
	switch {
	case strings.HasPrefix(method, "Get") && method != "Get":
		return "get"
	case strings.HasPrefix(method, "List"):
		return "list"
	case strings.HasPrefix(method, "Create"):
		return "create"
	case strings.HasPrefix(method, "Update"):
		return "update"
	case strings.HasPrefix(method, "Delete"):
		return "delete"
	case strings.HasPrefix(method, "Regenerate"):
		return "regenerate"
	case strings.HasPrefix(method, "Invite"):
		return "invite"
	case strings.HasPrefix(method, "Set"):
		return "set"
	default:
		return strings.ToLower(method)
	}
}
