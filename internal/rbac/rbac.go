package rbac

type Role string
type Action string

const (
	RoleVisitor Role = "visitor"
	RoleEditor  Role = "editor"
	RoleOwner   Role = "owner"
)

const (
	// ActionRead views public content.
	ActionRead Action = "read"
	// ActionEdit creates, edits and deletes content.
	ActionEdit Action = "edit"
	// ActionUpload stores media.
	ActionUpload Action = "upload"
	// ActionPublish runs full saves and reads the archive.
	ActionPublish Action = "publish"
	// ActionManage provisions admin accounts.
	ActionManage Action = "manage"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleOwner:
		return true
	case RoleEditor:
		return action == ActionRead || action == ActionEdit || action == ActionUpload || action == ActionPublish
	case RoleVisitor:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleVisitor, RoleEditor, RoleOwner:
		return Role(role)
	default:
		return RoleVisitor
	}
}
