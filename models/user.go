package models

// User is an account holder. RoleID is the single source of truth for the
// user's role; role names in responses are projected from the joined Role
// row on read and never stored on the user.
type User struct {
	BaseModel
	FirstName    string `gorm:"column:first_name;not null" json:"firstName"`
	LastName     string `gorm:"column:last_name;not null" json:"lastName"`
	Username     string `gorm:"column:username;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	RoleID       uint   `gorm:"column:role_id;not null" json:"roleId"`

	Role Role `gorm:"foreignKey:RoleID" json:"role"`
}

func (User) TableName() string { return "users" }

// Role groups permissions under a name (Admin, Researcher, ...).
type Role struct {
	BaseModel
	RoleName string `gorm:"column:role_name;uniqueIndex;not null" json:"roleName"`

	Permissions []Permission `gorm:"many2many:role_has_permissions;" json:"permissions"`
}

func (Role) TableName() string { return "roles" }

// Permission is a fine-grained capability name, e.g. "read_cave".
type Permission struct {
	BaseModel
	PermissionName string `gorm:"column:permission_name;uniqueIndex;not null" json:"permissionName"`
}

func (Permission) TableName() string { return "permissions" }
