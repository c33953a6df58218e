package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin        = "Admin"
	RoleDoctor       = "Doctor"
	RoleReceptionist = "Receptionist"
)

const (
	PermManageUsers        = "manage_users"
	PermManageSettings     = "manage_settings"
	PermViewPatients       = "view_patients"
	PermEditPatients       = "edit_patients"
	PermManageFiles        = "manage_files"
	PermManageNotes        = "manage_notes"
	PermManageAppointments = "manage_appointments"
)

// Role represents a user role
type Role struct {
	ID          int64        `gorm:"primaryKey;column:id" json:"id"`
	Name        string       `gorm:"size:50;not null;unique;index;column:name" json:"name"`
	Description string       `gorm:"type:text;column:description" json:"description"`
	CreatedAt   time.Time    `gorm:"autoCreateTime;column:created_at" json:"created_at"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// PermissionNames flattens the role's permissions.
func (r Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}

// Permission represents a permission in the system
type Permission struct {
	ID          int64  `gorm:"primaryKey;column:id" json:"id"`
	Name        string `gorm:"size:100;not null;unique;index;column:name" json:"name"`
	Description string `gorm:"type:text;column:description" json:"description"`
}

func (Permission) TableName() string {
	return "permissions"
}

// User represents a practice staff member
type User struct {
	ID             string     `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	OrganizationID string     `gorm:"type:uuid;not null;index;column:organization_id" json:"organization_id"`
	Username       string     `gorm:"size:100;not null;unique;index;column:username" json:"username"`
	Email          string     `gorm:"size:255;not null;unique;index;column:email" json:"email"`
	Password       string     `gorm:"size:255;not null;column:password" json:"-"`
	Name           string     `gorm:"column:name" json:"name"`
	Surname        string     `gorm:"column:surname" json:"surname"`
	RoleID         int64      `gorm:"index;not null;column:role_id" json:"role_id"`
	Role           Role       `gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"role"`
	LastLogin      *time.Time `gorm:"column:last_login" json:"last_login"`
	Audit
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

var rolePermissions = map[string][]string{
	RoleAdmin: {
		PermManageUsers, PermManageSettings, PermViewPatients, PermEditPatients,
		PermManageFiles, PermManageNotes, PermManageAppointments,
	},
	RoleDoctor: {
		PermViewPatients, PermEditPatients, PermManageFiles, PermManageNotes, PermManageAppointments,
	},
	RoleReceptionist: {
		PermViewPatients, PermEditPatients, PermManageFiles, PermManageAppointments,
	},
}

// DefaultPermissions returns the seeded permission names of a role.
func DefaultPermissions(role string) []string {
	return rolePermissions[role]
}

// SeedRoles inserts initial roles into the database
func SeedRoles(db *gorm.DB) error {
	initialRoles := []Role{
		{Name: RoleAdmin, Description: "Full access to the practice, its users and settings"},
		{Name: RoleDoctor, Description: "Can manage patients, files, notes and the calendar"},
		{Name: RoleReceptionist, Description: "Can handle patient intake, files and appointments"},
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, role := range initialRoles {
			if err := tx.FirstOrCreate(&role, Role{Name: role.Name}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedPermissions inserts initial permissions into the database
func SeedPermissions(db *gorm.DB) error {
	initialPermissions := []Permission{
		{Name: PermManageUsers, Description: "Create, update, or deactivate users"},
		{Name: PermManageSettings, Description: "Edit practice details, logo and consent document"},
		{Name: PermViewPatients, Description: "View patient data"},
		{Name: PermEditPatients, Description: "Create or update patients"},
		{Name: PermManageFiles, Description: "Open files and edit medical aid and injury details"},
		{Name: PermManageNotes, Description: "Write notes and upload attachments"},
		{Name: PermManageAppointments, Description: "Create or update appointments"},
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, permission := range initialPermissions {
			if err := tx.FirstOrCreate(&permission, Permission{Name: permission.Name}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedRolePermissions links every seeded role to its default permissions.
func SeedRolePermissions(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for roleName, names := range rolePermissions {
			var role Role
			if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
				return err
			}
			var permissions []Permission
			if err := tx.Where("name IN ?", names).Find(&permissions).Error; err != nil {
				return err
			}
			if err := tx.Model(&role).Association("Permissions").Replace(permissions); err != nil {
				return err
			}
		}
		return nil
	})
}
