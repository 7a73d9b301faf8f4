package entity

import (
	"database/sql"

	"github.com/impact-lab/backend/pkg/enum"
)

type GlobalRole string

var (
	RoleUser  = enum.New(GlobalRole("user"))
	RoleAdmin = enum.New(GlobalRole("admin"))
)

var GlobalAdminRoles = []GlobalRole{RoleAdmin}

type User struct {
	Base

	Name          string
	Email         string `gorm:"unique"`
	WalletAddress sql.NullString
	Role          GlobalRole `gorm:"default:user"`
	Community     sql.NullString

	// TokenBalance and TotalImpactScore are only written when a reward is
	// confirmed.
	TokenBalance     int64
	TotalImpactScore int64
}
