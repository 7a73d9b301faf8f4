package entity

type Migration struct {
	Version string `gorm:"primarykey"`
}
