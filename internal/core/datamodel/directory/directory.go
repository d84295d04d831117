package directory

import "time"

type Client struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Client) TableName() string {
	return "clients"
}

type Project struct {
	ID        int64     `gorm:"primaryKey"`
	ClientID  int64     `gorm:"column:client_id;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Project) TableName() string {
	return "projects"
}

type Activity struct {
	ID             int64     `gorm:"primaryKey"`
	ProjectID      int64     `gorm:"column:project_id;not null;index"`
	Name           string    `gorm:"column:name;not null"`
	HorasPrevistas float64   `gorm:"column:horas_previstas;not null;default:0"`
	IsActive       bool      `gorm:"column:is_active;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Activity) TableName() string {
	return "activities"
}
