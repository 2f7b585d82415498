package domain

import "time"

type Category struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Icon          string         `json:"icon"`
	Color         string         `json:"color"`
	IsActive      bool           `json:"isActive"`
	Order         int32          `json:"order"`
	Subcategories []*Subcategory `json:"subcategories,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

type Subcategory struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"categoryId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	Order       int32     `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
}
