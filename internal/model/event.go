package model

import "time"

const (
	FilterEventChanged = "filters.changed"

	FilterOpCreate     = "create"
	FilterOpUpdate     = "update"
	FilterOpActivate   = "activate"
	FilterOpDeactivate = "deactivate"
)

// FilterChangeEvent 是推送给实时客户端的分类树变更通知。
// 客户端收到后重新拉取平铺列表并重建树，不做增量修补。
type FilterChangeEvent struct {
	Event string    `json:"event"`
	Op    string    `json:"op"`
	IDs   []string  `json:"ids"`
	At    time.Time `json:"at"`
}
