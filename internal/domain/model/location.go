package model

// Location 緯度経度を表す基本的な型（重心・マーカー座標で使用）
type Location struct {
	Latitude  float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"required,min=-180,max=180"`
}
