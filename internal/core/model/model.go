// Package model defines the records served by the API.
package model

// Chair is one row of the chair table. JSON keys are the camelCase form of
// the column names.
type Chair struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Price       int64  `json:"price"`
	Height      int64  `json:"height"`
	Width       int64  `json:"width"`
	Depth       int64  `json:"depth"`
	Color       string `json:"color"`
	Features    string `json:"features"`
	Kind        string `json:"kind"`
	Popularity  int64  `json:"popularity"`
	Stock       int64  `json:"stock"`
}

// Estate is one row of the estate table.
type Estate struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Thumbnail   string  `json:"thumbnail"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Rent        int64   `json:"rent"`
	DoorHeight  int64   `json:"doorHeight"`
	DoorWidth   int64   `json:"doorWidth"`
	Features    string  `json:"features"`
	Popularity  int64   `json:"popularity"`
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ChairPage struct {
	Count  int64   `json:"count"`
	Chairs []Chair `json:"chairs"`
}

type EstatePage struct {
	Count   int64    `json:"count"`
	Estates []Estate `json:"estates"`
}

type ChairList struct {
	Chairs []Chair `json:"chairs"`
}

type EstateList struct {
	Estates []Estate `json:"estates"`
}
