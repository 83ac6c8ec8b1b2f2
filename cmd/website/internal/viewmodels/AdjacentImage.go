package viewmodels

type AdjacentImage struct {
	BaseViewModel

	FromID    string `json:"fromId"`
	ID        string `json:"id"`
	Direction int    `json:"direction"`
}
