package models

// CountdownParts are the display fields of the countdown widget.
type CountdownParts struct {
	Days    string `json:"days"`
	Hours   string `json:"hours"`
	Minutes string `json:"minutes"`
	Seconds string `json:"seconds"`
	Done    bool   `json:"done"`
}
