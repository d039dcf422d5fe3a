// Package templates renders the HTML pages of the web UI as templ components.
//
// The *_templ.go files are generated from the .templ sources; run
// `templ generate` after editing them.
package templates

//go:generate templ generate

// HospitalRow is one row of the hospitals table.
type HospitalRow struct {
	ID      int64
	Name    string
	City    string
	State   string
	Address string
}
