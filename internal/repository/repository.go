// Package repository implements data access over sqlx for the board
// entities. All methods are driver-agnostic: queries are written with ?
// placeholders and rebound for the active driver.
package repository

import "errors"

// ErrNotFound is returned when a referenced row does not exist. Callers
// test for it with errors.Is.
var ErrNotFound = errors.New("not found")
