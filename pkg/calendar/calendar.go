// Package calendar builds the month grid widget. The grid is purely derived
// from a month offset and the current date; it ignores every clock setting.
package calendar

import "time"

// Columns is the grid width: one column per weekday, Sunday first.
const Columns = 7

// Cell is one slot in the grid. Day 0 marks a leading blank used to align
// the first of the month under its weekday.
type Cell struct {
	Day   int  `json:"day"`
	Today bool `json:"today"`
}

// Month is the grid for one calendar month.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Cells []Cell     `json:"cells"`
}

// Grid returns the month at the given offset from now's month (0 = current,
// -1 = previous, 1 = next). The today marker only ever appears at offset 0.
func Grid(now time.Time, offset int) Month {
	first := time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, now.Location())
	// Day 0 of the following month is the last day of this one.
	days := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()

	cells := make([]Cell, 0, int(first.Weekday())+days)
	for range int(first.Weekday()) {
		cells = append(cells, Cell{})
	}
	sameMonth := first.Year() == now.Year() && first.Month() == now.Month()
	for day := 1; day <= days; day++ {
		cells = append(cells, Cell{Day: day, Today: sameMonth && day == now.Day()})
	}

	return Month{Year: first.Year(), Month: first.Month(), Cells: cells}
}
