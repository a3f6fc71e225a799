package neighborhood

import "time"

// Record mirrors one row in the persistent `neighborhood` table.  A combo
// neighborhood (IsCombo == true) aggregates several component neighborhoods;
// content queries must expand a combo to its component IDs before hitting the
// article tables.
type Record struct {
	ID       uint64  `db:"id"`
	Slug     string  `db:"slug"`
	Name     string  `db:"name"`
	City     string  `db:"city"`
	Country  string  `db:"country"`
	Lat      float64 `db:"lat"`
	Lon      float64 `db:"lon"`
	Timezone string  `db:"timezone"`
	IsCombo  bool    `db:"is_combo"`

	RetiredAt *time.Time `db:"retired_at"`
	CreatedAt time.Time  `db:"created_at"`
}
