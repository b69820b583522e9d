package reports

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShiftRangeComparesUTCDates(t *testing.T) {
	var w where
	dateRange(&w, shiftDay, Filter{From: day(1), To: day(31)})
	people(&w, Filter{AssigneeID: "a1"})

	require.Equal(t,
		" WHERE (start_at AT TIME ZONE 'UTC')::date >= $1 AND (start_at AT TIME ZONE 'UTC')::date <= $2 AND assignee_id = $3",
		w.sql())
	require.Len(t, w.args, 3)
}

func TestEmptyFilterHasNoWhere(t *testing.T) {
	var w where
	dateRange(&w, "date", Filter{})
	people(&w, Filter{})
	require.Empty(t, w.sql())
	require.Empty(t, w.args)
}
