package runtime

import (
	"testing"

	"brisk/internal/object"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSqlRoundTrip(t *testing.T) {
	rt, _ := newTestRuntime(t)
	db := rt.SQL()

	h, err := db.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	require.Equal(t, 1, h)

	_, err = db.Exec(h, "CREATE TABLE runs (id INTEGER PRIMARY KEY, name TEXT, score REAL, note TEXT)")
	require.NoError(t, err)
	n, err := db.Exec(h, "INSERT INTO runs (name, score, note) VALUES (?, ?, ?), (?, ?, ?)",
		"build", 1.5, nil, "test", 2.0, "flaky")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	rows, err := db.Query(h, "SELECT id, name, score, note FROM runs ORDER BY id")
	require.NoError(t, err)

	got := make([][]string, len(rows))
	for i, row := range rows {
		for _, v := range row {
			got[i] = append(got[i], string(v.Type())+":"+v.Inspect())
		}
	}
	want := [][]string{
		{"NUMBER:1", "STRING:build", "NUMBER:1.5", string(object.VOID.Type()) + ":" + object.VOID.Inspect()},
		{"NUMBER:2", "STRING:test", "NUMBER:2", "STRING:flaky"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, db.Close(h))
	_, err = db.Query(h, "SELECT 1")
	require.ErrorIs(t, err, ErrStorage)
}

func TestSqlRejectsUnknownDriver(t *testing.T) {
	rt, _ := newTestRuntime(t)
	_, err := rt.SQL().Open("oracle", "whatever")
	require.ErrorIs(t, err, ErrStorage)
}
