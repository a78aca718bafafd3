package results

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableOf(rows map[string]map[string]string, rowOrder, colOrder []string) *Table {
	t := NewTable()
	for _, r := range rowOrder {
		for _, c := range colOrder {
			if v, ok := rows[r][c]; ok {
				t.Set(r, c, v)
			}
		}
	}
	return t
}

func encode(t *testing.T, tbl *Table) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))
	return buf.String()
}

func TestTable_SetKeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	tbl.Set("baseline", "electricity.PG&E.E-TOU-D", "1.00")
	tbl.Set("baseline.solarstorage", "electricity.PG&E.E-ELEC", "2.00")
	tbl.Set("baseline", "electricity.PG&E.E-ELEC", "3.00")

	assert.Equal(t, []string{"baseline", "baseline.solarstorage"}, tbl.Rows())
	assert.Equal(t, []string{"electricity.PG&E.E-TOU-D", "electricity.PG&E.E-ELEC"}, tbl.Columns())
	assert.Equal(t,
		"scenario,electricity.PG&E.E-TOU-D,electricity.PG&E.E-ELEC\n"+
			"baseline,1.00,3.00\n"+
			"baseline.solarstorage,,2.00\n",
		encode(t, tbl))
}

func TestTable_SetUSD(t *testing.T) {
	t.Parallel()

	tbl := NewTable()
	tbl.SetUSD("baseline", "gas.SCE.GR", decimal.RequireFromString("1234.5"))
	tbl.SetUSD("baseline", "gas.SDG&E.GR", decimal.RequireFromString("0.005"))

	v, _ := tbl.Get("baseline", "gas.SCE.GR")
	assert.Equal(t, "1234.50", v)
	v, _ = tbl.Get("baseline", "gas.SDG&E.GR")
	assert.Equal(t, "0.01", v)
}

func TestParseTable_RoundTrip(t *testing.T) {
	t.Parallel()

	in := "scenario,a,b\nbaseline,1.00,\nheat_pump,,2.50\n"
	tbl, err := ParseTable(strings.NewReader(in))
	require.NoError(t, err)

	_, ok := tbl.Get("baseline", "b")
	assert.False(t, ok)
	v, ok := tbl.Get("heat_pump", "b")
	require.True(t, ok)
	assert.Equal(t, "2.50", v)
	assert.Equal(t, in, encode(t, tbl))
}

func TestMergeInto_PreservesUnrelatedCells(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "results.csv")

	first := NewTable()
	first.Set("baseline", "electricity.PG&E.E-TOU-C", "100.00")
	first.Set("baseline", "electricity.PG&E.E-TOU-D", "110.00")
	_, err := MergeInto(path, first)
	require.NoError(t, err)

	second := NewTable()
	second.Set("baseline", "electricity.PG&E.E-TOU-D", "120.00")
	second.Set("baseline.solarstorage", "electricity.PG&E.E-TOU-D", "50.00")
	merged, err := MergeInto(path, second)
	require.NoError(t, err)

	v, _ := merged.Get("baseline", "electricity.PG&E.E-TOU-C")
	assert.Equal(t, "100.00", v, "unrelated column kept")
	v, _ = merged.Get("baseline", "electricity.PG&E.E-TOU-D")
	assert.Equal(t, "120.00", v, "overlapping cell replaced")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"scenario,electricity.PG&E.E-TOU-C,electricity.PG&E.E-TOU-D\n"+
			"baseline,100.00,120.00\n"+
			"baseline.solarstorage,,50.00\n",
		string(data))
}

func TestMergeInto_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	once := filepath.Join(dir, "once.csv")
	twice := filepath.Join(dir, "twice.csv")

	row := NewTable()
	row.Set("heat_pump", "gas.PG&E.G-1", "312.40")
	row.Set("heat_pump", "electricity.PG&E.E-ELEC", "1502.11")

	_, err := MergeInto(once, row)
	require.NoError(t, err)
	_, err = MergeInto(twice, row)
	require.NoError(t, err)
	_, err = MergeInto(twice, row)
	require.NoError(t, err)

	a, err := os.ReadFile(once)
	require.NoError(t, err)
	b, err := os.ReadFile(twice)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestLocker_SerializesMerges(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.csv")
	var locks Locker

	cols := []string{"electricity.PG&E.A", "electricity.PG&E.B", "electricity.PG&E.C", "electricity.PG&E.D"}
	var wg sync.WaitGroup
	for _, col := range cols {
		wg.Add(1)
		go func(col string) {
			defer wg.Done()
			tbl := NewTable()
			tbl.Set("baseline", col, "1.00")
			_, err := locks.MergeInto(path, tbl)
			assert.NoError(t, err)
		}(col)
	}
	wg.Wait()

	tbl, err := ReadFile(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, cols, tbl.Columns())
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestTable_MergeEmpty(t *testing.T) {
	t.Parallel()

	base := tableOf(map[string]map[string]string{"a": {"x": "1"}}, []string{"a"}, []string{"x"})
	base.Merge(NewTable())
	assert.Equal(t, "scenario,x\na,1\n", encode(t, base))
}
