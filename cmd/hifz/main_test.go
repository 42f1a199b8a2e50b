package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hifztracker/internal/apperr"
	"hifztracker/internal/logbook"
)

func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--driver", "sqlite3", "--db", dbPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const batchYAML = `date: 2024-05-01
rows:
  - student: Yusuf
    surah: Al-Baqarah
    start_ayah: 1
    end_ayah: 5
    num_lines: 5
    pass_fail: Fail
  - student: Amina
    surah: Al-Fatiha
    start_ayah: 1
    end_ayah: 7
    num_lines: 7
    pass_fail: Pass
`

func TestParseBatchFile(t *testing.T) {
	bf, err := parseBatchFile(strings.NewReader(batchYAML))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", bf.Date)
	require.Len(t, bf.Rows, 2)
	assert.Equal(t, "Yusuf", bf.Rows[0].Student)
	assert.Equal(t, "Al-Baqarah", bf.Rows[0].Surah)
	assert.Equal(t, 5, bf.Rows[0].EndAyah)
	assert.Equal(t, logbook.Fail, bf.Rows[0].PassFail)

	_, err = parseBatchFile(strings.NewReader("rows:\n  - studnt: Amina\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestParseBatchFileAcceptsJSON(t *testing.T) {
	bf, err := parseBatchFile(strings.NewReader(`{"rows":[{"student_id":3,"surah":"An-Nas","start_ayah":1,"end_ayah":6,"num_lines":3,"pass_fail":"Pass"}]}`))
	require.NoError(t, err)
	require.Len(t, bf.Rows, 1)
	assert.Equal(t, int64(3), bf.Rows[0].StudentID)
}

func TestCLIWorkflow(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "hifz.db")

	out, err := run(t, dbPath, "students", "add", "Yusuf", "Amina")
	require.NoError(t, err)
	assert.Contains(t, out, "added Yusuf")
	assert.Contains(t, out, "added Amina")

	out, err = run(t, dbPath, "students", "add", "Amina")
	require.NoError(t, err)
	assert.Contains(t, out, "exists Amina")

	out, err = run(t, dbPath, "students", "list")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Amina"), strings.Index(out, "Yusuf"))

	batch := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(batch, []byte(batchYAML), 0o644))

	out, err = run(t, dbPath, "logs", "submit", "-f", batch)
	require.NoError(t, err)
	assert.Contains(t, out, "logged 2 students for 2024-05-01")

	_, err = run(t, dbPath, "logs", "submit", "-f", batch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrDateAlreadyLogged))

	out, err = run(t, dbPath, "logs", "show", "--date", "2024-05-01")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Amina"), strings.Index(out, "Yusuf"))
	assert.Contains(t, out, "1-7")

	csvPath := filepath.Join(dir, "out.csv")
	_, err = run(t, dbPath, "logs", "export", "--from", "2024-05-01", "--to", "2024-05-31", "-o", csvPath)
	require.NoError(t, err)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "2024-05-01,Amina,Al-Fatiha,1,7,7,Pass,"))

	_, err = run(t, dbPath, "logs", "export", "--from", "2024-05-31", "--to", "2024-05-01")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	out, err = run(t, dbPath, "students", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted Yusuf (id 1)")

	out, err = run(t, dbPath, "students", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "no student with id 1")
}

func TestSubmitUnknownStudentName(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hifz.db")
	_, err := run(t, dbPath, "students", "add", "Amina")
	require.NoError(t, err)

	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(batchYAML))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--driver", "sqlite3", "--db", dbPath, "logs", "submit"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrReference))
}

func TestSurahsNeedsNoDatabase(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "missing", "never.db"), "surahs")
	require.NoError(t, err)
	assert.Contains(t, out, "  1  Al-Fatiha")
	assert.Contains(t, out, "114  An-Nas")
}
