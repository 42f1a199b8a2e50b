package roster_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hifztracker/internal/apperr"
	"hifztracker/internal/roster"
	"hifztracker/internal/testutil"
)

func TestAddStudentIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := roster.NewRepository(db)
	ctx := context.Background()

	first, created, err := repo.AddStudent(ctx, "Amina")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.AddStudent(ctx, "  Amina ")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, again)

	students, err := repo.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestConcurrentAddsOfSameName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := roster.NewRepository(db)
	ctx := context.Background()

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[int64]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, isNew, err := repo.AddStudent(ctx, "Amina")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[st.ID] = true
			if isNew {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
	students, err := repo.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestAddStudentIsCaseSensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := roster.NewRepository(db)
	ctx := context.Background()

	_, _, err := repo.AddStudent(ctx, "amina")
	require.NoError(t, err)
	_, created, err := repo.AddStudent(ctx, "Amina")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestAddStudentRejectsBlankName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := roster.NewRepository(db)

	for _, name := range []string{"", "   ", "\t\n"} {
		_, _, err := repo.AddStudent(context.Background(), name)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrValidation), "name %q", name)
	}

	students, err := repo.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestListStudentsOrderedByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := roster.NewRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Yusuf", "Amina", "Ibrahim"} {
		_, _, err := repo.AddStudent(ctx, name)
		require.NoError(t, err)
	}

	students, err := repo.ListStudents(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(students))
	for _, s := range students {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Amina", "Ibrahim", "Yusuf"}, names)
}

func TestListStudentsEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)

	students, err := roster.NewRepository(db).ListStudents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestGetStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := roster.NewRepository(db)
	ctx := context.Background()

	st, _, err := repo.AddStudent(ctx, "Amina")
	require.NoError(t, err)

	got, err := repo.GetStudent(ctx, st.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Amina", got.Name)

	missing, err := repo.GetStudent(ctx, st.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteStudentCascadesLogs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := roster.NewRepository(db)
	ctx := context.Background()

	amina, _, err := repo.AddStudent(ctx, "Amina")
	require.NoError(t, err)
	_, err = db.Client.Exec(`INSERT INTO daily_logs (log_date, student_id, surah, start_ayah, end_ayah, num_lines, pass_fail)
		VALUES ('2024-05-01', ?, 'Al-Fatiha', 1, 7, 7, 'Pass'), ('2024-05-02', ?, 'Al-Baqarah', 1, 5, 5, 'Fail')`, amina.ID, amina.ID)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteStudent(ctx, amina.ID))

	assert.Zero(t, testutil.CountLogs(t, db, ""))
	students, err := repo.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestDeleteUnknownStudentIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := roster.NewRepository(db)

	assert.NoError(t, repo.DeleteStudent(context.Background(), 42))
}
