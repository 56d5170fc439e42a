package scheduler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSyncSchedule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"enabled":true,"time":"18:30","targets":["sp500"]}`), 0o644))

	schedule, err := LoadSyncSchedule(path)
	require.NoError(t, err)

	assert.True(t, schedule.Enabled)
	assert.Equal(t, "18:30", schedule.Time)
	assert.Equal(t, []string{"sp500"}, schedule.Targets)
}

func TestLoadSyncSchedule_MissingFileIsDisabled(t *testing.T) {
	schedule, err := LoadSyncSchedule(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.False(t, schedule.Enabled)
	assert.Empty(t, schedule.Targets)
}

func TestLoadSyncSchedule_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadSyncSchedule(path)
	assert.Error(t, err)
}

func TestCronSpec(t *testing.T) {
	tests := []struct {
		time    string
		want    string
		wantErr bool
	}{
		{time: "18:30", want: "30 18 * * *"},
		{time: "00:00", want: "0 0 * * *"},
		{time: "23:59", want: "59 23 * * *"},
		{time: "9:05", want: "5 9 * * *"},
		{time: "24:00", wantErr: true},
		{time: "12:60", wantErr: true},
		{time: "noon", wantErr: true},
		{time: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.time, func(t *testing.T) {
			schedule := &SyncSchedule{Time: tt.time}

			spec, err := schedule.CronSpec()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec)
		})
	}
}

type countingJob struct {
	runs int
}

func (j *countingJob) Run() error   { j.runs++; return nil }
func (j *countingJob) Name() string { return "counting" }

func TestSchedulerRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)
}

func TestSchedulerStartStopIdempotent(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("0 3 * * *", &countingJob{}))

	s.Start()
	s.Start() // second call is a no-op
	s.Stop()
	s.Stop()
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := New(zerolog.Nop())

	assert.Error(t, s.AddJob("not a cron spec", &countingJob{}))
}
