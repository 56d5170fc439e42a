package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quantdesk/quantdesk/internal/modules/sync"
	"github.com/quantdesk/quantdesk/internal/modules/universe"
)

// SyncSchedule is the user-editable schedule file
type SyncSchedule struct {
	Enabled bool     `json:"enabled"`
	Time    string   `json:"time"`    // "HH:MM", local time
	Targets []string `json:"targets"` // universe names
}

// LoadSyncSchedule reads the schedule file. A missing file yields a
// disabled schedule rather than an error.
func LoadSyncSchedule(path string) (*SyncSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SyncSchedule{}, nil
		}
		return nil, fmt.Errorf("failed to read sync schedule: %w", err)
	}

	var schedule SyncSchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("failed to parse sync schedule: %w", err)
	}
	return &schedule, nil
}

// CronSpec converts the "HH:MM" trigger time to a cron expression
func (s *SyncSchedule) CronSpec() (string, error) {
	parts := strings.SplitN(s.Time, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid schedule time %q, expected HH:MM", s.Time)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid schedule hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid schedule minute %q", parts[1])
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// DailySyncJob refreshes prices and fundamentals for the scheduled
// universes once a day
type DailySyncJob struct {
	schedule  *SyncSchedule
	universes *universe.Service
	syncer    *sync.Service
	log       zerolog.Logger
}

// NewDailySyncJob creates the daily sync job
func NewDailySyncJob(schedule *SyncSchedule, universes *universe.Service, syncer *sync.Service, log zerolog.Logger) *DailySyncJob {
	return &DailySyncJob{
		schedule:  schedule,
		universes: universes,
		syncer:    syncer,
		log:       log.With().Str("job", "daily_sync").Logger(),
	}
}

// Name returns the job name
func (j *DailySyncJob) Name() string {
	return "daily_sync"
}

// Run syncs every scheduled universe. Fundamentals failures do not block
// the price sync of later universes.
func (j *DailySyncJob) Run() error {
	tickers, err := j.universes.Resolve(j.schedule.Targets)
	if err != nil {
		return fmt.Errorf("failed to resolve sync targets: %w", err)
	}
	if len(tickers) == 0 {
		j.log.Warn().Strs("targets", j.schedule.Targets).Msg("No tickers to sync")
		return nil
	}

	ctx := context.Background()

	prices := j.syncer.SyncPrices(ctx, tickers)
	j.log.Info().
		Int("total", prices.Total).
		Int("synced", prices.Synced).
		Int("up_to_date", prices.UpToDate).
		Int("failed", prices.Failed).
		Msg("Daily price sync finished")

	funds := j.syncer.SyncFundamentals(ctx, tickers)
	j.log.Info().
		Int("total", funds.Total).
		Int("synced", funds.Synced).
		Int("failed", funds.Failed).
		Msg("Daily fundamentals sync finished")

	return nil
}
